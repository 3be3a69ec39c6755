package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gurudharsan/weighease/internal/store"
	"github.com/gurudharsan/weighease/internal/weighbridge"
)

// Store is an in-memory implementation of EntryStore keyed by serial.
// It backs the tests and serves as an ephemeral fallback when no Mongo
// URI is configured. Data is lost on restart.
type Store struct {
	mu      sync.RWMutex
	entries map[string]weighbridge.Entry
}

// New creates an empty in-memory entry store.
func New() *Store {
	return &Store{entries: make(map[string]weighbridge.Entry)}
}

// Find returns copies of all entries matching the filter, ordered by
// descending serial.
func (s *Store) Find(ctx context.Context, f store.Filter) ([]weighbridge.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weighbridge.Entry
	for _, e := range s.entries {
		if f.Matches(e) {
			result = append(result, copyEntry(e))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Serial > result[j].Serial
	})

	return result, nil
}

// Get returns a copy of the entry with the given serial, or nil when
// no such entry exists.
func (s *Store) Get(ctx context.Context, serial string) (*weighbridge.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[serial]
	if !ok {
		return nil, nil
	}
	c := copyEntry(e)
	return &c, nil
}

// Insert stores a new entry under its serial.
func (s *Store) Insert(ctx context.Context, e weighbridge.Entry) error {
	if e.Serial == "" {
		return fmt.Errorf("Insert: entry serial is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[e.Serial] = copyEntry(e)
	return nil
}

// UpdateBilling sets rate and total on the entry with the given serial.
func (s *Store) UpdateBilling(ctx context.Context, serial string, rate, total float64) (store.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[serial]
	if !ok {
		return store.UpdateResult{}, nil
	}

	res := store.UpdateResult{Matched: 1}
	if e.Rate == nil || *e.Rate != rate || e.TotalAmount == nil || *e.TotalAmount != total {
		res.Modified = 1
	}

	r, t := rate, total
	e.Rate = &r
	e.TotalAmount = &t
	s.entries[serial] = e

	return res, nil
}

// Update applies a full edit patch to the entry with the given serial.
func (s *Store) Update(ctx context.Context, serial string, p store.EntryPatch) (store.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[serial]
	if !ok {
		return store.UpdateResult{}, nil
	}

	res := store.UpdateResult{Matched: 1}
	if e.PartyName != p.PartyName || e.NetWeight != p.NetWeight ||
		e.Rate == nil || *e.Rate != p.Rate ||
		e.TotalAmount == nil || *e.TotalAmount != p.TotalAmount {
		res.Modified = 1
	}

	e.PartyName = p.PartyName
	e.NetWeight = p.NetWeight
	r, t := p.Rate, p.TotalAmount
	e.Rate = &r
	e.TotalAmount = &t
	s.entries[serial] = e

	return res, nil
}

// Delete removes the entry with the given serial and reports how many
// entries were removed (zero or one).
func (s *Store) Delete(ctx context.Context, serial string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[serial]; !ok {
		return 0, nil
	}
	delete(s.entries, serial)
	return 1, nil
}

// copyEntry clones an entry including its optional pointer fields so
// callers can never mutate stored state through a returned value.
func copyEntry(e weighbridge.Entry) weighbridge.Entry {
	c := e
	if e.DryingWeight != nil {
		v := *e.DryingWeight
		c.DryingWeight = &v
	}
	if e.Rate != nil {
		v := *e.Rate
		c.Rate = &v
	}
	if e.TotalAmount != nil {
		v := *e.TotalAmount
		c.TotalAmount = &v
	}
	return c
}

// Ensure Store implements EntryStore.
var _ store.EntryStore = (*Store)(nil)
