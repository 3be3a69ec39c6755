package projection

import (
	"context"
	"fmt"
	"sync"

	"github.com/gurudharsan/weighease/internal/store"
	"github.com/gurudharsan/weighease/internal/weighbridge"
)

// Tag is the cosmetic row tag consumed by rendering collaborators.
// Drying takes priority over the even/odd parity tags.
type Tag string

const (
	TagEven   Tag = "evenrow"
	TagOdd    Tag = "oddrow"
	TagDrying Tag = "drying"
)

// Row is the display projection of a single entry. Numeric fields are
// formatted to two decimal places; rate and total stay empty until a
// bill has been calculated for the entry.
type Row struct {
	Serial       string `json:"sno"`
	Date         string `json:"date"`
	PartyName    string `json:"party_name"`
	TruckNumber  string `json:"truck_number"`
	NumBags      string `json:"num_of_bags"`
	GrossWeight  string `json:"gross_weight"`
	EmptyWeight  string `json:"truck_empty_weight"`
	NetWeight    string `json:"net_weight"`
	Drying       string `json:"drying"`
	DryingWeight string `json:"drying_weight"`
	Rate         string `json:"rate"`
	TotalAmount  string `json:"total_amount"`
	Tag          Tag    `json:"tag"`
}

// Project builds the full row list for a slice of entries, in input
// order. It is shared by the stateful Engine and the stateless API
// handlers.
func Project(entries []weighbridge.Entry) []Row {
	rows := make([]Row, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, buildRow(i, e))
	}
	return rows
}

func buildRow(index int, e weighbridge.Entry) Row {
	r := Row{
		Serial:       e.Serial,
		Date:         e.Date,
		PartyName:    e.PartyName,
		TruckNumber:  e.TruckNumber,
		NumBags:      e.NumBags,
		GrossWeight:  FormatWeight(e.GrossWeight),
		EmptyWeight:  FormatWeight(e.EmptyWeight),
		NetWeight:    FormatWeight(e.NetWeight),
		Drying:       "No",
		DryingWeight: "N/A",
		Tag:          TagEven,
	}
	if index%2 == 1 {
		r.Tag = TagOdd
	}
	if e.IsDrying {
		r.Drying = "Yes"
		r.Tag = TagDrying
		if e.DryingWeight != nil {
			r.DryingWeight = FormatWeight(*e.DryingWeight)
		} else {
			r.DryingWeight = FormatWeight(0)
		}
	}
	if e.Rate != nil {
		r.Rate = FormatWeight(*e.Rate)
	}
	if e.TotalAmount != nil {
		r.TotalAmount = FormatAmount(*e.TotalAmount)
	}
	return r
}

// Engine is the in-memory projection over the entry store. The row
// list is rebuilt wholesale on every Load; only the single row touched
// by an in-place calculate or edit is ever patched without a reload.
// The row list is guarded by a mutex: a debounced filter reload runs on
// a timer goroutine while the interaction goroutine reads rows.
type Engine struct {
	store store.EntryStore

	mu   sync.RWMutex
	rows []Row
}

// New creates a projection engine over the given store. The projection
// starts empty until the first Load.
func New(st store.EntryStore) *Engine {
	return &Engine{store: st}
}

// Load queries the store for entries matching the filter and replaces
// the row list. On a store fault the previous projection is left
// intact and the error is returned; a partially built list is never
// observable.
func (p *Engine) Load(ctx context.Context, f store.Filter) error {
	entries, err := p.store.Find(ctx, f)
	if err != nil {
		return fmt.Errorf("Load: query entries: %w", err)
	}
	rows := Project(entries)

	p.mu.Lock()
	p.rows = rows
	p.mu.Unlock()
	return nil
}

// Rows returns a snapshot of the current row list. The copy stays
// valid while a concurrent reload or patch replaces the projection.
func (p *Engine) Rows() []Row {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rows := make([]Row, len(p.rows))
	copy(rows, p.rows)
	return rows
}

// Len returns the number of rows currently projected.
func (p *Engine) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.rows)
}

// Row returns the row at the given index.
func (p *Engine) Row(i int) (Row, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if i < 0 || i >= len(p.rows) {
		return Row{}, false
	}
	return p.rows[i], true
}

// find returns the index of the row with the given serial, or -1.
// Callers hold p.mu.
func (p *Engine) find(serial string) int {
	for i := range p.rows {
		if p.rows[i].Serial == serial {
			return i
		}
	}
	return -1
}

// ApplyBilling patches the rate and total columns of the row with the
// given serial in place, avoiding a full reload after a calculation.
// It reports whether a row was found.
func (p *Engine) ApplyBilling(serial string, rate, total float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.find(serial)
	if i < 0 {
		return false
	}
	p.rows[i].Rate = FormatWeight(rate)
	p.rows[i].TotalAmount = FormatAmount(total)
	return true
}

// ApplyEdit patches the editable columns of the row with the given
// serial after a saved record edit.
func (p *Engine) ApplyEdit(serial, party string, net, rate, total float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.find(serial)
	if i < 0 {
		return false
	}
	p.rows[i].PartyName = party
	p.rows[i].NetWeight = FormatWeight(net)
	p.rows[i].Rate = FormatWeight(rate)
	p.rows[i].TotalAmount = FormatAmount(total)
	return true
}

// Remove drops the row with the given serial after a delete. Parity
// tags of the remaining rows are left as loaded; they are purely
// cosmetic and refresh on the next Load.
func (p *Engine) Remove(serial string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.find(serial)
	if i < 0 {
		return false
	}
	p.rows = append(p.rows[:i], p.rows[i+1:]...)
	return true
}
