package store

import (
	"context"

	"github.com/gurudharsan/weighease/internal/weighbridge"
)

// UpdateResult holds the match/modify counts of a keyed update so
// callers can tell "updated" from "matched but unchanged" from
// "no record with that serial".
type UpdateResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

// EntryPatch carries the editable fields of a full record save.
// Total is always recomputed by the caller from rate and net weight
// before the patch is issued; a stale displayed total is never trusted.
type EntryPatch struct {
	PartyName   string
	NetWeight   float64
	Rate        float64
	TotalAmount float64
}

// EntryStore is the record store boundary of the core. Find returns
// entries ordered by descending serial. Update and Delete target the
// record whose serial matches exactly; zero matches is reported
// through the result counts, never as an error.
type EntryStore interface {
	Find(ctx context.Context, f Filter) ([]weighbridge.Entry, error)
	Get(ctx context.Context, serial string) (*weighbridge.Entry, error)
	Insert(ctx context.Context, e weighbridge.Entry) error
	UpdateBilling(ctx context.Context, serial string, rate, total float64) (UpdateResult, error)
	Update(ctx context.Context, serial string, p EntryPatch) (UpdateResult, error)
	Delete(ctx context.Context, serial string) (int64, error)
}
