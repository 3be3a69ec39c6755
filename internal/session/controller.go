package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gurudharsan/weighease/internal/billing"
	"github.com/gurudharsan/weighease/internal/projection"
	"github.com/gurudharsan/weighease/internal/store"
)

// Buffer is the edit buffer for the currently selected row. The serial
// is fixed at selection time and stays read-only; the remaining fields
// are user-editable.
type Buffer struct {
	serial    string
	PartyName string
	NetWeight string
	Rate      string
	Total     string
}

// Serial returns the read-only key of the selected record.
func (b *Buffer) Serial() string { return b.serial }

// DeleteOutcome reports what a delete actually did.
type DeleteOutcome int

const (
	// Deleted means the record was removed from the store.
	Deleted DeleteOutcome = iota
	// AlreadyAbsent means no record with that serial existed; the
	// projection has been reloaded to resynchronize with the store.
	AlreadyAbsent
)

// Controller mediates between the store, the projection and the
// billing calculator around a single current selection. The selection
// buffer is only ever touched from the interaction goroutine; the
// remembered filter is also written by debounced reloads on a timer
// goroutine and is guarded, as are the projection rows themselves.
type Controller struct {
	store    store.EntryStore
	proj     *projection.Engine
	log      zerolog.Logger
	debounce *Debouncer

	mu     sync.Mutex
	filter store.Filter

	buf *Buffer
}

// NewController builds a controller over the given store and
// projection. debounceDelay governs live filter keystrokes.
func NewController(st store.EntryStore, proj *projection.Engine, debounceDelay time.Duration, log zerolog.Logger) *Controller {
	return &Controller{
		store:    st,
		proj:     proj,
		log:      log,
		debounce: NewDebouncer(debounceDelay),
	}
}

// Projection exposes the underlying engine for row access.
func (c *Controller) Projection() *projection.Engine { return c.proj }

// Refresh reloads the projection with the given filter and remembers
// it for later resyncs. On a store fault the previous projection and
// filter are kept.
func (c *Controller) Refresh(ctx context.Context, f store.Filter) error {
	if err := c.proj.Load(ctx, f); err != nil {
		return err
	}
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
	return nil
}

// FilterKeystroke schedules a debounced projection reload for the
// given criteria. A subsequent keystroke before the deferred run fires
// cancels and reschedules it, so at most one store query is issued per
// burst. Load failures are logged; the projection keeps its last good
// state.
func (c *Controller) FilterKeystroke(ctx context.Context, from, to, party string) {
	f := store.BuildFilter(from, to, party)
	c.debounce.Trigger(func() {
		if err := c.Refresh(ctx, f); err != nil {
			c.log.Error().Err(err).Msg("debounced filter reload failed")
		}
	})
}

// Close cancels any pending debounced reload.
func (c *Controller) Close() {
	c.debounce.Stop()
}

// Select copies the row at the given index into the edit buffer. Rate
// and total are cleared rather than carried over: the rate is scoped
// to a billing session, not a durable display value, so every
// selection forces a fresh calculation.
func (c *Controller) Select(index int) error {
	row, ok := c.proj.Row(index)
	if !ok {
		return fmt.Errorf("Select: no row at index %d", index)
	}
	c.buf = &Buffer{
		serial:    row.Serial,
		PartyName: row.PartyName,
		NetWeight: row.NetWeight,
	}
	return nil
}

// Selection returns the current edit buffer, or false when no row is
// selected.
func (c *Controller) Selection() (*Buffer, bool) {
	if c.buf == nil {
		return nil, false
	}
	return c.buf, true
}

// Clear drops the current selection.
func (c *Controller) Clear() {
	c.buf = nil
}

// Calculate computes the total for the buffered rate and net weight,
// updating the buffer and patching the selected row in place without a
// reload. Nothing is persisted; see PersistBilling.
func (c *Controller) Calculate() (rate, total decimal.Decimal, err error) {
	if c.buf == nil {
		return decimal.Zero, decimal.Zero, billing.ErrNoSelection
	}
	rate, total, err = billing.Calculate(c.buf.Rate, c.buf.NetWeight)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	c.buf.Total = projection.FormatAmount(total.InexactFloat64())
	c.proj.ApplyBilling(c.buf.serial, rate.InexactFloat64(), total.InexactFloat64())

	c.log.Info().
		Str("sno", c.buf.serial).
		Str("rate", rate.StringFixed(2)).
		Str("total", total.StringFixed(2)).
		Msg("calculated bill amount")
	return rate, total, nil
}

// PersistBilling writes the selected record's billing values back to
// the store. The total is recomputed as rate x net weight from the
// buffer at persist time, never taken from a previously calculated
// display value, so the stored pair cannot drift apart when the rate
// is edited after a calculation. A blank or non-numeric rate rejects
// the persist before any store mutation.
func (c *Controller) PersistBilling(ctx context.Context) (billing.Outcome, error) {
	if c.buf == nil {
		return billing.NotFound, billing.ErrNoSelection
	}
	rate, total, err := billing.Calculate(c.buf.Rate, c.buf.NetWeight)
	if err != nil {
		return billing.NotFound, err
	}

	out, err := billing.Persist(ctx, c.store, c.buf.serial, rate, total)
	if err != nil {
		return out, err
	}

	if out != billing.NotFound {
		c.buf.Total = projection.FormatAmount(total.InexactFloat64())
		c.proj.ApplyBilling(c.buf.serial, rate.InexactFloat64(), total.InexactFloat64())
	}
	return out, nil
}

// Save persists the full edit buffer for the selected record. The
// total is always recomputed from the current rate and net weight,
// ignoring any stale calculated total in the buffer. Zero rows
// modified is a reported no-op, not an error.
func (c *Controller) Save(ctx context.Context) (billing.Outcome, error) {
	if c.buf == nil {
		return billing.NotFound, billing.ErrNoSelection
	}

	net := billing.ParseAmount(c.buf.NetWeight)
	rate := decimal.Zero
	if c.buf.Rate != "" {
		rate = billing.ParseAmount(c.buf.Rate)
	}
	total := net.Mul(rate).Round(2)

	res, err := c.store.Update(ctx, c.buf.serial, store.EntryPatch{
		PartyName:   c.buf.PartyName,
		NetWeight:   net.InexactFloat64(),
		Rate:        rate.InexactFloat64(),
		TotalAmount: total.InexactFloat64(),
	})
	if err != nil {
		return billing.NotFound, fmt.Errorf("Save: updating entry %q: %w", c.buf.serial, err)
	}

	switch {
	case res.Matched == 0:
		return billing.NotFound, nil
	case res.Modified == 0:
		return billing.Unchanged, nil
	}

	c.buf.Total = projection.FormatAmount(total.InexactFloat64())
	c.proj.ApplyEdit(c.buf.serial, c.buf.PartyName,
		net.InexactFloat64(), rate.InexactFloat64(), total.InexactFloat64())

	c.log.Info().Str("sno", c.buf.serial).Msg("saved record changes")
	return billing.Updated, nil
}

// Delete removes the selected record from the store and the
// projection, clearing the selection. When the record is already gone
// from the store, the projection is fully reloaded to resynchronize
// with whatever the store actually holds, and the absence is reported
// rather than escalated.
func (c *Controller) Delete(ctx context.Context) (DeleteOutcome, error) {
	if c.buf == nil {
		return AlreadyAbsent, billing.ErrNoSelection
	}
	serial := c.buf.serial

	deleted, err := c.store.Delete(ctx, serial)
	if err != nil {
		return AlreadyAbsent, fmt.Errorf("Delete: deleting entry %q: %w", serial, err)
	}

	c.buf = nil

	if deleted > 0 {
		c.proj.Remove(serial)
		c.log.Info().Str("sno", serial).Msg("deleted record")
		return Deleted, nil
	}

	c.mu.Lock()
	f := c.filter
	c.mu.Unlock()
	if err := c.proj.Load(ctx, f); err != nil {
		c.log.Error().Err(err).Msg("resync reload after absent delete failed")
	}
	c.log.Warn().Str("sno", serial).Msg("record already absent; projection resynced")
	return AlreadyAbsent, nil
}
