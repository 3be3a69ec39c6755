package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gurudharsan/weighease/internal/store"
)

// Calculation preconditions, checked before any store mutation.
var (
	// ErrMissingRate means the rate field was left blank.
	ErrMissingRate = errors.New("rate is required")
	// ErrInvalidRate means the rate did not parse as a number.
	ErrInvalidRate = errors.New("rate must be numeric")
	// ErrNoSelection means no row is selected, so no net weight is
	// available to bill against.
	ErrNoSelection = errors.New("no record selected")
)

// Bill is a fully resolved bill record, the shape handed to rendering
// collaborators.
type Bill struct {
	Serial    string          `json:"sno"`
	Date      string          `json:"date"`
	PartyName string          `json:"party_name"`
	NetWeight decimal.Decimal `json:"net_weight"`
	Rate      decimal.Decimal `json:"rate"`
	Total     decimal.Decimal `json:"total"`
}

// Calculate computes total = rate x net weight, rounded to two decimal
// places. rateInput is the raw rate field; netInput is the net weight
// taken from the currently selected row (display-formatted, possibly
// with grouping commas).
func Calculate(rateInput, netInput string) (rate, total decimal.Decimal, err error) {
	rateStr := strings.TrimSpace(rateInput)
	if rateStr == "" {
		return decimal.Zero, decimal.Zero, ErrMissingRate
	}
	rate, err = decimal.NewFromString(rateStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, ErrInvalidRate
	}

	netStr := strings.TrimSpace(netInput)
	if netStr == "" {
		return decimal.Zero, decimal.Zero, ErrNoSelection
	}
	net := ParseAmount(netStr)

	return rate, rate.Mul(net).Round(2), nil
}

// ParseAmount parses a display-formatted amount, stripping grouping
// commas. Unparseable input yields zero rather than an error; the
// projection owns the formatting, so a bad value means an empty or
// never-billed column, not a user mistake.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Outcome reports what a billing persist actually did.
type Outcome int

const (
	// Updated means the record was found and its values changed.
	Updated Outcome = iota
	// Unchanged means the record was found but already held the values.
	Unchanged
	// NotFound means no record with that serial exists; this is a
	// benign no-op, not an error.
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	default:
		return "not_found"
	}
}

// Persist writes the calculated rate and total back to the store,
// keyed by serial.
func Persist(ctx context.Context, st store.EntryStore, serial string, rate, total decimal.Decimal) (Outcome, error) {
	res, err := st.UpdateBilling(ctx, serial, rate.InexactFloat64(), total.InexactFloat64())
	if err != nil {
		return NotFound, fmt.Errorf("Persist: updating entry %q: %w", serial, err)
	}
	switch {
	case res.Matched == 0:
		return NotFound, nil
	case res.Modified == 0:
		return Unchanged, nil
	default:
		return Updated, nil
	}
}

// Text renders the bill as a plain-text block for printing
// collaborators. Amounts use the "Rs." prefix.
func (b Bill) Text() string {
	line := strings.Repeat("=", 41)
	return fmt.Sprintf(`%s
            WEIGHBRIDGE BILL
%s

Bill No: %s                Date: %s

Party Name: %s

Net Weight: %s kg
Rate per kg: Rs.%s

Total Amount: Rs.%s

%s
            Thank You
%s
`, line, line, b.Serial, b.Date, b.PartyName,
		b.NetWeight.StringFixed(2), b.Rate.StringFixed(2), b.Total.StringFixed(2),
		line, line)
}
