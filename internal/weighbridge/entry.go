package weighbridge

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the layout used for stored entry dates. Entries are
// range-filtered by lexical comparison, which is only correct because
// this layout is zero-padded and fixed-width.
const DateFormat = "2006-01-02 15:04:05"

// Entry is a single weighbridge transaction as persisted in the entries
// collection. Rate, TotalAmount and DryingWeight stay nil until a bill
// is calculated or drying is recorded, which is how the projection
// tells "not yet billed" apart from "billed at zero".
type Entry struct {
	Serial       string   `bson:"sno" json:"sno"`
	Date         string   `bson:"date" json:"date"`
	PartyName    string   `bson:"party_name" json:"party_name"`
	TruckNumber  string   `bson:"truck_number" json:"truck_number"`
	NumBags      string   `bson:"num_of_bags" json:"num_of_bags"`
	GrossWeight  float64  `bson:"gross_weight" json:"gross_weight"`
	EmptyWeight  float64  `bson:"truck_empty_weight" json:"truck_empty_weight"`
	NetWeight    float64  `bson:"net_weight" json:"net_weight"`
	IsDrying     bool     `bson:"is_drying" json:"is_drying"`
	DryingWeight *float64 `bson:"drying_weight" json:"drying_weight,omitempty"`
	Rate         *float64 `bson:"rate,omitempty" json:"rate,omitempty"`
	TotalAmount  *float64 `bson:"total_amount,omitempty" json:"total_amount,omitempty"`
}

// Input carries the raw field values of a weighbridge form submission,
// exactly as typed. NewEntry validates and normalizes them.
type Input struct {
	Serial       string `json:"sno"`
	Date         string `json:"date,omitempty"`
	PartyName    string `json:"party_name"`
	TruckNumber  string `json:"truck_number"`
	NumBags      string `json:"num_of_bags"`
	GrossWeight  string `json:"gross_weight"`
	EmptyWeight  string `json:"truck_empty_weight"`
	IsDrying     bool   `json:"is_drying"`
	DryingWeight string `json:"drying_weight,omitempty"`
}

// NewEntry validates the raw input and builds a persistable Entry.
// Net weight is always derived as gross minus empty, rounded to two
// decimal places; it is never taken from the caller. The date defaults
// to the current time when absent. A ValidationError carrying every
// failing field is returned when any check fails, so callers can
// report all violations at once.
func NewEntry(in Input, now func() time.Time) (Entry, error) {
	if err := ValidateInput(in); err != nil {
		return Entry{}, err
	}

	gross, _ := decimal.NewFromString(strings.TrimSpace(in.GrossWeight))
	empty, _ := decimal.NewFromString(strings.TrimSpace(in.EmptyWeight))
	net := gross.Sub(empty).Round(2)

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = now().Format(DateFormat)
	}

	e := Entry{
		Serial:      strings.TrimSpace(in.Serial),
		Date:        date,
		PartyName:   strings.TrimSpace(in.PartyName),
		TruckNumber: strings.ToUpper(strings.TrimSpace(in.TruckNumber)),
		NumBags:     strings.TrimSpace(in.NumBags),
		GrossWeight: gross.InexactFloat64(),
		EmptyWeight: empty.InexactFloat64(),
		NetWeight:   net.InexactFloat64(),
		IsDrying:    in.IsDrying,
	}

	// Drying weight exists only while the drying flag is set.
	if in.IsDrying {
		dw, _ := decimal.NewFromString(strings.TrimSpace(in.DryingWeight))
		v := dw.InexactFloat64()
		e.DryingWeight = &v
	}

	return e, nil
}
