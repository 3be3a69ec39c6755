package billing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gurudharsan/weighease/internal/store/memstore"
	"github.com/gurudharsan/weighease/internal/weighbridge"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name      string
		rate, net string
		wantRate  string
		wantTotal string
		wantErr   error
	}{
		{
			name: "whole numbers",
			rate: "5", net: "800.00",
			wantRate: "5", wantTotal: "4000",
		},
		{
			name: "net with grouping commas",
			rate: "5", net: "1,200.00",
			wantRate: "5", wantTotal: "6000",
		},
		{
			name: "fractional rounding",
			rate: "2.555", net: "10.00",
			wantRate: "2.555", wantTotal: "25.55",
		},
		{
			name: "zero rate is a valid bill",
			rate: "0", net: "800.00",
			wantRate: "0", wantTotal: "0",
		},
		{
			name: "blank rate",
			rate: "   ", net: "800.00",
			wantErr: ErrMissingRate,
		},
		{
			name: "non-numeric rate",
			rate: "abc", net: "800.00",
			wantErr: ErrInvalidRate,
		},
		{
			name: "no selected net weight",
			rate: "5", net: "",
			wantErr: ErrNoSelection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, total, err := Calculate(tt.rate, tt.net)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Calculate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if rate.String() != tt.wantRate {
				t.Errorf("rate = %s, want %s", rate, tt.wantRate)
			}
			if total.String() != tt.wantTotal {
				t.Errorf("total = %s, want %s", total, tt.wantTotal)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"800.00", "800"},
		{"4,000.00", "4000"},
		{"1,234,567.89", "1234567.89"},
		{"", "0"},
		{"N/A", "0"},
	}

	for _, tt := range tests {
		if got := ParseAmount(tt.in); got.String() != tt.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPersistOutcomes(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	st.Insert(ctx, weighbridge.Entry{Serial: "1", PartyName: "Acme", NetWeight: 800})

	rate := decimal.NewFromInt(5)
	total := decimal.NewFromInt(4000)

	out, err := Persist(ctx, st, "1", rate, total)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if out != Updated {
		t.Errorf("first Persist() = %v, want Updated", out)
	}

	out, err = Persist(ctx, st, "1", rate, total)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if out != Unchanged {
		t.Errorf("repeat Persist() = %v, want Unchanged", out)
	}

	out, err = Persist(ctx, st, "99", rate, total)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if out != NotFound {
		t.Errorf("absent Persist() = %v, want NotFound", out)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		out  Outcome
		want string
	}{
		{Updated, "updated"},
		{Unchanged, "unchanged"},
		{NotFound, "not_found"},
	}
	for _, tt := range tests {
		if got := tt.out.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.out, got, tt.want)
		}
	}
}

func TestBillText(t *testing.T) {
	b := Bill{
		Serial:    "1",
		Date:      "2024-03-05 10:30:00",
		PartyName: "Acme Traders",
		NetWeight: decimal.NewFromInt(800),
		Rate:      decimal.NewFromInt(5),
		Total:     decimal.NewFromInt(4000),
	}

	text := b.Text()
	for _, want := range []string{
		"WEIGHBRIDGE BILL",
		"Bill No: 1",
		"Party Name: Acme Traders",
		"Net Weight: 800.00 kg",
		"Rate per kg: Rs.5.00",
		"Total Amount: Rs.4000.00",
		"Thank You",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Text() missing %q:\n%s", want, text)
		}
	}
}
