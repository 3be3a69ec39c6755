package weighbridge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind declares how a raw field value must be validated.
type Kind string

const (
	// NonEmptyText fails iff the trimmed value is empty.
	NonEmptyText Kind = "non-empty-text"
	// Numeric fails iff the value does not parse as a float.
	Numeric Kind = "numeric"
	// PlateNumber fails iff the uppercased, trimmed value does not
	// match the truck plate format, e.g. KA01AB1234.
	PlateNumber Kind = "plate-number"
)

var platePattern = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z]{1,2}\d{4}$`)

// Check reports whether the raw value satisfies the given kind.
// It is a pure predicate with no side effects.
func Check(value string, kind Kind) bool {
	trimmed := strings.TrimSpace(value)
	switch kind {
	case NonEmptyText:
		return trimmed != ""
	case Numeric:
		_, err := strconv.ParseFloat(trimmed, 64)
		return err == nil
	case PlateNumber:
		return platePattern.MatchString(strings.ToUpper(trimmed))
	}
	return true
}

// ValidationError reports every field that failed validation for a
// single submission. Fields preserves form order.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid fields: %s", strings.Join(e.Fields, ", "))
}

// ValidateInput checks every field of a submission and collects the
// names of all failing fields rather than stopping at the first.
func ValidateInput(in Input) error {
	checks := []struct {
		value string
		kind  Kind
		field string
	}{
		{in.Serial, NonEmptyText, "Serial Number"},
		{in.PartyName, NonEmptyText, "Party Name"},
		{in.TruckNumber, PlateNumber, "Truck Number"},
		{in.NumBags, Numeric, "Number of Bags"},
		{in.GrossWeight, Numeric, "Gross Weight"},
		{in.EmptyWeight, Numeric, "Truck Empty Weight"},
	}

	var failed []string
	for _, c := range checks {
		if !Check(c.value, c.kind) {
			failed = append(failed, c.field)
		}
	}

	if in.IsDrying && !Check(in.DryingWeight, Numeric) {
		failed = append(failed, "Drying Weight")
	}

	if len(failed) > 0 {
		return &ValidationError{Fields: failed}
	}
	return nil
}
