package projection

import (
	"fmt"
	"strings"
)

// FormatWeight renders a numeric field to two decimal places.
func FormatWeight(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatAmount renders a currency amount to two decimal places with
// thousands separators, e.g. 4000 -> "4,000.00".
func FormatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	out := b.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
