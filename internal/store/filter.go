package store

import (
	"strings"
	"time"

	"github.com/gurudharsan/weighease/internal/weighbridge"
)

const dayFormat = "2006-01-02"

// Filter is the query predicate built from user-supplied criteria.
// A zero Filter matches every entry. DateTo is the exclusive upper
// bound, already advanced one day past the requested "to" date, so the
// range covers the whole final day. Dates are compared lexically,
// which is correct only for the zero-padded ISO layout used by
// weighbridge.DateFormat.
type Filter struct {
	DateFrom string
	DateTo   string
	Party    string
}

// BuildFilter turns raw criteria into a Filter. Malformed date inputs
// drop the date clause entirely rather than failing the query, so
// filtering degrades to "no date constraint". The party substring is
// passed through trimmed; matching is case-insensitive.
func BuildFilter(from, to, party string) Filter {
	f := Filter{Party: strings.TrimSpace(party)}

	fromDay, errFrom := time.Parse(dayFormat, strings.TrimSpace(from))
	toDay, errTo := time.Parse(dayFormat, strings.TrimSpace(to))
	if errFrom == nil && errTo == nil {
		f.DateFrom = fromDay.Format(dayFormat)
		f.DateTo = toDay.AddDate(0, 0, 1).Format(dayFormat)
	}

	return f
}

// Matches reports whether an entry satisfies the predicate. It is the
// reference semantics for every store implementation: the Mongo
// adapter translates the same clauses into a server-side query.
func (f Filter) Matches(e weighbridge.Entry) bool {
	if f.DateFrom != "" {
		if e.Date < f.DateFrom || e.Date >= f.DateTo {
			return false
		}
	}
	if f.Party != "" {
		if !strings.Contains(strings.ToLower(e.PartyName), strings.ToLower(f.Party)) {
			return false
		}
	}
	return true
}
