package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/csvstats/internal/records"
)

// Filters narrows a dataset down to the records shown in the views.
// A nil field is unset and matches everything.
type Filters struct {
	DateFrom *Date  `json:"date_from,omitempty"`
	DateTo   *Date  `json:"date_to,omitempty"`
	Month    *int   `json:"month,omitempty"`   // 1..12
	Week     *int   `json:"week,omitempty"`    // ISO week 1..53
	Weekday  *int   `json:"weekday,omitempty"` // 0..6, Sunday = 0
	Hour     *int   `json:"hour,omitempty"`    // 0..23
	Days     []Date `json:"days,omitempty"`    // selected calendar days, any may match
}

// IsZero reports whether no filter field is set.
func (f Filters) IsZero() bool {
	return f.DateFrom == nil && f.DateTo == nil && f.Month == nil && f.Week == nil &&
		f.Weekday == nil && f.Hour == nil && len(f.Days) == 0
}

// Validate checks every set field is within range.
func (f Filters) Validate() error {
	var errs []error
	check := func(name string, v *int, lo, hi int) {
		if v != nil && (*v < lo || *v > hi) {
			errs = append(errs, fmt.Errorf("%s must be between %d and %d, got %d", name, lo, hi, *v))
		}
	}
	check("month", f.Month, 1, 12)
	check("week", f.Week, 1, 53)
	check("weekday", f.Weekday, 0, 6)
	check("hour", f.Hour, 0, 23)
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		errs = append(errs, fmt.Errorf("date_from %s is after date_to %s", f.DateFrom, f.DateTo))
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy of f.
func (f Filters) Clone() Filters {
	c := Filters{
		DateFrom: clonePtr(f.DateFrom),
		DateTo:   clonePtr(f.DateTo),
		Month:    clonePtr(f.Month),
		Week:     clonePtr(f.Week),
		Weekday:  clonePtr(f.Weekday),
		Hour:     clonePtr(f.Hour),
	}
	if len(f.Days) > 0 {
		c.Days = append([]Date(nil), f.Days...)
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Match reports whether t passes every set filter field.
func (f Filters) Match(t time.Time) bool {
	day := DateOf(t)
	if f.DateFrom != nil && day.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && day.After(*f.DateTo) {
		return false
	}
	if f.Month != nil && int(t.Month()) != *f.Month {
		return false
	}
	if f.Week != nil {
		if _, w := t.ISOWeek(); w != *f.Week {
			return false
		}
	}
	if f.Weekday != nil && int(t.Weekday()) != *f.Weekday {
		return false
	}
	if f.Hour != nil && t.Hour() != *f.Hour {
		return false
	}
	if len(f.Days) > 0 {
		found := false
		for _, d := range f.Days {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Apply returns the records matching f, in their original order.
// The result never aliases the input slice.
func Apply(recs []records.Record, f Filters) []records.Record {
	out := make([]records.Record, 0, len(recs))
	for _, r := range recs {
		if f.Match(r.Time) {
			out = append(out, r)
		}
	}
	return out
}

// Int is a convenience for building optional filter fields.
func Int(v int) *int { return &v }
