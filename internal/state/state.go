package state

import (
	"github.com/ziadkadry99/csvstats/internal/records"
	"github.com/ziadkadry99/csvstats/internal/stats"
)

// File is the uploaded CSV file.
type File struct {
	Name string
	Data *records.Dataset
}

// State is the UI state of one browser session.
//
// The zero value is the state at application start: no file, no filters,
// empty filtered data and the spinner off. States are treated as immutable
// values; transitions return a new State and never write through shared
// slices or pointers.
type State struct {
	File          File
	Filters       stats.Filters
	FilteredData  []records.Record
	SpinnerStatus bool
}

// HasFileData reports whether a file has been loaded.
func (s State) HasFileData() bool {
	return s.File.Data != nil
}

// Mutation is a pure state transition.
type Mutation func(State) State

// recompute rebuilds FilteredData from the file data and filters.
func recompute(s State) State {
	if s.File.Data == nil {
		s.FilteredData = nil
		return s
	}
	s.FilteredData = stats.Apply(s.File.Data.Records, s.Filters)
	return s
}

// withFilters applies fn to a private copy of the filters and recomputes.
func withFilters(fn func(*stats.Filters)) Mutation {
	return func(s State) State {
		f := s.Filters.Clone()
		fn(&f)
		s.Filters = f
		return recompute(s)
	}
}

// SetFileName sets the uploaded file's name.
func SetFileName(name string) Mutation {
	return func(s State) State {
		s.File.Name = name
		return s
	}
}

// SetFileData replaces the uploaded file's contents and recomputes the
// filtered data. A nil dataset unloads the file.
func SetFileData(data *records.Dataset) Mutation {
	return func(s State) State {
		s.File.Data = data
		return recompute(s)
	}
}

// SetFilterDateFrom sets the inclusive lower date bound.
func SetFilterDateFrom(d *stats.Date) Mutation {
	return withFilters(func(f *stats.Filters) { f.DateFrom = clone(d) })
}

// SetFilterDateTo sets the inclusive upper date bound.
func SetFilterDateTo(d *stats.Date) Mutation {
	return withFilters(func(f *stats.Filters) { f.DateTo = clone(d) })
}

// SetFilterMonth sets the month filter (1..12).
func SetFilterMonth(v *int) Mutation {
	return withFilters(func(f *stats.Filters) { f.Month = clone(v) })
}

// SetFilterWeek sets the ISO week filter.
func SetFilterWeek(v *int) Mutation {
	return withFilters(func(f *stats.Filters) { f.Week = clone(v) })
}

// SetFilterWeekday sets the weekday filter (0 = Sunday).
func SetFilterWeekday(v *int) Mutation {
	return withFilters(func(f *stats.Filters) { f.Weekday = clone(v) })
}

// SetFilterHour sets the hour-of-day filter.
func SetFilterHour(v *int) Mutation {
	return withFilters(func(f *stats.Filters) { f.Hour = clone(v) })
}

// SetFilterDays sets the selected calendar days.
func SetFilterDays(days []stats.Date) Mutation {
	return withFilters(func(f *stats.Filters) {
		f.Days = nil
		if len(days) > 0 {
			f.Days = append([]stats.Date(nil), days...)
		}
	})
}

// SetFilters replaces every filter field at once.
func SetFilters(filters stats.Filters) Mutation {
	return withFilters(func(f *stats.Filters) { *f = filters.Clone() })
}

// ClearFilters unsets every filter field.
func ClearFilters() Mutation {
	return SetFilters(stats.Filters{})
}

// SetFilteredData overrides the derived filtered data until the next file
// or filter change.
func SetFilteredData(recs []records.Record) Mutation {
	return func(s State) State {
		s.FilteredData = append([]records.Record(nil), recs...)
		return s
	}
}

// SetSpinnerStatus sets the loading flag.
func SetSpinnerStatus(v bool) Mutation {
	return func(s State) State {
		s.SpinnerStatus = v
		return s
	}
}

// Batch applies ms in order as a single transition.
func Batch(ms ...Mutation) Mutation {
	return func(s State) State {
		for _, m := range ms {
			s = m(s)
		}
		return s
	}
}

// Reset returns the application start state.
func Reset() Mutation {
	return func(State) State { return State{} }
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
