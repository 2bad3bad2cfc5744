package state

import (
	"log"
	"sync"

	"github.com/ziadkadry99/csvstats/internal/records"
	"github.com/ziadkadry99/csvstats/internal/stats"
)

// Store holds the State of one session and notifies subscribers on change.
//
// Subscribers are called in commit order. They must not commit to the same
// store.
type Store struct {
	notifyMu sync.Mutex // held from apply until every subscriber returned
	mu       sync.RWMutex
	state    State
	subs     map[int]func(State)
	nextID   int

	id      string
	verbose bool
}

// NewStore returns a Store holding the application start state.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(State))}
}

// Commit applies m and notifies subscribers with the new state.
func (s *Store) Commit(m Mutation) {
	s.CommitIf(m, nil)
}

// CommitIf applies m and stores the result only if check accepts it. The
// apply, the check and the store happen under one lock, so check sees the
// state that is actually committed. A nil check accepts everything.
func (s *Store) CommitIf(m Mutation, check func(State) error) (State, error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := m(s.state)
	if check != nil {
		if err := check(next); err != nil {
			cur := s.state
			s.mu.Unlock()
			return cur, err
		}
	}
	s.state = next
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if s.verbose {
		log.Printf("state[%s]: commit file=%q records=%d filtered=%d spinner=%t",
			s.id, next.File.Name, next.File.Data.Len(), len(next.FilteredData), next.SpinnerStatus)
	}
	for _, fn := range subs {
		fn(next)
	}
	return next, nil
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to be called after every commit. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// subscribers returns the number of active subscriptions.
func (s *Store) subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Getters

func (s *Store) FileName() string { return s.State().File.Name }
func (s *Store) FileData() *records.Dataset { return s.State().File.Data }
func (s *Store) FilterDateFrom() *stats.Date { return clone(s.State().Filters.DateFrom) }
func (s *Store) FilterDateTo() *stats.Date { return clone(s.State().Filters.DateTo) }
func (s *Store) FilterMonth() *int { return clone(s.State().Filters.Month) }
func (s *Store) FilterWeek() *int { return clone(s.State().Filters.Week) }
func (s *Store) FilterWeekday() *int { return clone(s.State().Filters.Weekday) }
func (s *Store) FilterHour() *int { return clone(s.State().Filters.Hour) }
func (s *Store) FilterDays() []stats.Date { return s.State().Filters.Clone().Days }
func (s *Store) Filters() stats.Filters { return s.State().Filters.Clone() }
func (s *Store) FilteredData() []records.Record { return s.State().FilteredData }
func (s *Store) SpinnerStatus() bool { return s.State().SpinnerStatus }

// Setters

func (s *Store) SetFileName(v string) { s.Commit(SetFileName(v)) }
func (s *Store) SetFileData(v *records.Dataset) { s.Commit(SetFileData(v)) }
func (s *Store) SetFilterDateFrom(v *stats.Date) { s.Commit(SetFilterDateFrom(v)) }
func (s *Store) SetFilterDateTo(v *stats.Date) { s.Commit(SetFilterDateTo(v)) }
func (s *Store) SetFilterMonth(v *int) { s.Commit(SetFilterMonth(v)) }
func (s *Store) SetFilterWeek(v *int) { s.Commit(SetFilterWeek(v)) }
func (s *Store) SetFilterWeekday(v *int) { s.Commit(SetFilterWeekday(v)) }
func (s *Store) SetFilterHour(v *int) { s.Commit(SetFilterHour(v)) }
func (s *Store) SetFilterDays(v []stats.Date) { s.Commit(SetFilterDays(v)) }
func (s *Store) SetFilters(v stats.Filters) { s.Commit(SetFilters(v)) }
func (s *Store) SetFilteredData(v []records.Record) { s.Commit(SetFilteredData(v)) }
func (s *Store) SetSpinnerStatus(v bool) { s.Commit(SetSpinnerStatus(v)) }

// ShowSpinner sets the loading flag. Called without an argument it turns
// the spinner on; ShowSpinner(false) turns it off.
func (s *Store) ShowSpinner(show ...bool) {
	v := true
	if len(show) > 0 {
		v = show[0]
	}
	s.SetSpinnerStatus(v)
}

// LoadFile sets the file name and data in a single commit.
func (s *Store) LoadFile(name string, data *records.Dataset) {
	s.Commit(Batch(SetFileName(name), SetFileData(data)))
}

// Reset restores the application start state.
func (s *Store) Reset() { s.Commit(Reset()) }
