package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/csvstats/internal/records"
	"github.com/ziadkadry99/csvstats/internal/stats"
)

func testDataset() *records.Dataset {
	mk := func(i int, s string) records.Record {
		t, _ := time.Parse("2006-01-02 15:04", s)
		return records.Record{Index: i, Time: t, Values: []string{s}}
	}
	return &records.Dataset{
		Header:     []string{"date"},
		TimeColumn: 0,
		Records: []records.Record{
			mk(0, "2024-01-15 08:00"),
			mk(1, "2024-02-20 12:00"),
			mk(2, "2024-02-21 08:00"),
		},
	}
}

func TestInitialState(t *testing.T) {
	s := NewStore()
	if s.FileName() != "" || s.FileData() != nil {
		t.Error("expected no file at start")
	}
	if s.SpinnerStatus() {
		t.Error("expected spinner off at start")
	}
	if len(s.FilteredData()) != 0 {
		t.Error("expected empty filtered data at start")
	}
	if s.FilterMonth() != nil || s.FilterDateFrom() != nil {
		t.Error("expected filters unset at start")
	}
}

func TestSetFileDataThenGet(t *testing.T) {
	s := NewStore()
	ds := testDataset()

	s.SetFileData(ds)
	if s.FileData() != ds {
		t.Error("FileData did not return the value passed to SetFileData")
	}
	if len(s.FilteredData()) != 3 {
		t.Errorf("expected filtered data recomputed to 3 records, got %d", len(s.FilteredData()))
	}

	s.SetFileName("visits.csv")
	if s.FileName() != "visits.csv" {
		t.Errorf("expected file name visits.csv, got %q", s.FileName())
	}
}

func TestShowSpinner(t *testing.T) {
	s := NewStore()

	s.ShowSpinner()
	if !s.SpinnerStatus() {
		t.Error("ShowSpinner() should turn the spinner on")
	}
	s.ShowSpinner(false)
	if s.SpinnerStatus() {
		t.Error("ShowSpinner(false) should turn the spinner off")
	}
	s.ShowSpinner(true)
	if !s.SpinnerStatus() {
		t.Error("ShowSpinner(true) should turn the spinner on")
	}
}

func TestFilterChangesRecompute(t *testing.T) {
	s := NewStore()
	s.SetFileData(testDataset())

	s.SetFilterMonth(stats.Int(2))
	if got := len(s.FilteredData()); got != 2 {
		t.Fatalf("month filter: expected 2, got %d", got)
	}

	s.SetFilterHour(stats.Int(8))
	if got := len(s.FilteredData()); got != 1 {
		t.Fatalf("month+hour filter: expected 1, got %d", got)
	}

	s.SetFilterMonth(nil)
	if got := len(s.FilteredData()); got != 2 {
		t.Fatalf("hour filter: expected 2, got %d", got)
	}

	from := stats.MustParseDate("2024-02-01")
	s.SetFilterDateFrom(&from)
	if got := len(s.FilteredData()); got != 1 {
		t.Fatalf("hour+from filter: expected 1, got %d", got)
	}

	s.Commit(ClearFilters())
	if got := len(s.FilteredData()); got != 3 {
		t.Fatalf("cleared: expected 3, got %d", got)
	}
}

func TestFilterDaysAndWeekday(t *testing.T) {
	s := NewStore()
	s.SetFileData(testDataset())

	s.SetFilterDays([]stats.Date{stats.MustParseDate("2024-01-15")})
	if got := len(s.FilteredData()); got != 1 {
		t.Fatalf("days filter: expected 1, got %d", got)
	}
	s.SetFilterDays(nil)

	// 2024-02-20 is a Tuesday.
	s.SetFilterWeekday(stats.Int(2))
	if got := s.FilteredData(); len(got) != 1 || got[0].Index != 1 {
		t.Fatalf("weekday filter: unexpected %v", got)
	}

	s.SetFilterWeek(stats.Int(8))
	if got := len(s.FilteredData()); got != 1 {
		t.Fatalf("weekday+week filter: expected 1, got %d", got)
	}
}

func TestFiltersSetBeforeFile(t *testing.T) {
	s := NewStore()
	s.SetFilterMonth(stats.Int(1))
	if len(s.FilteredData()) != 0 {
		t.Error("expected no filtered data without a file")
	}
	s.SetFileData(testDataset())
	if got := len(s.FilteredData()); got != 1 {
		t.Errorf("expected pending filter to apply on load, got %d", got)
	}
}

func TestSetterCopiesInput(t *testing.T) {
	s := NewStore()
	month := 3
	s.SetFilterMonth(&month)
	month = 5
	if got := *s.FilterMonth(); got != 3 {
		t.Errorf("store aliased caller's pointer, got %d", got)
	}

	got := s.FilterMonth()
	*got = 7
	if *s.FilterMonth() != 3 {
		t.Error("getter exposed internal pointer")
	}
}

func TestTransitionsArePure(t *testing.T) {
	before := State{}
	after := SetFilters(stats.Filters{Month: stats.Int(1)})(before)
	if before.Filters.Month != nil {
		t.Error("transition mutated its input")
	}
	if after.Filters.Month == nil || *after.Filters.Month != 1 {
		t.Error("transition did not produce the new value")
	}

	loaded := SetFileData(testDataset())(after)
	if len(loaded.FilteredData) != 1 {
		t.Errorf("expected 1 filtered record, got %d", len(loaded.FilteredData))
	}
	if len(after.FilteredData) != 0 {
		t.Error("transition mutated its input's filtered data")
	}
}

func TestBatch(t *testing.T) {
	st := Batch(
		SetFileName("visits.csv"),
		SetFileData(testDataset()),
		SetFilterMonth(stats.Int(2)),
		SetFilterHour(stats.Int(8)),
	)(State{})
	if st.File.Name != "visits.csv" {
		t.Errorf("expected file name to be set, got %q", st.File.Name)
	}
	if len(st.FilteredData) != 1 || st.FilteredData[0].Index != 2 {
		t.Errorf("expected only record 2 after batch, got %+v", st.FilteredData)
	}
	if got := Batch()(st); len(got.FilteredData) != 1 {
		t.Error("empty batch changed the state")
	}
}

func TestSetFilteredDataOverride(t *testing.T) {
	s := NewStore()
	s.SetFileData(testDataset())
	s.SetFilteredData(nil)
	if len(s.FilteredData()) != 0 {
		t.Error("expected explicit override to stick")
	}
	s.SetFilterHour(nil)
	if len(s.FilteredData()) != 3 {
		t.Error("expected next filter change to recompute")
	}
}

func TestLoadFileAndReset(t *testing.T) {
	s := NewStore()
	var commits int
	s.Subscribe(func(State) { commits++ })

	s.LoadFile("a.csv", testDataset())
	if commits != 1 {
		t.Errorf("expected a single commit, got %d", commits)
	}
	if !s.State().HasFileData() || s.FileName() != "a.csv" {
		t.Error("LoadFile did not set name and data")
	}

	s.Reset()
	if s.State().HasFileData() || s.FileName() != "" {
		t.Error("Reset did not clear the file")
	}
}

func TestSubscribe(t *testing.T) {
	s := NewStore()
	var mu sync.Mutex
	var seen []bool
	cancel := s.Subscribe(func(st State) {
		mu.Lock()
		seen = append(seen, st.SpinnerStatus)
		mu.Unlock()
	})

	s.ShowSpinner()
	s.ShowSpinner(false)
	cancel()
	cancel()
	s.ShowSpinner()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Errorf("unexpected notifications %v", seen)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	id, store := r.Create()
	if id == "" || store == nil {
		t.Fatal("expected a session")
	}
	got, ok := r.Get(id)
	if !ok || got != store {
		t.Fatal("expected Get to return the created store")
	}
	if _, ok := r.Get("unknown"); ok {
		t.Error("expected unknown id to miss")
	}

	other, _ := r.Create()
	if r.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", r.Len())
	}

	now = now.Add(45 * time.Second)
	r.Get(id)

	if n := r.Sweep(now.Add(30 * time.Second)); n != 1 {
		t.Errorf("expected 1 expired session, got %d", n)
	}
	if _, ok := r.Get(other); ok {
		t.Error("expected idle session to be gone")
	}
	if _, ok := r.Get(id); !ok {
		t.Error("expected active session to survive")
	}

	r.Delete(id)
	if r.Len() != 0 {
		t.Errorf("expected 0 sessions, got %d", r.Len())
	}
}

func TestCommitIf(t *testing.T) {
	s := NewStore()
	from := stats.MustParseDate("2024-03-10")
	to := stats.MustParseDate("2024-03-01")
	valid := func(st State) error { return st.Filters.Validate() }

	if _, err := s.CommitIf(SetFilterDateFrom(&from), valid); err != nil {
		t.Fatalf("date_from alone: %v", err)
	}

	notified := 0
	cancel := s.Subscribe(func(State) { notified++ })
	defer cancel()

	got, err := s.CommitIf(SetFilterDateTo(&to), valid)
	if err == nil {
		t.Fatal("expected date_to before date_from to be rejected")
	}
	if s.FilterDateTo() != nil {
		t.Error("rejected mutation was stored")
	}
	if got.Filters.DateFrom == nil || *got.Filters.DateFrom != from {
		t.Errorf("expected current state back, got %+v", got.Filters)
	}
	if notified != 0 {
		t.Errorf("expected no notification for a rejected commit, got %d", notified)
	}

	sentinel := errors.New("nope")
	if _, err := s.CommitIf(SetSpinnerStatus(true), func(State) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("expected check error, got %v", err)
	}
}

func TestConcurrentCommitIfKeepsFiltersValid(t *testing.T) {
	from := stats.MustParseDate("2024-03-10")
	to := stats.MustParseDate("2024-03-01")
	valid := func(st State) error { return st.Filters.Validate() }

	for i := 0; i < 200; i++ {
		s := NewStore()
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); s.CommitIf(SetFilterDateFrom(&from), valid) }()
		go func() { defer wg.Done(); s.CommitIf(SetFilterDateTo(&to), valid) }()
		wg.Wait()

		if err := s.Filters().Validate(); err != nil {
			t.Fatalf("stored invalid filters: %v", err)
		}
	}
}

func TestNotificationsFollowCommitOrder(t *testing.T) {
	s := NewStore()
	var (
		mu   sync.Mutex
		seen []int
	)
	cancel := s.Subscribe(func(st State) {
		mu.Lock()
		seen = append(seen, len(st.File.Name))
		mu.Unlock()
	})
	defer cancel()

	grow := func(st State) State {
		st.File.Name += "x"
		return st
	}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Commit(grow)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 50 {
		t.Fatalf("expected 50 notifications, got %d", len(seen))
	}
	for i, n := range seen {
		if n != i+1 {
			t.Fatalf("notification %d carried commit %d: %v", i, n, seen)
		}
	}
}

func TestSweepKeepsSubscribedSessions(t *testing.T) {
	r := NewRegistry(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	id, store := r.Create()
	cancel := store.Subscribe(func(State) {})

	if n := r.Sweep(now.Add(time.Hour)); n != 0 {
		t.Errorf("expected subscribed session to survive, %d removed", n)
	}
	if _, ok := r.Get(id); !ok {
		t.Fatal("expected subscribed session to exist")
	}

	cancel()
	if n := r.Sweep(now.Add(3 * time.Hour)); n != 1 {
		t.Errorf("expected session to expire after unsubscribe, %d removed", n)
	}
}

func TestRegistryRunStops(t *testing.T) {
	r := NewRegistry(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
