package stats

import (
	"time"

	"github.com/ziadkadry99/csvstats/internal/records"
)

// DayCount is the number of records on one calendar day.
type DayCount struct {
	Date  Date `json:"date"`
	Count int  `json:"count"`
}

// Summary holds the aggregate numbers behind the statistics view.
type Summary struct {
	Total         int         `json:"total"`
	First         *time.Time  `json:"first,omitempty"`
	Last          *time.Time  `json:"last,omitempty"`
	ActiveDays    int         `json:"active_days"`
	AveragePerDay float64     `json:"average_per_day"`
	ByMonth       [12]int     `json:"by_month"`   // index 0 = January
	ByWeekday     [7]int      `json:"by_weekday"` // index 0 = Sunday
	ByHour        [24]int     `json:"by_hour"`
	ByWeek        map[int]int `json:"by_week"` // ISO week number -> count
	Busiest       *DayCount   `json:"busiest,omitempty"`
}

// Summarize aggregates recs. An empty input yields a zero Summary with an
// empty ByWeek map.
func Summarize(recs []records.Record) Summary {
	s := Summary{ByWeek: make(map[int]int)}
	if len(recs) == 0 {
		return s
	}

	perDay := make(map[Date]int)
	first, last := recs[0].Time, recs[0].Time
	for _, r := range recs {
		t := r.Time
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
		s.ByMonth[t.Month()-1]++
		s.ByWeekday[t.Weekday()]++
		s.ByHour[t.Hour()]++
		_, week := t.ISOWeek()
		s.ByWeek[week]++
		perDay[DateOf(t)]++
	}

	s.Total = len(recs)
	s.First = &first
	s.Last = &last
	s.ActiveDays = len(perDay)
	s.AveragePerDay = float64(s.Total) / float64(s.ActiveDays)

	var busiest DayCount
	for d, n := range perDay {
		// Ties go to the earliest day so the result is deterministic.
		if n > busiest.Count || (n == busiest.Count && d.Before(busiest.Date)) {
			busiest = DayCount{Date: d, Count: n}
		}
	}
	s.Busiest = &busiest
	return s
}

// CountByDay returns per-day record counts.
func CountByDay(recs []records.Record) map[Date]int {
	out := make(map[Date]int)
	for _, r := range recs {
		out[DateOf(r.Time)]++
	}
	return out
}
