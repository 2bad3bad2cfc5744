package stats

import (
	"sort"
	"time"

	"github.com/ziadkadry99/csvstats/internal/records"
)

// maxLevel is the highest intensity level of a calendar day.
const maxLevel = 4

// CalendarDay is one cell of the calendar view.
type CalendarDay struct {
	Date    Date `json:"date"`
	Weekday int  `json:"weekday"` // 0 = Sunday
	Count   int  `json:"count"`
	Level   int  `json:"level"` // 0..4 relative to the busiest day of the year
}

// CalendarMonth holds the days of one month.
type CalendarMonth struct {
	Month int           `json:"month"`
	Name  string        `json:"name"`
	Total int           `json:"total"`
	Days  []CalendarDay `json:"days"`
}

// Calendar is a year of per-day counts.
type Calendar struct {
	Year   int             `json:"year"`
	Total  int             `json:"total"`
	Max    int             `json:"max"`
	Months []CalendarMonth `json:"months"`
}

// BuildCalendar lays out per-day record counts for year. Records outside
// the year are ignored.
func BuildCalendar(recs []records.Record, year int) Calendar {
	counts := make(map[Date]int)
	for _, r := range recs {
		if r.Time.Year() != year {
			continue
		}
		counts[DateOf(r.Time)]++
	}

	cal := Calendar{Year: year, Months: make([]CalendarMonth, 0, 12)}
	for _, n := range counts {
		cal.Total += n
		if n > cal.Max {
			cal.Max = n
		}
	}

	for m := time.January; m <= time.December; m++ {
		month := CalendarMonth{Month: int(m), Name: m.String()}
		first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		for d := first; d.Month() == m; d = d.AddDate(0, 0, 1) {
			day := DateOf(d)
			n := counts[day]
			month.Total += n
			month.Days = append(month.Days, CalendarDay{
				Date:    day,
				Weekday: int(d.Weekday()),
				Count:   n,
				Level:   level(n, cal.Max),
			})
		}
		cal.Months = append(cal.Months, month)
	}
	return cal
}

// level maps a count onto 0..maxLevel, rounding up so any activity is visible.
func level(n, max int) int {
	if n <= 0 || max <= 0 {
		return 0
	}
	return (n*maxLevel + max - 1) / max
}

// Years returns the distinct years present in recs, ascending.
func Years(recs []records.Record) []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range recs {
		y := r.Time.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}
