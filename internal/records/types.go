package records

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmpty is returned when the input has no header or no data rows.
	ErrEmpty = errors.New("csv file is empty")
	// ErrNoTimeColumn is returned when no column holds parseable timestamps.
	ErrNoTimeColumn = errors.New("no date/time column found")
	// ErrNoRecords is returned when every data row was skipped.
	ErrNoRecords = errors.New("no rows with a valid date/time")
)

// Record is one data row of an uploaded CSV file.
type Record struct {
	Index  int       `json:"index"` // 0-based data row index in the file
	Time   time.Time `json:"time"`
	Values []string  `json:"values"`
}

// Dataset is the parsed contents of an uploaded CSV file.
type Dataset struct {
	Header     []string `json:"header"`
	TimeColumn int      `json:"time_column"`
	Records    []Record `json:"records"`
	Skipped    int      `json:"skipped"` // rows dropped because their time cell did not parse
}

// Column returns the index of the named column (case-insensitive), or -1.
func (d *Dataset) Column(name string) int {
	for i, h := range d.Header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// TimeColumnName returns the header of the detected time column.
func (d *Dataset) TimeColumnName() string {
	if d.TimeColumn < 0 || d.TimeColumn >= len(d.Header) {
		return ""
	}
	return d.Header[d.TimeColumn]
}

// Len returns the number of records, treating a nil dataset as empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Bounds returns the earliest and latest record times.
// ok is false when the dataset has no records.
func (d *Dataset) Bounds() (first, last time.Time, ok bool) {
	if d.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = d.Records[0].Time, d.Records[0].Time
	for _, r := range d.Records[1:] {
		if r.Time.Before(first) {
			first = r.Time
		}
		if r.Time.After(last) {
			last = r.Time
		}
	}
	return first, last, true
}

// Options controls how CSV input is interpreted.
type Options struct {
	TimeColumn string         // explicit time column header; detected when empty
	Layouts    []string       // time layouts tried in order; DefaultLayouts when empty
	Location   *time.Location // location for layouts without a zone; time.Local when nil
}

// DefaultLayouts are the timestamp formats recognised out of the box.
var DefaultLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"Mon Jan 02 15:04:05 MST 2006",
}

// timeHeaders are header names that mark a time column, in priority order.
var timeHeaders = []string{"date", "time", "timestamp", "datetime", "created_at", "start"}
