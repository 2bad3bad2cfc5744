package records

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// Parse reads CSV input and returns its rows as time-stamped records.
// The first row is the header. Rows whose time cell cannot be parsed are
// skipped and counted in Dataset.Skipped.
func Parse(r io.Reader, opts Options) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmpty
	}

	layouts := opts.Layouts
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	ds := &Dataset{Header: header}
	ds.TimeColumn = detectTimeColumn(header, rows[1:], opts.TimeColumn, layouts, loc)
	if ds.TimeColumn < 0 {
		return nil, ErrNoTimeColumn
	}

	ds.Records = make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if ds.TimeColumn >= len(row) {
			ds.Skipped++
			continue
		}
		ts, ok := ParseTime(row[ds.TimeColumn], layouts, loc)
		if !ok {
			ds.Skipped++
			continue
		}
		ds.Records = append(ds.Records, Record{Index: i, Time: ts, Values: row})
	}
	if len(ds.Records) == 0 {
		return nil, ErrNoRecords
	}
	return ds, nil
}

// ParseTime tries each layout in order and reports whether one matched.
func ParseTime(raw string, layouts []string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// detectTimeColumn picks the column holding record timestamps.
func detectTimeColumn(header []string, rows [][]string, want string, layouts []string, loc *time.Location) int {
	if want != "" {
		for i, h := range header {
			if strings.EqualFold(h, strings.TrimSpace(want)) {
				return i
			}
		}
		return -1
	}

	for _, name := range timeHeaders {
		for i, h := range header {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}

	// No well-known header; fall back to the first column whose first
	// non-empty value looks like a timestamp.
	for i := range header {
		for _, row := range rows {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			if _, ok := ParseTime(row[i], layouts, loc); ok {
				return i
			}
			break
		}
	}
	return -1
}

// sniffDelimiter guesses the field separator from the header line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
