package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ziadkadry99/csvstats/internal/progress"
	"github.com/ziadkadry99/csvstats/internal/records"
	"github.com/ziadkadry99/csvstats/internal/state"
	"github.com/ziadkadry99/csvstats/internal/stats"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Padding(1, 0)
)

// calendarGlyphs renders intensity levels 0..4.
var calendarGlyphs = []string{"·", "░", "▒", "▓", "█"}

var (
	statsFrom       string
	statsTo         string
	statsMonth      int
	statsWeek       int
	statsWeekday    int
	statsHour       int
	statsDays       []string
	statsCalendar   int
	statsTimeColumn string
)

var statsCmd = &cobra.Command{
	Use:   "stats <file.csv>",
	Short: "Summarize a CSV file in the terminal",
	Long: `Parses a CSV file the way the server does, applies the given filters
and prints the statistics view. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts := parseOptions(cfg)
		if statsTimeColumn != "" {
			opts.TimeColumn = statsTimeColumn
		}

		filters, err := filtersFromFlags(cmd)
		if err != nil {
			return err
		}

		name := args[0]
		ds, err := readDataset(name, opts)
		if err != nil {
			return err
		}

		store := state.NewStore()
		store.LoadFile(filepath.Base(name), ds)
		store.SetFilters(filters)

		out := cmd.OutOrStdout()
		renderSummary(out, store.State())
		if cmd.Flags().Changed("calendar") {
			renderCalendar(out, stats.BuildCalendar(store.FilteredData(), statsCalendar))
		}
		return nil
	},
}

func init() {
	f := statsCmd.Flags()
	f.StringVar(&statsFrom, "from", "", "first day to include (YYYY-MM-DD)")
	f.StringVar(&statsTo, "to", "", "last day to include (YYYY-MM-DD)")
	f.IntVar(&statsMonth, "month", 0, "month to include (1-12)")
	f.IntVar(&statsWeek, "week", 0, "ISO week to include (1-53)")
	f.IntVar(&statsWeekday, "weekday", 0, "weekday to include (0=Sunday .. 6=Saturday)")
	f.IntVar(&statsHour, "hour", 0, "hour of day to include (0-23)")
	f.StringSliceVar(&statsDays, "day", nil, "calendar days to include (YYYY-MM-DD, repeatable)")
	f.IntVar(&statsCalendar, "calendar", 0, "also print the calendar for YEAR")
	f.StringVar(&statsTimeColumn, "time-column", "", "timestamp column (overrides config)")
	rootCmd.AddCommand(statsCmd)
}

// filtersFromFlags turns the filter flags that were set into Filters.
func filtersFromFlags(cmd *cobra.Command) (stats.Filters, error) {
	var f stats.Filters
	flags := cmd.Flags()

	parseDay := func(flag, raw string) (*stats.Date, error) {
		d, err := stats.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", flag, err)
		}
		return &d, nil
	}

	var err error
	if flags.Changed("from") {
		if f.DateFrom, err = parseDay("from", statsFrom); err != nil {
			return f, err
		}
	}
	if flags.Changed("to") {
		if f.DateTo, err = parseDay("to", statsTo); err != nil {
			return f, err
		}
	}
	if flags.Changed("month") {
		f.Month = stats.Int(statsMonth)
	}
	if flags.Changed("week") {
		f.Week = stats.Int(statsWeek)
	}
	if flags.Changed("weekday") {
		f.Weekday = stats.Int(statsWeekday)
	}
	if flags.Changed("hour") {
		f.Hour = stats.Int(statsHour)
	}
	for _, raw := range statsDays {
		d, err := parseDay("day", raw)
		if err != nil {
			return f, err
		}
		f.Days = append(f.Days, *d)
	}
	return f, f.Validate()
}

// readDataset parses name, or stdin for "-", with a progress bar.
func readDataset(name string, opts records.Options) (*records.Dataset, error) {
	var (
		in    io.Reader = os.Stdin
		total int64     = -1
	)
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		defer f.Close()
		if info, err := f.Stat(); err == nil {
			total = info.Size()
		}
		in = f
	}

	rep := progress.NewReporter()
	rep.Start(total, "Reading "+filepath.Base(name))
	ds, err := records.Parse(progress.NewReader(in, rep), opts)
	rep.Finish()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return ds, nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Headers(headers...)
}

// renderSummary prints the statistics view for st.
func renderSummary(w io.Writer, st state.State) {
	p := message.NewPrinter(language.English)
	title := cases.Title(language.English)

	fmt.Fprintln(w, titleStyle.Render("Statistics: "+st.File.Name))
	if !st.Filters.IsZero() {
		fmt.Fprintln(w, metaStyle.Render("Filters: "+describeFilters(st.Filters)))
	}

	s := stats.Summarize(st.FilteredData)
	if s.Total == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No records match the current filters."))
		return
	}

	overview := newTable("Metric", "Value").
		Row("Records", p.Sprintf("%d", s.Total)).
		Row("Records in file", p.Sprintf("%d", st.File.Data.Len())).
		Row("Skipped rows", p.Sprintf("%d", st.File.Data.Skipped)).
		Row("First", s.First.Format(time.DateTime)).
		Row("Last", s.Last.Format(time.DateTime)).
		Row("Active days", p.Sprintf("%d", s.ActiveDays)).
		Row("Average per day", p.Sprintf("%.2f", s.AveragePerDay))
	if s.Busiest != nil {
		overview.Row("Busiest day", p.Sprintf("%s (%d)", s.Busiest.Date, s.Busiest.Count))
	}
	fmt.Fprintln(w, overview.String())

	weekdays := newTable(title.String("weekday"), "Records")
	for i, n := range s.ByWeekday {
		weekdays.Row(time.Weekday(i).String(), p.Sprintf("%d", n))
	}
	months := newTable(title.String("month"), "Records")
	for i, n := range s.ByMonth {
		months.Row(time.Month(i+1).String(), p.Sprintf("%d", n))
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, weekdays.String(), " ", months.String()))

	hours := newTable(title.String("hour"), "Records")
	for h, n := range s.ByHour {
		if n > 0 {
			hours.Row(fmt.Sprintf("%02d:00", h), p.Sprintf("%d", n))
		}
	}
	fmt.Fprintln(w, hours.String())
}

// renderCalendar prints one line per month with a glyph per day.
func renderCalendar(w io.Writer, cal stats.Calendar) {
	p := message.NewPrinter(language.English)
	fmt.Fprintln(w, titleStyle.Render(p.Sprintf("Calendar %d: %d records", cal.Year, cal.Total)))

	t := newTable("Month", "Days", "Records")
	for _, m := range cal.Months {
		var days strings.Builder
		for _, d := range m.Days {
			days.WriteString(calendarGlyphs[d.Level])
		}
		t.Row(m.Name[:3], days.String(), p.Sprintf("%d", m.Total))
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, metaStyle.Render("Legend: "+strings.Join(calendarGlyphs, " ")+" (none to busiest)"))
}

func describeFilters(f stats.Filters) string {
	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, "from "+f.DateFrom.String())
	}
	if f.DateTo != nil {
		parts = append(parts, "to "+f.DateTo.String())
	}
	if f.Month != nil {
		parts = append(parts, "month "+time.Month(*f.Month).String())
	}
	if f.Week != nil {
		parts = append(parts, "week "+strconv.Itoa(*f.Week))
	}
	if f.Weekday != nil {
		parts = append(parts, "weekday "+time.Weekday(*f.Weekday).String())
	}
	if f.Hour != nil {
		parts = append(parts, fmt.Sprintf("hour %02d", *f.Hour))
	}
	if len(f.Days) > 0 {
		days := make([]string, len(f.Days))
		for i, d := range f.Days {
			days[i] = d.String()
		}
		parts = append(parts, "days "+strings.Join(days, ", "))
	}
	return strings.Join(parts, ", ")
}
