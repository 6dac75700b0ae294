package core

// report.go turns a filtered timesheet into per-user daily totals.
//
// Entries are filtered exactly like the preview (column choices do not
// matter). Each entry's "HH:MM:SS" duration is rounded to the nearest minute
// (ties to even) before it is summed. Decimal output sums each entry's hours
// already rounded to two places, so three one-minute entries total 0.06.
// Start dates use the DD/MM/YYYY layout; entries whose date cannot be parsed
// are reported on an "Unknown" line.

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Timesheet column names the report depends on.
const (
	colStartDate   = "Start Date"
	colDurationH   = "Duration (h)"
	colDescription = "Description"
	colBillable    = "Billable"
)

// RequiredReportColumns must all be present in the file.
var RequiredReportColumns = []string{"Project", "Client", "User", colStartDate, colDurationH}

// ErrMissingColumns is returned when the file lacks required report columns.
var ErrMissingColumns = errors.New("missing required columns")

// ErrPeriodTooLong is returned when a day-by-day report would span more
// days than allowed.
var ErrPeriodTooLong = errors.New("report period too long")

// DefaultMaxReportDays bounds the zero-filled day lines of one section.
const DefaultMaxReportDays = 1830

const (
	startDateLayout = "2/1/2006"
	unknownDay      = "Unknown"
	allDataPeriod   = "All Data"
)

// DurationFormat selects how durations are written.
type DurationFormat string

const (
	FormatDecimal DurationFormat = "decimal" // hours, two decimals
	FormatHours   DurationFormat = "hours"   // H:MM
)

// ParseDurationFormat maps a form value to a format; anything but "hours"
// is decimal.
func ParseDurationFormat(s string) DurationFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatHours)) {
		return FormatHours
	}
	return FormatDecimal
}

// Format renders a summed duration as text. Hours use the seconds;
// decimal uses the summed per-entry hundredths of an hour.
func (f DurationFormat) Format(seconds, centihours int) string {
	if f == FormatHours {
		minutes := seconds / 60
		return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
	}
	return strconv.FormatFloat(float64(centihours)/100, 'f', 2, 64)
}

// Value is the spreadsheet number for a summed duration: hours for decimal,
// a fraction of a day for the [h]:mm format.
func (f DurationFormat) Value(seconds, centihours int) float64 {
	if f == FormatHours {
		return float64(seconds) / 86400
	}
	return float64(centihours) / 100
}

// ReportOutput selects the file type a report is written as.
type ReportOutput string

const (
	OutputXLSX ReportOutput = "xlsx"
	OutputCSV  ReportOutput = "csv"
)

// ParseReportOutput maps a request value to an output; anything but "csv"
// is a workbook.
func ParseReportOutput(s string) ReportOutput {
	if strings.EqualFold(strings.TrimSpace(s), string(OutputCSV)) {
		return OutputCSV
	}
	return OutputXLSX
}

// ReportOptions are the user's report choices.
type ReportOptions struct {
	Schema     string
	Format     DurationFormat
	Output     ReportOutput
	PreparedBy string
	// MaxDays caps the period of day-by-day layouts; DefaultMaxReportDays
	// when <= 0.
	MaxDays int
}

// ReportLine is one output line within a user section.
type ReportLine struct {
	Day          string
	Project      string
	Projects     []string
	Descriptions []string
	Billable     string
	Seconds      int
	Centihours   int
}

// ReportSection holds one user's lines and totals.
type ReportSection struct {
	User            string
	Lines           []ReportLine
	TotalSeconds    int
	TotalCentihours int
}

func (s *ReportSection) add(line ReportLine) {
	s.Lines = append(s.Lines, line)
	s.TotalSeconds += line.Seconds
	s.TotalCentihours += line.Centihours
}

// Report is a generated timesheet report.
type Report struct {
	ID          string
	Schema      ReportSchema
	Format      DurationFormat
	Output      ReportOutput
	PreparedBy  string
	Period      string
	Projects    []string
	Customers   []string
	Sections    []ReportSection
	EntryCount  int
	TotalRows   int
	GeneratedAt time.Time
}

// FileName returns the download name for the report.
func (r *Report) FileName() string {
	return fmt.Sprintf("Report_%s.%s", r.GeneratedAt.Format("20060102_150405"), r.output())
}

// ContentType is the MIME type of the report's output.
func (r *Report) ContentType() string {
	if r.output() == OutputCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *Report) output() ReportOutput {
	if r.Output == "" {
		return OutputXLSX
	}
	return r.Output
}

type entry struct {
	user        string
	project     string
	client      string
	description string
	billable    string
	date        time.Time
	dated       bool
	seconds     int
	centihours  int
}

// MissingReportColumns lists required columns absent from columns.
func MissingReportColumns(columns []string) []string {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	var missing []string
	for _, c := range RequiredReportColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// BuildReport generates a report from the table and the category selections
// in state.
func BuildReport(ctx context.Context, model TableModel, state *FilterState, opts ReportOptions) (*Report, error) {
	schema, err := LookupSchema(opts.Schema)
	if err != nil {
		return nil, err
	}

	if missing := MissingReportColumns(model.Columns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	view := Filter(model.Table, state)

	entries := make([]entry, 0, view.Count())
	for _, row := range view.Rows {
		entries = append(entries, toEntry(row))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := opts.Format
	if format == "" {
		format = FormatDecimal
	}

	rep := &Report{
		ID:          uuid.New().String(),
		Schema:      schema,
		Format:      format,
		Output:      opts.Output,
		PreparedBy:  strings.TrimSpace(opts.PreparedBy),
		EntryCount:  len(entries),
		TotalRows:   model.TotalRows(),
		GeneratedAt: time.Now(),
	}

	rep.Projects = distinctInOrder(entries, func(e entry) string { return e.project })
	rep.Customers = distinctInOrder(entries, func(e entry) string { return e.client })

	first, last, ok := dateRange(entries)
	rep.Period = periodLabel(first, last, ok)
	var days []time.Time
	if !schema.ByProject {
		maxDays := opts.MaxDays
		if maxDays <= 0 {
			maxDays = DefaultMaxReportDays
		}
		if n := daySpan(first, last, ok); n > maxDays {
			return nil, fmt.Errorf("%w: %d days (limit %d)", ErrPeriodTooLong, n, maxDays)
		}
		days = daysBetween(first, last, ok)
	}
	sameMonth := ok && first.Year() == last.Year() && first.Month() == last.Month()

	for _, user := range distinctInOrder(entries, func(e entry) string { return e.user }) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var userEntries []entry
		for _, e := range entries {
			if e.user == user {
				userEntries = append(userEntries, e)
			}
		}

		var section ReportSection
		if schema.ByProject {
			section = projectSection(user, userEntries, sameMonth)
		} else {
			section, err = daySection(ctx, user, userEntries, days, sameMonth)
			if err != nil {
				return nil, err
			}
		}
		rep.Sections = append(rep.Sections, section)
	}

	return rep, nil
}

func toEntry(row Row) entry {
	e := entry{
		user:        strings.TrimSpace(row.Value("User")),
		project:     strings.TrimSpace(row.Value("Project")),
		client:      strings.TrimSpace(row.Value("Client")),
		description: strings.TrimSpace(row.Value(colDescription)),
		billable:    strings.TrimSpace(row.Value(colBillable)),
		seconds:     roundToMinute(parseDurationSeconds(row.Value(colDurationH))),
	}
	e.centihours = toCentihours(e.seconds)
	if e.billable == "" {
		e.billable = "No"
	}
	if t, err := time.Parse(startDateLayout, strings.TrimSpace(row.Value(colStartDate))); err == nil {
		e.date = t
		e.dated = true
	}
	return e
}

// parseDurationSeconds parses "H:M:S"; anything else counts as zero.
func parseDurationSeconds(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		vals[i] = n
	}
	return vals[0]*3600 + vals[1]*60 + vals[2]
}

func roundToMinute(seconds int) int {
	return int(math.RoundToEven(float64(seconds)/60)) * 60
}

// toCentihours is seconds as hours rounded to two places, in hundredths.
func toCentihours(seconds int) int {
	return int(math.RoundToEven(float64(seconds) / 36))
}

func distinctInOrder(entries []entry, key func(entry) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		k := key(e)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func dateRange(entries []entry) (first, last time.Time, ok bool) {
	for _, e := range entries {
		if !e.dated {
			continue
		}
		if !ok || e.date.Before(first) {
			first = e.date
		}
		if !ok || e.date.After(last) {
			last = e.date
		}
		ok = true
	}
	return first, last, ok
}

func periodLabel(first, last time.Time, ok bool) string {
	if !ok {
		return allDataPeriod
	}
	if first.Year() == last.Year() && first.Month() == last.Month() {
		return first.Format("January 2006")
	}
	return first.Format("January 2006") + " - " + last.Format("January 2006")
}

// daySpan counts calendar days from first to last inclusive. Dates are
// parsed at UTC midnight, so whole-day arithmetic on Unix seconds is exact
// across the full year range where time.Duration would overflow.
func daySpan(first, last time.Time, ok bool) int {
	if !ok {
		return 0
	}
	return int((last.Unix()-first.Unix())/86400) + 1
}

func daysBetween(first, last time.Time, ok bool) []time.Time {
	if !ok {
		return nil
	}
	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func dayLabel(t time.Time, sameMonth bool) string {
	if sameMonth {
		return t.Format("02 (Monday)")
	}
	return t.Format("02 Jan (Monday)")
}

// daySection emits one line per day in the period, zero-filled, plus an
// Unknown line when some entries have no usable date.
func daySection(ctx context.Context, user string, entries []entry, days []time.Time, sameMonth bool) (ReportSection, error) {
	section := ReportSection{User: user}

	byDay := make(map[time.Time][]entry)
	var undated []entry
	for _, e := range entries {
		if e.dated {
			byDay[e.date] = append(byDay[e.date], e)
		} else {
			undated = append(undated, e)
		}
	}

	for i, d := range days {
		if i%128 == 0 {
			if err := ctx.Err(); err != nil {
				return ReportSection{}, err
			}
		}
		line := summarize(byDay[d])
		line.Day = dayLabel(d, sameMonth)
		section.add(line)
	}

	if len(undated) > 0 {
		line := summarize(undated)
		line.Day = unknownDay
		section.add(line)
	}

	return section, nil
}

// projectSection emits one line per project and day with entries.
func projectSection(user string, entries []entry, sameMonth bool) ReportSection {
	section := ReportSection{User: user}

	for _, project := range distinctInOrder(entries, func(e entry) string { return e.project }) {
		byDay := make(map[time.Time][]entry)
		var dates []time.Time
		var undated []entry
		for _, e := range entries {
			if e.project != project {
				continue
			}
			if !e.dated {
				undated = append(undated, e)
				continue
			}
			if _, seen := byDay[e.date]; !seen {
				dates = append(dates, e.date)
			}
			byDay[e.date] = append(byDay[e.date], e)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		for _, d := range dates {
			line := summarize(byDay[d])
			line.Project = project
			line.Day = dayLabel(d, sameMonth)
			section.add(line)
		}
		if len(undated) > 0 {
			line := summarize(undated)
			line.Project = project
			line.Day = unknownDay
			section.add(line)
		}
	}

	return section
}

func summarize(entries []entry) ReportLine {
	var line ReportLine
	line.Projects = distinctInOrder(entries, func(e entry) string { return e.project })
	line.Descriptions = distinctInOrder(entries, func(e entry) string { return e.description })

	billable := distinctInOrder(entries, func(e entry) string { return e.billable })
	switch len(billable) {
	case 0:
	case 1:
		line.Billable = billable[0]
	default:
		line.Billable = "Mixed"
	}

	for _, e := range entries {
		line.Seconds += e.seconds
		line.Centihours += e.centihours
	}
	return line
}
