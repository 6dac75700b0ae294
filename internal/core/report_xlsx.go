package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	reportSheet    = "Report"
	minFirstColumn = 30
	maxFirstColumn = 50
	valueColumn    = 15
)

type xlsxStyles struct {
	header   int
	cell     int
	duration int
	total    int
	totalDur int
}

func thinBorder() []excelize.Border {
	var b []excelize.Border
	for _, side := range []string{"left", "top", "right", "bottom"} {
		b = append(b, excelize.Border{Type: side, Color: "000000", Style: 1})
	}
	return b
}

func newXLSXStyles(f *excelize.File, format DurationFormat) (xlsxStyles, error) {
	numFmt := "0.00"
	if format == FormatHours {
		numFmt = "[h]:mm"
	}

	defs := []*excelize.Style{
		{
			Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
			Border: thinBorder(),
		},
		{Border: thinBorder()},
		{Border: thinBorder(), CustomNumFmt: &numFmt},
		{
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}},
			Border: thinBorder(),
		},
		{
			Font:         &excelize.Font{Bold: true},
			Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}},
			Border:       thinBorder(),
			CustomNumFmt: &numFmt,
		},
	}

	ids := make([]int, len(defs))
	for i, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return xlsxStyles{}, err
		}
		ids[i] = id
	}
	return xlsxStyles{header: ids[0], cell: ids[1], duration: ids[2], total: ids[3], totalDur: ids[4]}, nil
}

// sheetWriter writes cells row by row and tracks the widest first-column
// text for sizing.
type sheetWriter struct {
	f     *excelize.File
	row   int
	width int
	err   error
}

func (sw *sheetWriter) text(col int, value string, style int) {
	if sw.err != nil {
		return
	}
	value = SanitizeCell(value)
	cell, err := excelize.CoordinatesToCellName(col, sw.row)
	if err == nil {
		err = sw.f.SetCellStr(reportSheet, cell, value)
	}
	if err == nil {
		err = sw.f.SetCellStyle(reportSheet, cell, cell, style)
	}
	if col == 1 && len(value) > sw.width {
		sw.width = len(value)
	}
	sw.err = err
}

func (sw *sheetWriter) number(col int, value float64, style int) {
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, sw.row)
	if err == nil {
		err = sw.f.SetCellFloat(reportSheet, cell, value, -1, 64)
	}
	if err == nil {
		err = sw.f.SetCellStyle(reportSheet, cell, cell, style)
	}
	sw.err = err
}

func (sw *sheetWriter) next(n int) { sw.row += n }

// WriteXLSX writes the report as a single-sheet workbook. Durations are
// numeric cells formatted "0.00" (decimal) or "[h]:mm" (hours); each user
// block ends in a highlighted TOTAL row.
func (r *Report) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	st, err := newXLSXStyles(f, r.Format)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	sw := &sheetWriter{f: f, row: 1}
	title := "Timesheet Report: " + r.Schema.Name
	if r.PreparedBy != "" {
		title = "Name: " + r.PreparedBy
	}
	sw.text(1, title, st.header)
	sw.next(1)
	sw.text(1, "Projects: "+strings.Join(r.Projects, ", "), st.cell)
	sw.next(1)
	sw.text(1, "Customers: "+strings.Join(r.Customers, ", "), st.cell)
	sw.next(1)
	sw.text(1, "Period: "+r.Period, st.cell)
	sw.next(2)

	for _, section := range r.Sections {
		sw.text(1, "User: "+section.User, st.header)
		sw.next(1)
		for i, col := range r.Schema.Columns {
			sw.text(i+1, col, st.header)
		}
		sw.next(1)

		for _, line := range section.Lines {
			cells := r.lineCells(line)
			for i, col := range r.Schema.Columns {
				if col == ColTotal || col == ColDuration {
					sw.number(i+1, r.Format.Value(line.Seconds, line.Centihours), st.duration)
					continue
				}
				sw.text(i+1, cells[i], st.cell)
			}
			sw.next(1)
		}

		sw.text(1, "TOTAL", st.total)
		sw.number(r.durationColumn(), r.Format.Value(section.TotalSeconds, section.TotalCentihours), st.totalDur)
		sw.next(2)
	}
	if sw.err != nil {
		return fmt.Errorf("write report: %w", sw.err)
	}

	first := minFirstColumn
	if sw.width > first {
		first = min(sw.width+2, maxFirstColumn)
	}
	if err := f.SetColWidth(reportSheet, "A", "A", float64(first)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if n := len(r.Schema.Columns); n > 1 {
		last, err := excelize.ColumnNumberToName(n)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if err := f.SetColWidth(reportSheet, "B", last, valueColumn); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// durationColumn is the 1-based column holding durations, or the second
// column when the layout has none.
func (r *Report) durationColumn() int {
	for i, col := range r.Schema.Columns {
		if col == ColTotal || col == ColDuration {
			return i + 1
		}
	}
	return 2
}
