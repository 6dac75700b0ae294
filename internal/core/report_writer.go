package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// formulaPrefixes start a cell that spreadsheet applications evaluate.
const formulaPrefixes = "=+-@"

// SanitizeCell neutralises spreadsheet formula injection by prefixing a
// single quote to cells that start with a formula character.
func SanitizeCell(s string) string {
	if s != "" && strings.ContainsRune(formulaPrefixes, rune(s[0])) {
		return "'" + s
	}
	return s
}

// Records returns the report as CSV records: a header block, then one block
// per user ending in a TOTAL line.
func (r *Report) Records() [][]string {
	width := len(r.Schema.Columns)
	if width < 2 {
		width = 2
	}
	pad := func(cells ...string) []string {
		row := make([]string, width)
		copy(row, cells)
		return row
	}

	var out [][]string
	out = append(out,
		pad("Timesheet Report", r.Schema.Name),
		pad("Period", r.Period),
		pad("Projects", strings.Join(r.Projects, ", ")),
		pad("Customers", strings.Join(r.Customers, ", ")),
	)
	if r.PreparedBy != "" {
		out = append(out, pad("Name", r.PreparedBy))
	}
	out = append(out, pad())

	for _, section := range r.Sections {
		out = append(out, pad("User", section.User))
		out = append(out, append([]string(nil), r.Schema.Columns...))
		for _, line := range section.Lines {
			out = append(out, r.lineCells(line))
		}
		out = append(out, pad("TOTAL", r.Format.Format(section.TotalSeconds, section.TotalCentihours)))
		out = append(out, pad())
	}

	return out
}

func (r *Report) lineCells(line ReportLine) []string {
	cells := make([]string, 0, len(r.Schema.Columns))
	for _, col := range r.Schema.Columns {
		switch col {
		case ColDay:
			cells = append(cells, line.Day)
		case ColTotal, ColDuration:
			cells = append(cells, r.Format.Format(line.Seconds, line.Centihours))
		case ColProject:
			cells = append(cells, line.Project)
		case ColProjects:
			cells = append(cells, strings.Join(line.Projects, ", "))
		case ColDescription, ColDescriptions:
			cells = append(cells, strings.Join(line.Descriptions, "; "))
		case ColBillable:
			cells = append(cells, line.Billable)
		default:
			cells = append(cells, "")
		}
	}
	return cells
}

// Write writes the report in its selected output type.
func (r *Report) Write(w io.Writer) error {
	if r.output() == OutputCSV {
		return r.WriteCSV(w)
	}
	return r.WriteXLSX(w)
}

// WriteCSV writes the report to w with every cell sanitised. Durations are
// text in the selected format.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, rec := range r.Records() {
		clean := make([]string, len(rec))
		for i, cell := range rec {
			clean[i] = SanitizeCell(cell)
		}
		if err := cw.Write(clean); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
