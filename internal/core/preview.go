package core

import "fmt"

// DefaultMaxPreviewRows is the number of rows shown when no limit is configured.
const DefaultMaxPreviewRows = 15

// PreviewState discriminates the mutually exclusive preview outcomes.
type PreviewState int

const (
	PreviewNoData PreviewState = iota
	PreviewEmptyColumns
	PreviewNoRowsMatch
	PreviewRendered
)

var previewStateNames = map[PreviewState]string{
	PreviewNoData:       "no_data",
	PreviewEmptyColumns: "empty_columns",
	PreviewNoRowsMatch:  "no_rows_match",
	PreviewRendered:     "rendered",
}

// String returns the wire name of the state.
func (s PreviewState) String() string {
	if n, ok := previewStateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// MarshalText encodes the state by name in JSON responses.
func (s PreviewState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Placeholder messages shown instead of a table.
const (
	msgNoData      = "No data to preview"
	msgNoColumns   = "Please select at least one column"
	msgNoRowsMatch = "No data matches the selected filters"
)

// RenderedPreview is the display structure handed to a frontend.
// Values are raw; frontends that produce markup must escape them.
type RenderedPreview struct {
	State         PreviewState `json:"state"`
	Header        []string     `json:"header,omitempty"`
	Rows          [][]string   `json:"rows,omitempty"`
	ShownCount    int          `json:"shownCount"`
	FilteredCount int          `json:"filteredCount"`
	TotalCount    int          `json:"totalCount"`
}

// Message returns the placeholder text for non-table states.
func (p RenderedPreview) Message() string {
	switch p.State {
	case PreviewEmptyColumns:
		return msgNoColumns
	case PreviewNoRowsMatch:
		return msgNoRowsMatch
	case PreviewNoData:
		return msgNoData
	default:
		return ""
	}
}

// Summary returns the counts line shown under a rendered table.
func (p RenderedPreview) Summary() string {
	return fmt.Sprintf("Showing %d of %d filtered rows (%d total)",
		p.ShownCount, p.FilteredCount, p.TotalCount)
}

// NoDataPreview is the placeholder used before a file is loaded.
func NoDataPreview() RenderedPreview {
	return RenderedPreview{State: PreviewNoData}
}

// RenderPreview builds the preview for a filter result.
//
// States are checked in priority order: no active columns, no matching
// rows, then the table itself. The body is the first maxRows rows of
// rows (a prefix, never a sample); cells missing from a row render as "".
// A non-positive maxRows falls back to DefaultMaxPreviewRows.
func RenderPreview(rows []Row, activeColumns []string, maxRows, totalRows int) RenderedPreview {
	if maxRows <= 0 {
		maxRows = DefaultMaxPreviewRows
	}

	if len(activeColumns) == 0 {
		return RenderedPreview{State: PreviewEmptyColumns, TotalCount: totalRows}
	}

	if len(rows) == 0 {
		return RenderedPreview{State: PreviewNoRowsMatch, TotalCount: totalRows}
	}

	shown := len(rows)
	if shown > maxRows {
		shown = maxRows
	}

	header := append([]string(nil), activeColumns...)
	body := make([][]string, shown)
	for i := 0; i < shown; i++ {
		cells := make([]string, len(header))
		for j, col := range header {
			cells[j] = rows[i].Value(col)
		}
		body[i] = cells
	}

	return RenderedPreview{
		State:         PreviewRendered,
		Header:        header,
		Rows:          body,
		ShownCount:    shown,
		FilteredCount: len(rows),
		TotalCount:    totalRows,
	}
}

// Render runs the renderer over a FilteredView.
func (v FilteredView) Render(maxRows, totalRows int) RenderedPreview {
	if v.NoColumns {
		return RenderPreview(nil, nil, maxRows, totalRows)
	}
	return RenderPreview(v.Rows, v.Columns, maxRows, totalRows)
}
