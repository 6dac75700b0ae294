package templates

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/timesheet/internal/core"
)

// FieldOptions is one category filter: its distinct values and the current
// selection.
type FieldOptions struct {
	Field    core.CategoryField
	Values   core.DistinctValueSet
	Selected []string
}

func (f FieldOptions) isSelected(v string) bool {
	for _, s := range f.Selected {
		if s == v {
			return true
		}
	}
	return false
}

// SessionView is everything the workspace of a loaded session shows.
type SessionView struct {
	ID            string
	FileName      string
	Columns       []string
	ActiveColumns []string
	Fields        []FieldOptions
	Schemas       []core.ReportSchema
	Preview       core.RenderedPreview
}

func (v SessionView) isActive(col string) bool {
	for _, c := range v.ActiveColumns {
		if c == col {
			return true
		}
	}
	return false
}

// NewSessionView collects the view data from a session.
func NewSessionView(sess *core.Session) SessionView {
	view := SessionView{
		ID:       sess.ID,
		FileName: sess.FileName,
		Schemas:  core.Schemas(),
		Preview:  sess.Preview(),
	}

	model, ok := sess.Model()
	if !ok {
		return view
	}

	state := sess.State()
	view.Columns = model.Columns
	view.ActiveColumns = state.ActiveColumns()
	for _, f := range core.CategoryFields {
		if !model.HasColumn(f.Column()) {
			continue
		}
		view.Fields = append(view.Fields, FieldOptions{
			Field:    f,
			Values:   model.DistinctValues[f],
			Selected: state.Selection(f),
		})
	}
	return view
}

// PreviewFragment renders the preview table or its placeholder. Its root
// element carries id="preview" so htmx can swap it whole.
func PreviewFragment(p core.RenderedPreview) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div id="preview" class="preview"`)
		h.attr("data-state", p.State.String())
		h.raw(">")

		if p.State != core.PreviewRendered {
			h.raw(`<p class="placeholder">`)
			h.text(p.Message())
			h.raw("</p></div>")
			return
		}

		h.raw("<table><thead><tr>")
		for _, col := range p.Header {
			h.raw("<th>")
			h.text(col)
			h.raw("</th>")
		}
		h.raw("</tr></thead><tbody>")
		for _, row := range p.Rows {
			h.raw("<tr>")
			for _, cell := range row {
				h.raw("<td>")
				h.text(cell)
				h.raw("</td>")
			}
			h.raw("</tr>")
		}
		h.raw(`</tbody></table><p class="summary">`)
		h.text(p.Summary())
		h.raw("</p></div>")
	})
}

// ColumnPicker renders one checkbox per column. Any change posts the full
// checked set.
func ColumnPicker(v SessionView) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<form class="columns" hx-trigger="change" hx-target="#preview" hx-swap="outerHTML"`)
		h.attr("hx-post", sessionPath(v.ID, "columns"))
		h.raw("><fieldset><legend>Columns</legend>")
		for _, col := range v.Columns {
			h.raw(`<label><input type="checkbox" name="selected_columns[]"`)
			h.attr("value", col)
			if v.isActive(col) {
				h.raw(" checked")
			}
			h.raw("> ")
			h.text(col)
			h.raw("</label>")
		}
		h.raw("</fieldset></form>")
	})
}

// FilterPanel renders one multi-select per category field plus a clear
// button.
func FilterPanel(v SessionView) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div id="filters" class="filters">`)
		for _, f := range v.Fields {
			name := string(f.Field)
			h.raw(`<label class="filter">`)
			h.text(name)
			h.raw(`<select multiple name="values[]" hx-trigger="change" hx-target="#preview" hx-swap="outerHTML"`)
			h.attr("hx-post", sessionPath(v.ID, "filters", name))
			h.raw(">")

			h.raw(`<option value=""`)
			if len(f.Selected) == 0 {
				h.raw(" selected")
			}
			h.raw(">All</option>")

			for _, val := range f.Values {
				h.raw("<option")
				h.attr("value", val)
				if f.isSelected(val) {
					h.raw(" selected")
				}
				h.raw(">")
				h.text(val)
				h.raw("</option>")
			}
			h.raw("</select></label>")
		}
		h.raw(`<button type="button" hx-target="#workspace" hx-swap="outerHTML"`)
		h.attr("hx-delete", sessionPath(v.ID, "filters"))
		h.raw(">Clear filters</button></div>")
	})
}

// ReportForm posts a plain form so the browser downloads the CSV.
func ReportForm(v SessionView) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<form class="report" method="post"`)
		h.attr("action", sessionPath(v.ID, "report"))
		h.raw(`><label>Layout <select name="schema">`)
		for _, s := range v.Schemas {
			h.raw("<option")
			h.attr("value", s.Key)
			h.attr("title", s.Description)
			if s.Key == core.DefaultSchema {
				h.raw(" selected")
			}
			h.raw(">")
			h.text(s.Name)
			h.raw("</option>")
		}
		h.raw(`</select></label><label>Durations <select name="formatSelect">`)
		h.raw(`<option value="decimal" selected>Decimal hours</option><option value="hours">Hours:minutes</option>`)
		h.raw(`</select></label><label>File <select name="output">`)
		h.raw(`<option value="xlsx" selected>Excel workbook</option><option value="csv">CSV</option>`)
		h.raw(`</select></label><label>Prepared by <input type="text" name="prepared_by" maxlength="100"></label>`)
		h.raw(`<button type="submit">Download report</button></form>`)
	})
}

// Workspace groups the controls and the preview of one session.
func Workspace(v SessionView) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div id="workspace" class="workspace"`)
		h.attr("data-session", v.ID)
		h.raw(">")
		if v.FileName != "" {
			h.raw(`<h2 class="file">`)
			h.text(v.FileName)
			h.raw("</h2>")
		}
		if len(v.Columns) > 0 {
			h.renderChild(ctx, ColumnPicker(v))
			h.renderChild(ctx, FilterPanel(v))
			h.renderChild(ctx, ReportForm(v))
		}
		h.renderChild(ctx, PreviewFragment(v.Preview))
		h.raw("</div>")
	})
}

// UploadForm posts the chosen file and swaps in the new workspace.
func UploadForm(maxBytes int64) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<form class="upload" hx-post="/api/sessions" hx-encoding="multipart/form-data" `)
		h.raw(`hx-target="#workspace" hx-swap="outerHTML">`)
		h.raw(`<input type="file" name="csv_file" accept=".csv,text/csv" required>`)
		h.raw(`<button type="submit">Preview</button><small>Max `)
		h.text(formatBytes(maxBytes))
		h.raw("</small></form>")
	})
}

// ErrorAlert renders a user-facing error.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw("</strong>")
		if action != "" {
			h.raw("<p>")
			h.text(action)
			h.raw("</p>")
		}
		if code != "" {
			h.raw(`<small>Code: `)
			h.text(code)
			h.raw("</small>")
		}
		h.raw("</div>")
	})
}

// ReportLogTable lists recent report requests.
func ReportLogTable(records []core.ReportRecord) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		if len(records) == 0 {
			h.raw(`<p class="placeholder">No reports generated yet</p>`)
			return
		}
		h.raw("<table><thead><tr><th>Time</th><th>File</th><th>Layout</th><th>Format</th><th>Entries</th></tr></thead><tbody>")
		for _, rec := range records {
			h.raw("<tr><td>")
			h.text(rec.CreatedAt.Format(time.DateTime))
			h.raw("</td><td>")
			h.text(rec.FileName)
			h.raw("</td><td>")
			h.text(rec.Schema)
			h.raw("</td><td>")
			h.text(rec.Format)
			h.raw("</td><td>")
			h.text(strconv.Itoa(rec.EntryCount))
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table>")
	})
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n >= mb {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%d KB", n/1024)
}
