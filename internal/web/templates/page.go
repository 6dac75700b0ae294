package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/timesheet/internal/core"
)

const htmxScript = `<script src="https://unpkg.com/htmx.org@2.0.4" crossorigin="anonymous"></script>`

// Page wraps body in the document shell.
func Page(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title)
		h.raw(`</title><link rel="stylesheet" href="/static/app.css">`)
		h.raw(htmxScript)
		h.raw(`</head><body><header><h1>Timesheet Preview</h1><nav><a href="/">Upload</a> <a href="/reports">Reports</a></nav></header><main><div id="errors" aria-live="polite"></div>`)
		h.renderChild(ctx, body)
		h.raw("</main></body></html>")
	})
}

// HomePage shows the upload form and an empty workspace.
func HomePage(maxBytes int64) templ.Component {
	return Page("Timesheet Preview", component(func(ctx context.Context, h *htmlWriter) {
		h.renderChild(ctx, UploadForm(maxBytes))
		h.renderChild(ctx, Workspace(SessionView{Preview: core.NoDataPreview()}))
	}))
}

// SessionPage shows a loaded session.
func SessionPage(maxBytes int64, v SessionView) templ.Component {
	title := "Timesheet Preview"
	if v.FileName != "" {
		title = v.FileName + " - " + title
	}
	return Page(title, component(func(ctx context.Context, h *htmlWriter) {
		h.renderChild(ctx, UploadForm(maxBytes))
		h.renderChild(ctx, Workspace(v))
	}))
}

// ReportsPage lists recent report requests.
func ReportsPage(records []core.ReportRecord) templ.Component {
	return Page("Reports - Timesheet Preview", component(func(ctx context.Context, h *htmlWriter) {
		h.raw("<h2>Recent reports</h2>")
		h.renderChild(ctx, ReportLogTable(records))
	}))
}
