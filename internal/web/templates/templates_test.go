package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/timesheet/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func hostileSession(t *testing.T) *core.Session {
	t.Helper()
	csv := "Project,Client,User,<b>Note</b>\n" +
		"<script>alert(1)</script>,\"X\"\"&'\",u1,<img src=x onerror=alert(2)>\n"
	tbl, err := core.ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	sess := core.NewSession("s-1", 15)
	sess.Update(core.FileLoaded{Name: "<evil>.csv", Table: tbl})
	return sess
}

func TestPreviewFragmentEscapesCells(t *testing.T) {
	sess := hostileSession(t)
	out := render(t, PreviewFragment(sess.Preview()))

	if strings.Contains(out, "<script>") {
		t.Errorf("unescaped <script> in output: %s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Errorf("expected escaped script tag: %s", out)
	}
	if strings.Contains(out, "<img") || strings.Contains(out, "<b>") {
		t.Errorf("unescaped markup in output: %s", out)
	}
	if !strings.Contains(out, "Showing 1 of 1 filtered rows (1 total)") {
		t.Errorf("missing summary: %s", out)
	}
}

func TestWorkspaceEscapesEverywhere(t *testing.T) {
	sess := hostileSession(t)
	out := render(t, SessionPage(1<<20, NewSessionView(sess)))

	for _, bad := range []string{"<script>alert", "<evil>", "<b>Note", `value="X"`, "<img"} {
		if strings.Contains(out, bad) {
			t.Errorf("output contains %q", bad)
		}
	}
	for _, want := range []string{
		"&lt;evil&gt;.csv",
		`value="&lt;script&gt;alert(1)&lt;/script&gt;"`,
		`hx-post="/api/sessions/s-1/filters/Project"`,
		`name="selected_columns[]"`,
		"1 MB",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestPreviewPlaceholders(t *testing.T) {
	tests := []struct {
		preview core.RenderedPreview
		want    string
	}{
		{core.NoDataPreview(), "No data to preview"},
		{core.RenderedPreview{State: core.PreviewEmptyColumns}, "Please select at least one column"},
		{core.RenderedPreview{State: core.PreviewNoRowsMatch}, "No data matches the selected filters"},
	}
	for _, tt := range tests {
		out := render(t, PreviewFragment(tt.preview))
		if !strings.Contains(out, tt.want) || strings.Contains(out, "<table>") {
			t.Errorf("placeholder %v rendered %s", tt.preview.State, out)
		}
		if !strings.Contains(out, `data-state="`+tt.preview.State.String()+`"`) {
			t.Errorf("missing data-state: %s", out)
		}
	}
}

func TestFilterPanelMarksSelection(t *testing.T) {
	sess := core.NewSession("s-2", 15)
	tbl, _ := core.ParseCSV(strings.NewReader("Project,User\nA,u1\nB,u2\n"))
	sess.Update(core.FileLoaded{Name: "f.csv", Table: tbl})
	sess.Update(core.CategoryFilterChanged{Field: core.FieldProject, Values: []string{"B"}})

	out := render(t, FilterPanel(NewSessionView(sess)))
	if !strings.Contains(out, `<option value="B" selected>`) {
		t.Errorf("B should be selected: %s", out)
	}
	if strings.Contains(out, `<option value="" selected>All</option><option value="A"`) {
		t.Errorf("All should not be selected for Project: %s", out)
	}
	if strings.Contains(out, "filters/Client") {
		t.Error("no filter for a column the file lacks")
	}
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("Bad <file>", "Try again", "FILE002"))
	if !strings.Contains(out, "Bad &lt;file&gt;") || !strings.Contains(out, "Code: FILE002") {
		t.Errorf("ErrorAlert = %s", out)
	}
}
