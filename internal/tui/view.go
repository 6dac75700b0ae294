package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JonMunkholm/timesheet/internal/core"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#01BE85"))
	paneStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	activePaneStyle  = paneStyle.BorderForeground(lipgloss.Color("#01BE85"))
	cursorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#01BE85")).Bold(true)
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = cellStyle.Foreground(lipgloss.Color("252")).Bold(true)
)

// maxPaneItems caps how many values a pane lists around the cursor.
const maxPaneItems = 12

func (m Model) View() string {
	var b strings.Builder

	name := m.sess.FileName
	if name == "" {
		name = m.path
	}
	b.WriteString(titleStyle.Render("Timesheet Preview - " + name))
	b.WriteString("\n")

	if len(m.panes) > 0 {
		rendered := make([]string, len(m.panes))
		for i, p := range m.panes {
			rendered[i] = m.renderPane(i, p)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
		b.WriteString("\n")
	}

	b.WriteString(RenderPreview(m.sess.Preview()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(core.FormatUserError(m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderPane(i int, p pane) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(p.title))

	start, end := window(m.cursor[i], len(p.items), maxPaneItems)
	for j := start; j < end; j++ {
		item := p.items[j]
		box := "[ ]"
		if m.checked(p, item) {
			box = "[x]"
		}
		line := box + " " + item
		if i == m.active && j == m.cursor[i] {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	if len(p.items) == 0 {
		b.WriteString("\n")
		b.WriteString(placeholderStyle.Render("(none)"))
	}

	if i == m.active {
		return activePaneStyle.Render(b.String())
	}
	return paneStyle.Render(b.String())
}

// window returns the visible slice bounds of a list of n items keeping the
// cursor in view.
func window(cursor, n, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}

// RenderPreview draws a preview as a terminal table, or its placeholder
// message. The output is plain text with ANSI styling, not markup.
func RenderPreview(p core.RenderedPreview) string {
	if p.State != core.PreviewRendered {
		return placeholderStyle.Render(p.Message())
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers(p.Header...).
		Rows(p.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row%2 == 0 {
				return cellStyle.Foreground(lipgloss.Color("245"))
			}
			return cellStyle.Foreground(lipgloss.Color("252"))
		})

	return t.Render() + "\n" + statusStyle.Render(p.Summary())
}
