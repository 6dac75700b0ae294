// Package tui is the terminal frontend. It translates key events into
// session messages and draws the resulting preview with lipgloss.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/timesheet/internal/core"
)

// Options configure a Model.
type Options struct {
	MaxRows   int
	ReportDir string
	Report    core.ReportOptions
}

// pane is one selectable list: the columns, or the values of a category
// field when field is set.
type pane struct {
	title string
	field core.CategoryField
	items []string
}

func (p pane) isColumns() bool { return p.field == "" }

// Model is the bubbletea model of one preview session.
type Model struct {
	path string
	opts Options
	sess *core.Session

	panes  []pane
	active int
	cursor []int

	keys   keyMap
	help   help.Model
	width  int
	height int

	status string
	err    error
}

// New creates a model that loads path on start.
func New(path string, opts Options) Model {
	if opts.ReportDir == "" {
		opts.ReportDir = "."
	}
	return Model{
		path: path,
		opts: opts,
		sess: core.NewSession("terminal", opts.MaxRows),
		keys: defaultKeyMap(),
		help: help.New(),
	}
}

// Session exposes the underlying session.
func (m Model) Session() *core.Session {
	return m.sess
}

func (m Model) Init() tea.Cmd {
	return loadFile(m.path)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case fileLoadedMsg:
		m.sess.Update(core.FileLoaded{Name: msg.name, Table: msg.table})
		m.buildPanes()
		m.err = nil
		m.status = ""

	case fileFailedMsg:
		m.sess.Update(core.FileFailed{Name: msg.name, Err: msg.err})
		m.buildPanes()
		m.err = msg.err

	case DoneMsg:
		m.status = string(msg)
		m.err = nil

	case ErrMsg:
		m.err = msg.Err

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.NextPane):
		if len(m.panes) > 0 {
			m.active = (m.active + 1) % len(m.panes)
		}

	case key.Matches(msg, m.keys.PrevPane):
		if len(m.panes) > 0 {
			m.active = (m.active + len(m.panes) - 1) % len(m.panes)
		}

	case key.Matches(msg, m.keys.Up):
		if len(m.panes) > 0 && m.cursor[m.active] > 0 {
			m.cursor[m.active]--
		}

	case key.Matches(msg, m.keys.Down):
		if len(m.panes) > 0 && m.cursor[m.active] < len(m.panes[m.active].items)-1 {
			m.cursor[m.active]++
		}

	case key.Matches(msg, m.keys.Toggle):
		m.toggle()

	case key.Matches(msg, m.keys.Clear):
		if m.sess.Loaded() {
			m.sess.Update(core.FiltersCleared{})
			m.status = "Filters cleared"
		}

	case key.Matches(msg, m.keys.Report):
		model, ok := m.sess.Model()
		if !ok {
			m.err = core.ErrNoData
			return m, nil
		}
		m.status = "Writing report..."
		return m, writeReport(model, m.sess.State(), m.opts.Report, m.opts.ReportDir)
	}
	return m, nil
}

// toggle flips the item under the cursor in the active pane.
func (m *Model) toggle() {
	if len(m.panes) == 0 {
		return
	}
	p := m.panes[m.active]
	if len(p.items) == 0 {
		return
	}
	item := p.items[m.cursor[m.active]]

	if p.isColumns() {
		m.sess.Update(core.ColumnToggled{Column: item})
		return
	}

	current := m.sess.State().Selection(p.field)
	next := make([]string, 0, len(current)+1)
	found := false
	for _, v := range current {
		if v == item {
			found = true
			continue
		}
		next = append(next, v)
	}
	if !found {
		next = append(next, item)
	}
	m.sess.Update(core.CategoryFilterChanged{Field: p.field, Values: next})
}

// buildPanes lays out one pane for the columns and one per category field
// present in the file.
func (m *Model) buildPanes() {
	m.panes = nil
	m.active = 0

	model, ok := m.sess.Model()
	if !ok || len(model.Columns) == 0 {
		m.cursor = nil
		return
	}

	m.panes = append(m.panes, pane{title: "Columns", items: model.Columns})
	for _, f := range core.CategoryFields {
		if !model.HasColumn(f.Column()) {
			continue
		}
		m.panes = append(m.panes, pane{title: string(f), field: f, items: model.DistinctValues[f]})
	}
	m.cursor = make([]int, len(m.panes))
}

// checked reports whether item is on in pane p.
func (m Model) checked(p pane, item string) bool {
	state := m.sess.State()
	if p.isColumns() {
		return state.IsColumnActive(item)
	}
	for _, v := range state.Selection(p.field) {
		if v == item {
			return true
		}
	}
	return false
}
