package core

// session.go holds the reducer that replaces ad-hoc UI callbacks.
//
// A Session owns the loaded table, its TableModel, the FilterState and the
// last rendered preview. Frontends translate their events into messages and
// call Update, which applies the message and recomputes the filter and the
// preview synchronously. There is no cross-refresh caching.

// Msg is an event a frontend dispatches to a Session.
type Msg interface {
	isMsg()
}

// FileLoaded replaces the session's table with a freshly parsed one.
type FileLoaded struct {
	Name  string
	Table Table
}

// FileFailed reports a parse failure. The session drops any previous table.
type FileFailed struct {
	Name string
	Err  error
}

// ColumnToggled flips one column.
type ColumnToggled struct {
	Column string
}

// ColumnsSet replaces the active column set.
type ColumnsSet struct {
	Columns []string
}

// CategoryFilterChanged replaces the selection of one category field.
type CategoryFilterChanged struct {
	Field  CategoryField
	Values []string
}

// FiltersCleared removes every category selection.
type FiltersCleared struct{}

func (FileLoaded) isMsg()            {}
func (FileFailed) isMsg()            {}
func (ColumnToggled) isMsg()         {}
func (ColumnsSet) isMsg()            {}
func (CategoryFilterChanged) isMsg() {}
func (FiltersCleared) isMsg()        {}

// Session is the state of one preview workflow.
// It is not safe for concurrent use; SessionStore serialises access.
type Session struct {
	ID       string
	FileName string

	maxRows int
	model   *TableModel
	state   *FilterState
	preview RenderedPreview
	err     error
}

// NewSession creates an empty session. maxRows bounds the preview body.
func NewSession(id string, maxRows int) *Session {
	if maxRows <= 0 {
		maxRows = DefaultMaxPreviewRows
	}
	return &Session{
		ID:      id,
		maxRows: maxRows,
		state:   NewFilterState(nil),
		preview: NoDataPreview(),
	}
}

// Update applies msg and returns the recomputed preview.
func (s *Session) Update(msg Msg) RenderedPreview {
	switch m := msg.(type) {
	case FileLoaded:
		model := BuildTableModel(m.Table)
		s.FileName = m.Name
		s.model = &model
		s.state = NewFilterState(model.Columns)
		s.err = nil

	case FileFailed:
		s.FileName = m.Name
		s.model = nil
		s.state = NewFilterState(nil)
		s.err = m.Err

	case ColumnToggled:
		s.state.ToggleColumn(m.Column)

	case ColumnsSet:
		s.state.SetActiveColumns(m.Columns)

	case CategoryFilterChanged:
		s.state.SetCategorySelection(m.Field, m.Values)

	case FiltersCleared:
		s.state.ClearSelections()
	}

	s.preview = s.recompute()
	return s.preview
}

func (s *Session) recompute() RenderedPreview {
	if s.model == nil || s.model.TotalRows() == 0 {
		return NoDataPreview()
	}
	view := Filter(s.model.Table, s.state)
	return view.Render(s.maxRows, s.model.TotalRows())
}

// Preview returns the last rendered preview.
func (s *Session) Preview() RenderedPreview {
	return s.preview
}

// Loaded reports whether a table is available.
func (s *Session) Loaded() bool {
	return s.model != nil
}

// Model returns the table model, if a file has been loaded.
func (s *Session) Model() (TableModel, bool) {
	if s.model == nil {
		return TableModel{}, false
	}
	return *s.model, true
}

// State returns a copy of the current filter state.
func (s *Session) State() *FilterState {
	return s.state.Clone()
}

// Err returns the last parse failure, if any.
func (s *Session) Err() error {
	return s.err
}

// MaxRows returns the preview row limit.
func (s *Session) MaxRows() int {
	return s.maxRows
}
