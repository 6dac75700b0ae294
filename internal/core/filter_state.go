package core

// FilterState holds the user's current column and category selections.
// It is owned by a single Session and mutated one event at a time.
type FilterState struct {
	columns  []string // every column of the table, in table order
	active   map[string]bool
	selected map[CategoryField][]string
}

// NewFilterState returns the initial state for a table: every column
// active and no category filters.
func NewFilterState(columns []string) *FilterState {
	s := &FilterState{
		columns:  append([]string(nil), columns...),
		active:   make(map[string]bool, len(columns)),
		selected: make(map[CategoryField][]string),
	}
	for _, c := range columns {
		s.active[c] = true
	}
	return s
}

// ToggleColumn flips a column between active and inactive.
// Unknown column names are ignored.
func (s *FilterState) ToggleColumn(name string) {
	if _, ok := s.active[name]; !ok {
		return
	}
	s.active[name] = !s.active[name]
}

// SetActiveColumns replaces the active column set. Unknown names are ignored.
func (s *FilterState) SetActiveColumns(names []string) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for _, c := range s.columns {
		s.active[c] = want[c]
	}
}

// ActiveColumns returns the active columns in table order, not selection order.
func (s *FilterState) ActiveColumns() []string {
	out := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		if s.active[c] {
			out = append(out, c)
		}
	}
	return out
}

// IsColumnActive reports whether a column is currently displayed.
func (s *FilterState) IsColumnActive(name string) bool {
	return s.active[name]
}

// SetCategorySelection replaces the chosen values for a field.
// Empty strings are dropped (they stand for the "All" option) and
// duplicates collapse; an empty result removes the filter.
func (s *FilterState) SetCategorySelection(field CategoryField, values []string) {
	if !isCategoryField(field) {
		return
	}

	seen := make(map[string]bool, len(values))
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		kept = append(kept, v)
	}

	if len(kept) == 0 {
		delete(s.selected, field)
		return
	}
	s.selected[field] = kept
}

// Selection returns the chosen values for a field (nil means unfiltered).
func (s *FilterState) Selection(field CategoryField) []string {
	return append([]string(nil), s.selected[field]...)
}

// ClearSelections removes every category filter.
func (s *FilterState) ClearSelections() {
	s.selected = make(map[CategoryField][]string)
}

// ActiveFilterCount returns how many fields currently filter rows.
func (s *FilterState) ActiveFilterCount() int {
	return len(s.selected)
}

// Clone returns an independent copy.
func (s *FilterState) Clone() *FilterState {
	c := &FilterState{
		columns:  append([]string(nil), s.columns...),
		active:   make(map[string]bool, len(s.active)),
		selected: make(map[CategoryField][]string, len(s.selected)),
	}
	for k, v := range s.active {
		c.active[k] = v
	}
	for k, v := range s.selected {
		c.selected[k] = append([]string(nil), v...)
	}
	return c
}

func isCategoryField(f CategoryField) bool {
	for _, cf := range CategoryFields {
		if cf == f {
			return true
		}
	}
	return false
}
