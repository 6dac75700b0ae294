package core

// FilteredView is the result of one filter pass. It is recomputed on every
// state change and never mutated afterwards.
type FilteredView struct {
	// NoColumns is set when no column is active. Rows is still filled.
	NoColumns bool
	Rows      []Row
	Columns   []string
}

// Count returns the number of rows that passed the filters.
func (v FilteredView) Count() int {
	return len(v.Rows)
}

// Filter applies the category selections of state to table.
//
// Selections combine as a conjunction: a row survives only if, for every
// field with a non-empty selection, its raw value is one of the selected
// values. Values are compared without trimming. Row order is preserved.
// The active columns never affect which rows pass.
func Filter(table Table, state *FilterState) FilteredView {
	if state == nil {
		state = NewFilterState(table.Columns())
	}

	cols := state.ActiveColumns()

	type condition struct {
		column string
		allow  map[string]struct{}
	}
	var conds []condition
	for _, field := range CategoryFields {
		sel := state.selected[field]
		if len(sel) == 0 {
			continue
		}
		allow := make(map[string]struct{}, len(sel))
		for _, v := range sel {
			allow[v] = struct{}{}
		}
		conds = append(conds, condition{column: field.Column(), allow: allow})
	}

	rows := make([]Row, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		keep := true
		for _, c := range conds {
			v, ok := row.Get(c.column)
			if !ok {
				keep = false
				break
			}
			if _, hit := c.allow[v]; !hit {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, row)
		}
	}

	return FilteredView{NoColumns: len(cols) == 0, Rows: rows, Columns: cols}
}
