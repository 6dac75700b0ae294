package core

import (
	"sort"
	"strings"
)

// TableModel holds a loaded table and the values each category field takes.
type TableModel struct {
	Table          Table
	Columns        []string
	DistinctValues map[CategoryField]DistinctValueSet
}

// BuildTableModel derives the column list and the distinct value sets.
//
// Columns come from the first row in source order. A field value counts
// toward its set only when present and non-blank; it is stored trimmed.
// An empty table yields no columns and empty sets.
func BuildTableModel(table Table) TableModel {
	model := TableModel{
		Table:          table,
		Columns:        table.Columns(),
		DistinctValues: make(map[CategoryField]DistinctValueSet, len(CategoryFields)),
	}

	for _, field := range CategoryFields {
		seen := make(map[string]struct{})
		for i := 0; i < table.Len(); i++ {
			v, ok := table.Row(i).Get(field.Column())
			if !ok {
				continue
			}
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			seen[v] = struct{}{}
		}

		set := make(DistinctValueSet, 0, len(seen))
		for v := range seen {
			set = append(set, v)
		}
		sort.Strings(set)
		model.DistinctValues[field] = set
	}

	return model
}

// TotalRows returns the unfiltered table size.
func (m TableModel) TotalRows() int {
	return m.Table.Len()
}

// HasColumn reports whether name is one of the table's columns.
func (m TableModel) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c == name {
			return true
		}
	}
	return false
}
