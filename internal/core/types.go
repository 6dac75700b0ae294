package core

import (
	"sort"
	"strings"
)

// Row is one record of a loaded table.
// Keys holds the column order; Values maps column name to cell value.
// A column listed in Keys but absent from Values is a missing field.
type Row struct {
	Keys   []string
	Values map[string]string
}

// NewRow builds a Row from parallel header and record slices.
// Short records leave the trailing columns absent.
func NewRow(header, record []string) Row {
	values := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(record) {
			values[col] = record[i]
		}
	}
	return Row{Keys: header, Values: values}
}

// Get returns the value of a column and whether it was present.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Value returns the value of a column, or "" when absent.
func (r Row) Value(column string) string {
	return r.Values[column]
}

// Table is an ordered, immutable sequence of rows sharing one column set.
type Table struct {
	rows []Row
}

// NewTable wraps rows in a Table. The slice is owned by the table afterwards.
func NewTable(rows []Row) Table {
	return Table{rows: rows}
}

// Len returns the total number of rows.
func (t Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th row.
func (t Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns a copy of the row slice so callers cannot reorder the table.
func (t Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Columns returns the column order of the first row.
func (t Table) Columns() []string {
	if len(t.rows) == 0 {
		return nil
	}
	cols := make([]string, len(t.rows[0].Keys))
	copy(cols, t.rows[0].Keys)
	return cols
}

// CategoryField is one of the fixed filterable attributes.
type CategoryField string

const (
	FieldProject CategoryField = "Project"
	FieldClient  CategoryField = "Client"
	FieldUser    CategoryField = "User"
)

// CategoryFields lists every filterable field in display order.
var CategoryFields = []CategoryField{FieldProject, FieldClient, FieldUser}

// ParseCategoryField resolves a field name case-insensitively.
func ParseCategoryField(s string) (CategoryField, bool) {
	for _, f := range CategoryFields {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, true
		}
	}
	return "", false
}

// Column returns the table column that holds this field.
func (f CategoryField) Column() string {
	return string(f)
}

// DistinctValueSet is a sorted set of unique, trimmed, non-empty values.
type DistinctValueSet []string

// Contains reports whether v is in the set.
func (s DistinctValueSet) Contains(v string) bool {
	i := sort.SearchStrings(s, v)
	return i < len(s) && s[i] == v
}
