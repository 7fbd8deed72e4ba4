package domain

import (
	"strings"
)

// Table is a materialized tabular source: a header row and string cells, as
// extracted from a spreadsheet or CSV file. Rows may be shorter than Columns;
// missing trailing cells read as empty.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable builds a table from a header and rows.
func NewTable(name string, columns []string, rows ...[]string) *Table {
	return &Table{Name: name, Columns: columns, Rows: rows}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the index of the named column, matching case- and
// whitespace-insensitively, or -1 when the column is absent.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	want := NormalizeHeader(name)
	for i, c := range t.Columns {
		if NormalizeHeader(c) == want {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the trimmed cell at row/column index, or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if t == nil || row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// NormalizeHeader lowercases a header and collapses inner whitespace.
func NormalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// DealerSheet is the dealer pricing sheet, split by instrument class.
type DealerSheet struct {
	Linked  *Table `json:"linked"`
	Nominal *Table `json:"nominal"`
}

// Sources bundles the three inputs of one trading day.
type Sources struct {
	Reference *Table       `json:"reference"`
	Exchange  *Table       `json:"exchange"`
	Dealer    *DealerSheet `json:"dealer"`
}
