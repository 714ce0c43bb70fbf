package table

import (
	"fmt"
	"strings"
)

// Table is an ordered set of named columns and ordered rows. Each row is
// aligned positionally with Columns.
type Table struct {
	// Name is the sheet name for workbook sources, empty for flat text.
	Name    string
	Columns []string
	Rows    [][]Value
}

// Record is one row keyed by column name.
type Record map[string]Value

// New creates an empty table with the given columns.
func New(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.Columns) }

// ColumnIndex returns the position of the first column with the given name,
// or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AppendRow appends a positional row. Short rows are padded with Missing;
// long rows are rejected.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) > len(t.Columns) {
		return fmt.Errorf("row has %d fields, table has %d columns", len(values), len(t.Columns))
	}
	row := make([]Value, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
	return nil
}

// AppendRecord appends a row given as name → value. Columns absent from rec
// become Missing. Names that are not columns are rejected.
func (t *Table) AppendRecord(rec Record) error {
	row := make([]Value, len(t.Columns))
	matched := 0
	for i, c := range t.Columns {
		if v, ok := rec[c]; ok {
			row[i] = v
			matched++
		}
	}
	if matched != len(rec) {
		var unknown []string
		for k := range rec {
			if t.ColumnIndex(k) < 0 {
				unknown = append(unknown, k)
			}
		}
		return fmt.Errorf("unknown columns: %s", strings.Join(unknown, ", "))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Record returns row i keyed by column name.
func (t *Table) Record(i int) Record {
	rec := make(Record, len(t.Columns))
	for j, c := range t.Columns {
		rec[c] = t.Rows[i][j]
	}
	return rec
}

// Column returns a copy of the values of column j.
func (t *Table) Column(j int) []Value {
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[j]
	}
	return out
}

// Clone returns a deep copy. Values are immutable so rows are copied by
// value.
func (t *Table) Clone() *Table {
	c := &Table{Name: t.Name, Columns: make([]string, len(t.Columns)), Rows: make([][]Value, len(t.Rows))}
	copy(c.Columns, t.Columns)
	for i, row := range t.Rows {
		r := make([]Value, len(row))
		copy(r, row)
		c.Rows[i] = r
	}
	return c
}

// Head returns a table with at most n leading rows. Rows are shared.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{Name: t.Name, Columns: t.Columns, Rows: t.Rows[:n]}
}

// SelectColumns returns a table keeping only the columns at the given
// positions, in the given order.
func (t *Table) SelectColumns(keep []int) *Table {
	out := &Table{Name: t.Name, Columns: make([]string, len(keep)), Rows: make([][]Value, len(t.Rows))}
	for k, j := range keep {
		out.Columns[k] = t.Columns[j]
	}
	for i, row := range t.Rows {
		r := make([]Value, len(keep))
		for k, j := range keep {
			r[k] = row[j]
		}
		out.Rows[i] = r
	}
	return out
}

// RowKey returns a string that is equal for two rows iff the rows are equal
// value by value.
func RowKey(row []Value) string {
	var b strings.Builder
	for _, v := range row {
		k := v.key()
		fmt.Fprintf(&b, "%d:%s", len(k), k)
	}
	return b.String()
}

// Equal reports whether two tables have the same columns, in order, and
// equal rows.
func Equal(a, b *Table) bool {
	if len(a.Columns) != len(b.Columns) || len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	for i := range a.Rows {
		for j := range a.Rows[i] {
			if !a.Rows[i][j].Equal(b.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}
