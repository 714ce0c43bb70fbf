package clean

import "github.com/JonMunkholm/tidysheet/internal/table"

// Rename records a column whose header changed during normalization.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Coercion records a column converted by the type coercion stage.
type Coercion struct {
	Column string `json:"column"`
	Kind   string `json:"kind"` // "datetime", "integer" or "float"
}

// Report describes what each stage of one run changed.
type Report struct {
	RowsIn    int `json:"rows_in"`
	ColumnsIn int `json:"columns_in"`

	Renamed            []Rename   `json:"renamed,omitempty"`
	DuplicateColumns   []string   `json:"duplicate_columns,omitempty"`
	CellsMarkedMissing int        `json:"cells_marked_missing"`
	Coerced            []Coercion `json:"coerced,omitempty"`
	EmptyColumns       []string   `json:"empty_columns,omitempty"`
	DuplicateRows      int        `json:"duplicate_rows"`
	IncompleteRows     int        `json:"incomplete_rows"`

	RowsOut    int `json:"rows_out"`
	ColumnsOut int `json:"columns_out"`
}

// ColumnKinds returns the kind each column of t settled on: the kind of its
// first non-missing cell, or "missing" for an empty column.
func ColumnKinds(t *table.Table) []string {
	kinds := make([]string, len(t.Columns))
	for j := range t.Columns {
		kinds[j] = kindName(firstPresent(t, j))
	}
	return kinds
}

func firstPresent(t *table.Table, j int) table.Value {
	for _, row := range t.Rows {
		if !row[j].IsMissing() {
			return row[j]
		}
	}
	return table.Missing()
}

func kindName(v table.Value) string {
	switch {
	case v.IsInteger():
		return "integer"
	case v.Kind() == table.KindNumber:
		return "float"
	default:
		return v.Kind().String()
	}
}
