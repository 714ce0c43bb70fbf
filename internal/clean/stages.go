package clean

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/tidysheet/internal/table"
)

// normalizeColumnNames trims, collapses and lower-cases every header, names
// blank headers after their position, and drops later columns whose
// normalized name repeats an earlier one.
func normalizeColumnNames(t *table.Table, rep *Report) *table.Table {
	lower := cases.Lower(language.Und)

	seen := make(map[string]bool, len(t.Columns))
	keep := make([]int, 0, len(t.Columns))
	names := make([]string, 0, len(t.Columns))

	for j, raw := range t.Columns {
		name := lower.String(collapseSpace(raw))
		if name == "" {
			name = "unnamed_" + strconv.Itoa(j)
		}
		if seen[name] {
			rep.DuplicateColumns = append(rep.DuplicateColumns, raw)
			continue
		}
		seen[name] = true
		if name != raw {
			rep.Renamed = append(rep.Renamed, Rename{From: raw, To: name})
		}
		keep = append(keep, j)
		names = append(names, name)
	}

	out := t
	if len(keep) != len(t.Columns) {
		out = t.SelectColumns(keep)
	}
	copy(out.Columns, names)
	return out
}

// normalizeCells rewrites every text cell in place: whitespace is trimmed and
// collapsed, and missing tokens become the missing marker.
func normalizeCells(t *table.Table, missing TokenSet, rep *Report) {
	for _, row := range t.Rows {
		for j, v := range row {
			if v.Kind() != table.KindText {
				continue
			}
			s := collapseSpace(v.Str())
			if missing.Contains(s) {
				row[j] = table.Missing()
				rep.CellsMarkedMissing++
				continue
			}
			if s != v.Str() {
				row[j] = table.Text(s)
			}
		}
	}
}

// coerceColumns converts each all-text column to date/time, integer or float
// when every non-missing cell parses under that type. A column with a single
// unparsable value is left untouched.
func coerceColumns(t *table.Table, rep *Report) {
	for j, name := range t.Columns {
		col := t.Column(j)
		if !allText(col) {
			continue
		}

		if converted, ok := convertColumn(col, parseTimeValue); ok {
			setColumn(t, j, converted)
			rep.Coerced = append(rep.Coerced, Coercion{Column: name, Kind: "datetime"})
			continue
		}
		if converted, ok := convertColumn(col, parseIntValue); ok {
			setColumn(t, j, converted)
			rep.Coerced = append(rep.Coerced, Coercion{Column: name, Kind: "integer"})
			continue
		}
		if converted, ok := convertColumn(col, parseFloatValue); ok {
			setColumn(t, j, converted)
			rep.Coerced = append(rep.Coerced, Coercion{Column: name, Kind: "float"})
		}
	}
}

// allText reports whether col has at least one value and every non-missing
// value is text.
func allText(col []table.Value) bool {
	present := 0
	for _, v := range col {
		switch v.Kind() {
		case table.KindMissing:
			continue
		case table.KindText:
			present++
		default:
			return false
		}
	}
	return present > 0
}

type parseFunc func(string) (table.Value, bool)

func parseTimeValue(s string) (table.Value, bool) {
	t, ok := ParseTime(s)
	return table.Time(t), ok
}

func parseIntValue(s string) (table.Value, bool) {
	i, ok := ParseInt(s)
	return table.Int(i), ok
}

func parseFloatValue(s string) (table.Value, bool) {
	f, ok := ParseFloat(s)
	return table.Float(f), ok
}

// convertColumn applies parse to every non-missing value and reports success
// only if all of them parsed.
func convertColumn(col []table.Value, parse parseFunc) ([]table.Value, bool) {
	out := make([]table.Value, len(col))
	for i, v := range col {
		if v.IsMissing() {
			continue
		}
		p, ok := parse(v.Str())
		if !ok {
			return nil, false
		}
		out[i] = p
	}
	return out, true
}

func setColumn(t *table.Table, j int, values []table.Value) {
	for i, row := range t.Rows {
		row[j] = values[i]
	}
}

// dropEmptyColumns removes every column whose values are all missing. With
// zero rows every column is vacuously empty; those are kept so an empty
// upload still exports its header.
func dropEmptyColumns(t *table.Table, rep *Report) *table.Table {
	if len(t.Rows) == 0 {
		return t
	}
	keep := make([]int, 0, len(t.Columns))
	for j, name := range t.Columns {
		empty := true
		for _, row := range t.Rows {
			if !row[j].IsMissing() {
				empty = false
				break
			}
		}
		if empty {
			rep.EmptyColumns = append(rep.EmptyColumns, name)
			continue
		}
		keep = append(keep, j)
	}
	if len(keep) == len(t.Columns) {
		return t
	}
	return t.SelectColumns(keep)
}

// dropDuplicateRows keeps the first occurrence of every distinct row.
func dropDuplicateRows(t *table.Table, rep *Report) {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		key := table.RowKey(row)
		if _, dup := seen[key]; dup {
			rep.DuplicateRows++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	t.Rows = kept
}

// dropIncompleteRows removes every row holding a missing value.
func dropIncompleteRows(t *table.Table, rep *Report) {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		complete := true
		for _, v := range row {
			if v.IsMissing() {
				complete = false
				break
			}
		}
		if !complete {
			rep.IncompleteRows++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
}
