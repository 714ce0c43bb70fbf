// Package clean implements the fixed data-cleaning pipeline applied to every
// uploaded table.
//
// The stages run in this order:
//
//  1. Column-name normalization (trim, collapse whitespace, lower-case, drop
//     repeated names keeping the first).
//  2. Cell normalization (trim, collapse whitespace, missing tokens become
//     the missing marker).
//  3. Column-wide type coercion: date/time, then integer, then float. A
//     column converts only if every non-missing value parses.
//  4. Empty-column removal.
//  5. Duplicate-row removal, keeping the first occurrence.
//  6. Incomplete-row removal.
//
// Removing rows can leave a previously mixed column fully parseable, so the
// stages are repeated until a pass changes nothing. The output is therefore
// a fixed point: cleaning it again returns an identical table.
package clean

import "github.com/JonMunkholm/tidysheet/internal/table"

// Stages describes the pipeline steps in order, for display.
var Stages = []string{
	"Normalize column names: trim, collapse spaces, lower-case, keep the first of any repeated name",
	"Normalize cells: trim, collapse spaces, turn missing-value spellings into missing",
	"Convert columns to dates, integers or decimals when every value parses",
	"Drop columns with no values",
	"Drop duplicate rows, keeping the first",
	"Drop rows with a missing value",
}

// Pipeline is a configured cleaner. It holds no per-run state and is safe
// for concurrent use.
type Pipeline struct {
	missing TokenSet
}

// New returns a pipeline that treats the given spellings as missing. A nil
// slice selects DefaultMissingTokens.
func New(missingTokens []string) *Pipeline {
	if missingTokens == nil {
		missingTokens = DefaultMissingTokens
	}
	return &Pipeline{missing: NewTokenSet(missingTokens)}
}

// MissingTokens returns the configured missing-value spellings.
func (p *Pipeline) MissingTokens() []string {
	return p.missing.Sorted()
}

// Run cleans a copy of in and reports what changed. in is not modified.
func (p *Pipeline) Run(in *table.Table) (*table.Table, Report) {
	rep := Report{RowsIn: in.NumRows(), ColumnsIn: in.NumColumns()}

	t := normalizeColumnNames(in.Clone(), &rep)
	for {
		before := rep
		t = p.pass(t, &rep)
		if !changed(before, rep) {
			break
		}
	}

	rep.RowsOut = t.NumRows()
	rep.ColumnsOut = t.NumColumns()
	return t, rep
}

// pass runs stages 2 to 6 once.
func (p *Pipeline) pass(t *table.Table, rep *Report) *table.Table {
	normalizeCells(t, p.missing, rep)
	coerceColumns(t, rep)
	t = dropEmptyColumns(t, rep)
	dropDuplicateRows(t, rep)
	dropIncompleteRows(t, rep)
	return t
}

func changed(a, b Report) bool {
	return a.CellsMarkedMissing != b.CellsMarkedMissing ||
		len(a.Coerced) != len(b.Coerced) ||
		len(a.EmptyColumns) != len(b.EmptyColumns) ||
		a.DuplicateRows != b.DuplicateRows ||
		a.IncompleteRows != b.IncompleteRows
}
