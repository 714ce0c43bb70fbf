package ingest

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tidysheet/internal/table"
)

// decodeXLSX reads every sheet of an Office Open XML workbook in workbook
// order. Cells are taken with their display formatting applied, which is
// what the user sees in the spreadsheet.
func decodeXLSX(r io.ReadSeeker) ([]*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	tables := make([]*table.Table, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		t, err := fromRecords(sheet, trimTrailingEmpty(rows), false)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}
