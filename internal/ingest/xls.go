package ingest

import (
	"errors"
	"io"

	"github.com/extrame/xls"

	"github.com/JonMunkholm/tidysheet/internal/table"
)

// decodeXLS reads every sheet of a legacy BIFF workbook.
func decodeXLS(r io.ReadSeeker) ([]*table.Table, error) {
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, errors.New("empty workbook")
	}

	tables := make([]*table.Table, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		records := make([][]string, 0, int(sheet.MaxRow)+1)
		for ri := 0; ri <= int(sheet.MaxRow); ri++ {
			row := sheet.Row(ri)
			if row == nil {
				records = append(records, nil)
				continue
			}
			rec := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				rec[c] = row.Col(c)
			}
			records = append(records, rec)
		}

		t, err := fromRecords(sheet.Name, trimTrailingEmpty(records), false)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}
