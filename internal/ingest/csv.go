package ingest

import (
	"encoding/csv"
	"io"

	"github.com/JonMunkholm/tidysheet/internal/table"
)

// decodeCSV reads comma-separated text. The first record is the header.
// Malformed quoting and rows wider than the header are errors.
func decodeCSV(r io.ReadSeeker) ([]*table.Table, error) {
	cr := csv.NewReader(newTextReader(r))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	t, err := fromRecords("", records, true)
	if err != nil {
		return nil, err
	}
	return []*table.Table{t}, nil
}
