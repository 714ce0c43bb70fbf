// Package ingest decodes uploaded files into tables. The decoder is chosen
// by file extension; a workbook yields one table per sheet, a delimited text
// file yields exactly one.
//
// Every cell is read as text. Typing is left to the cleaning pipeline so the
// raw preview shows what the user uploaded.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/tidysheet/internal/table"
)

var (
	// ErrUnsupportedFormat is returned for extensions no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrUnreadable wraps every decoding failure. The file is rejected as a
	// whole; no partial result is returned.
	ErrUnreadable = errors.New("unreadable file")
)

// decoder reads every table in a file.
type decoder func(r io.ReadSeeker) ([]*table.Table, error)

var decoders = map[string]decoder{
	".csv":  decodeCSV,
	".xlsx": decodeXLSX,
	".xlsm": decodeXLSX,
	".xls":  decodeXLS,
}

// Extensions returns the accepted file extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether name has an accepted extension.
func Supported(name string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Decode reads all tables from r, choosing the decoder from name's
// extension.
func Decode(name string, r io.ReadSeeker) (tables []*table.Table, err error) {
	ext := strings.ToLower(filepath.Ext(name))
	dec, ok := decoders[ext]
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	// Third-party workbook parsers can panic on corrupt input.
	defer func() {
		if p := recover(); p != nil {
			tables, err = nil, fmt.Errorf("%w: %s: decoder panic: %v", ErrUnreadable, name, p)
		}
	}()

	tables, err = dec(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}
	return tables, nil
}

// fromRecords builds a text table whose header is records[0]. With strict
// set, a row wider than the header is an error; otherwise the header is
// widened with blank names. Short rows are padded with missing values.
func fromRecords(name string, records [][]string, strict bool) (*table.Table, error) {
	if len(records) == 0 {
		return table.New(name), nil
	}

	header := records[0]
	if !strict {
		width := len(header)
		for _, rec := range records[1:] {
			if len(rec) > width {
				width = len(rec)
			}
		}
		for len(header) < width {
			header = append(header, "")
		}
	}

	t := table.New(name, header...)
	for i, rec := range records[1:] {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(rec), len(header))
		}
		row := make([]table.Value, len(rec))
		for j, s := range rec {
			row[j] = table.Text(s)
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// trimTrailingEmpty drops trailing records that have no non-empty cell.
func trimTrailingEmpty(records [][]string) [][]string {
	end := len(records)
	for end > 0 && blank(records[end-1]) {
		end--
	}
	return records[:end]
}

func blank(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
