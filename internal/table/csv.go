package table

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Export layouts for date/time columns. PreciseLayout is used for a column
// when any of its values carries fractional seconds or a non-UTC offset.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	PreciseLayout  = "2006-01-02T15:04:05.999999999Z07:00"
)

// ExportPrefix is prepended to the base name of every cleaned export.
const ExportPrefix = "clean_"

// ExportName returns the download name for a cleaned table. The extension of
// the original file is replaced with .csv; sheet is appended when the source
// workbook produced more than one table.
func ExportName(original, sheet string, multiSheet bool) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		base = "upload"
	}
	if multiSheet && sheet != "" {
		base += "_" + sanitizeSheet(sheet)
	}
	return ExportPrefix + base + ".csv"
}

func sanitizeSheet(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}

// Formatter renders cells of one table for display or export. Each date
// column gets one layout: date only when every value falls on midnight,
// PreciseLayout when any value needs it, DateTimeLayout otherwise.
type Formatter struct {
	layouts []string
}

// NewFormatter inspects t once and returns its formatter.
func NewFormatter(t *Table) Formatter {
	f := Formatter{layouts: make([]string, len(t.Columns))}
	for j := range t.Columns {
		sawTime, midnight, precise := false, true, false
		for _, row := range t.Rows {
			v := row[j]
			if v.Kind() != KindTime {
				continue
			}
			sawTime = true
			tm := v.TimeOf()
			if tm.Hour() != 0 || tm.Minute() != 0 || tm.Second() != 0 || tm.Nanosecond() != 0 {
				midnight = false
			}
			if needsPrecise(tm) {
				precise = true
			}
		}
		switch {
		case !sawTime:
		case precise:
			f.layouts[j] = PreciseLayout
		case midnight:
			f.layouts[j] = DateLayout
		default:
			f.layouts[j] = DateTimeLayout
		}
	}
	return f
}

func needsPrecise(tm time.Time) bool {
	_, offset := tm.Zone()
	return tm.Nanosecond() != 0 || offset != 0
}

// Format renders the value at column j.
func (f Formatter) Format(j int, v Value) string {
	if v.Kind() == KindTime && j < len(f.layouts) && f.layouts[j] != "" {
		return v.TimeOf().Format(f.layouts[j])
	}
	return v.String()
}

// Strings renders a full row.
func (f Formatter) Strings(row []Value) []string {
	out := make([]string, len(row))
	for j, v := range row {
		out[j] = f.Format(j, v)
	}
	return out
}

// WriteCSV writes the header and every row as comma-separated text. Missing
// cells are written as empty fields. A table with no rows produces a
// header-only file and a table with no columns produces nothing.
func WriteCSV(w io.Writer, t *Table) error {
	if len(t.Columns) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	f := NewFormatter(t)
	for _, row := range t.Rows {
		if err := cw.Write(f.Strings(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
