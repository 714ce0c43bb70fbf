// Package templates holds the HTML components of the web UI. Components are
// written in .templ files; the *_templ.go files are generated by templ
// generate and committed.
package templates

//go:generate templ generate

import (
	"encoding/base64"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tidysheet/internal/core"
	"github.com/JonMunkholm/tidysheet/internal/table"
)

// DownloadHref returns a data URI carrying csv, so a results page needs no
// server-side state to serve its downloads. templ's URL sanitizer rejects
// data: URIs; this one is built here from our own export, so it is marked
// safe.
func DownloadHref(csv []byte) templ.SafeURL {
	return templ.SafeURL("data:text/csv;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(csv))
}

type previewCell struct {
	Text    string
	Missing bool
}

// previewView is the first rows of a table, already formatted.
type previewView struct {
	Columns []string
	Rows    [][]previewCell
	Shown   int
	Total   int
}

func newPreview(t *table.Table, n int) previewView {
	head := t.Head(n)
	format := table.NewFormatter(t)

	v := previewView{
		Columns: head.Columns,
		Rows:    make([][]previewCell, len(head.Rows)),
		Shown:   head.NumRows(),
		Total:   t.NumRows(),
	}
	for i, row := range head.Rows {
		cells := make([]previewCell, len(row))
		for j, val := range row {
			if val.IsMissing() {
				cells[j].Missing = true
				continue
			}
			cells[j].Text = format.Format(j, val)
		}
		v.Rows[i] = cells
	}
	return v
}

func profileSummary(pr core.ColumnProfile) string {
	switch {
	case pr.Numeric != nil:
		return "min " + formatFloat(pr.Numeric.Min) +
			", median " + formatFloat(pr.Numeric.Median) +
			", mean " + formatFloat(pr.Numeric.Mean) +
			", max " + formatFloat(pr.Numeric.Max)
	case pr.Time != nil:
		return pr.Time.Earliest + " to " + pr.Time.Latest
	}
	return ""
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return strconv.FormatInt(n/mb, 10) + " MB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
