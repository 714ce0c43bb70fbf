package templates

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tidysheet/internal/clean"
	"github.com/JonMunkholm/tidysheet/internal/core"
	"github.com/JonMunkholm/tidysheet/internal/ingest"
	"github.com/JonMunkholm/tidysheet/internal/table"
)

func TestDownloadHref(t *testing.T) {
	csv := []byte("name,age\nann,30\n")
	href := string(DownloadHref(csv))

	const prefix = "data:text/csv;charset=utf-8;base64,"
	if !strings.HasPrefix(href, prefix) {
		t.Fatalf("href = %q", href)
	}
	got, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(href, prefix))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, csv) {
		t.Errorf("decoded = %q, want %q", got, csv)
	}
}

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert(`<b>bad</b>`, "retry & wait", "FILE002").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>bad</b>") {
		t.Error("message was not escaped")
	}
	for _, want := range []string{"&lt;b&gt;bad&lt;/b&gt;", "retry &amp; wait", "<code>FILE002</code>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestUploadPage(t *testing.T) {
	var buf bytes.Buffer
	err := UploadPage(UploadPageParams{
		Extensions:    []string{".csv", ".xlsx"},
		MissingTokens: []string{"", "n/a"},
		Stages:        []string{"first", "second"},
		MaxFiles:      3,
		MaxBytes:      32 << 20,
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`accept=".csv,.xlsx"`, "Up to 3 files, 32 MB", "<li>first</li><li>second</li>", "<em>empty cell</em>, <code>n/a</code>"} {
		if !strings.Contains(out, want) {
			t.Errorf("upload page missing %q", want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{32 << 20, "32 MB"},
		{1000, "1000 bytes"},
		{(1 << 20) + 1, "1048577 bytes"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestFileResult_Sheet(t *testing.T) {
	raw := table.New("", "<i>name</i>", "age")
	_ = raw.AppendRow(table.Text("ann"), table.Text("null"))
	_ = raw.AppendRow(table.Text("bob"), table.Text("40"))
	cleaned := table.New("", "name", "age")
	_ = cleaned.AppendRow(table.Text("bob"), table.Int(40))

	csv := []byte("name,age\nbob,40\n")
	out := render(t, FileResult(core.FileResult{
		FileName: "people.csv",
		Sheets: []core.SheetResult{{
			ExportName: "clean_people.csv",
			Raw:        raw,
			Cleaned:    cleaned,
			Report:     clean.Report{RowsIn: 2, RowsOut: 1, ColumnsIn: 2, ColumnsOut: 2, IncompleteRows: 1},
			CSV:        csv,
		}},
	}, 5))

	for _, want := range []string{
		`href="` + string(DownloadHref(csv)) + `"`,
		`download="clean_people.csv"`,
		"&lt;i&gt;name&lt;/i&gt;",
		"<td>null</td>",
		"<td>40</td>",
		"Incomplete rows dropped: 1",
		"Rows 2 &rarr; 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "about:invalid") {
		t.Error("download link was rejected by URL sanitizing")
	}
}

func TestFileResult_Error(t *testing.T) {
	out := render(t, FileResult(core.FileResult{
		FileName: "notes.txt",
		Err:      fmt.Errorf("%w: .txt", ingest.ErrUnsupportedFormat),
	}, 5))
	if !strings.Contains(out, "<code>FILE003</code>") || strings.Contains(out, "download=") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestNewPreview(t *testing.T) {
	tbl := table.New("", "a")
	for i := 0; i < 3; i++ {
		_ = tbl.AppendRow(table.Int(int64(i)))
	}
	_ = tbl.AppendRow(table.Missing())

	v := newPreview(tbl, 2)
	if v.Shown != 2 || v.Total != 4 || len(v.Rows) != 2 {
		t.Fatalf("preview = %+v", v)
	}
	if v.Rows[1][0].Text != "1" {
		t.Errorf("row 1 = %+v", v.Rows[1][0])
	}
	if !newPreview(tbl, 10).Rows[3][0].Missing {
		t.Error("missing cell should be flagged")
	}

	out := render(t, previewTable(newPreview(tbl, 2)))
	if !strings.Contains(out, "Showing 2 of 4 rows.") {
		t.Errorf("output = %s", out)
	}
	if out := render(t, previewTable(newPreview(table.New(""), 5))); !strings.Contains(out, "No columns.") {
		t.Errorf("output = %s", out)
	}
}
