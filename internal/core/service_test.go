package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tidysheet/internal/ingest"
)

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }

func upload(name, data string) Upload {
	return bytesUpload(name, []byte(data))
}

func bytesUpload(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadSeekCloser, error) {
			return nopCloser{bytes.NewReader(data)}, nil
		},
	}
}

type memRecorder struct {
	mu   sync.Mutex
	runs []RunRecord
	err  error
}

func (m *memRecorder) RecordRun(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, rec)
	return m.err
}

func (m *memRecorder) RecentRuns(_ context.Context, _ int) ([]RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RunRecord(nil), m.runs...), nil
}

func testBatch() Batch {
	ctx := ContextWithIPAddress(context.Background(), "10.0.0.1")
	ctx = ContextWithUserAgent(ctx, "test-agent")
	return NewBatch(ctx)
}

func TestCleanBatch_IsolatesFailures(t *testing.T) {
	rec := &memRecorder{}
	svc := NewService(Options{MaxConcurrent: 2, MaxWait: time.Second}, rec)
	batch := testBatch()

	res, err := svc.CleanBatch(context.Background(), batch, []Upload{
		upload("people.csv", "Name,Age\nann,30\nbob,null\nann,30\n"),
		upload("broken.csv", "a,b\n1,\"x\"y\n"),
		upload("notes.txt", "hello"),
		upload("empty.csv", ""),
	})
	if err != nil {
		t.Fatalf("CleanBatch() error = %v", err)
	}
	if len(res.Files) != 4 {
		t.Fatalf("got %d results, want 4", len(res.Files))
	}
	if res.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", res.Failed())
	}

	people := res.Files[0]
	if !people.OK() || people.FileName != "people.csv" {
		t.Fatalf("people.csv should succeed, got %+v", people.Err)
	}
	sheet := people.Sheets[0]
	if sheet.ExportName != "clean_people.csv" {
		t.Errorf("ExportName = %q", sheet.ExportName)
	}
	if got := string(sheet.CSV); got != "name,age\nann,30\n" {
		t.Errorf("CSV = %q", got)
	}
	if sheet.Raw.NumRows() != 3 || sheet.Cleaned.NumRows() != 1 {
		t.Errorf("raw rows = %d, cleaned rows = %d", sheet.Raw.NumRows(), sheet.Cleaned.NumRows())
	}
	if strings.Join(sheet.Kinds, ",") != "text,integer" {
		t.Errorf("Kinds = %v", sheet.Kinds)
	}

	if !errors.Is(res.Files[1].Err, ingest.ErrUnreadable) {
		t.Errorf("broken.csv error = %v, want ErrUnreadable", res.Files[1].Err)
	}
	if !errors.Is(res.Files[2].Err, ingest.ErrUnsupportedFormat) {
		t.Errorf("notes.txt error = %v, want ErrUnsupportedFormat", res.Files[2].Err)
	}

	empty := res.Files[3]
	if !empty.OK() || len(empty.Sheets[0].CSV) != 0 {
		t.Errorf("empty file should clean to empty output, got %+v", empty)
	}

	if len(rec.runs) != 4 {
		t.Fatalf("recorded %d runs, want 4", len(rec.runs))
	}
	for _, r := range rec.runs {
		if r.BatchID != batch.ID || r.IPAddress != "10.0.0.1" || r.UserAgent != "test-agent" {
			t.Errorf("run record missing batch metadata: %+v", r)
		}
		switch r.FileName {
		case "broken.csv":
			if r.Status != RunFailed || r.ErrorCode != "FILE002" {
				t.Errorf("broken.csv run = %+v", r)
			}
		case "notes.txt":
			if r.Status != RunFailed || r.ErrorCode != "FILE003" {
				t.Errorf("notes.txt run = %+v", r)
			}
		case "people.csv":
			if r.Status != RunCleaned || r.RowsIn != 3 || r.RowsOut != 1 {
				t.Errorf("people.csv run = %+v", r)
			}
		}
	}
}

func TestCleanBatch_Rejections(t *testing.T) {
	svc := NewService(Options{MaxFiles: 1}, nil)

	if _, err := svc.CleanBatch(context.Background(), testBatch(), nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("empty batch error = %v, want ErrNoFiles", err)
	}

	_, err := svc.CleanBatch(context.Background(), testBatch(), []Upload{
		upload("a.csv", "x\n1\n"),
		upload("b.csv", "x\n2\n"),
	})
	if !errors.Is(err, ErrTooManyFiles) {
		t.Errorf("oversized batch error = %v, want ErrTooManyFiles", err)
	}
}

func TestCleanBatch_KeepsUploadOrder(t *testing.T) {
	svc := NewService(Options{MaxConcurrent: 4}, nil)

	var uploads []Upload
	names := []string{"a.csv", "b.csv", "c.csv", "d.csv", "e.csv", "f.csv"}
	for _, n := range names {
		uploads = append(uploads, upload(n, "v\n"+n+"\n"))
	}

	res, err := svc.CleanBatch(context.Background(), testBatch(), uploads)
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range names {
		if res.Files[i].FileName != n {
			t.Errorf("result %d = %q, want %q", i, res.Files[i].FileName, n)
		}
	}
	if svc.Limiter().ActiveCount() != 0 {
		t.Error("limiter slots were not released")
	}
}

func TestCleanFile_MultiSheetWorkbook(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Q1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Q2 Sales"); err != nil {
		t.Fatal(err)
	}
	for _, sheet := range []string{"Q1", "Q2 Sales"} {
		if err := f.SetSheetRow(sheet, "A1", &[]any{"Region", "Total"}); err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, "A2", &[]any{"north", 12.5}); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	svc := NewService(Options{}, nil)
	res := svc.CleanFile(context.Background(), testBatch(), bytesUpload("report.xlsx", buf.Bytes()))
	if !res.OK() {
		t.Fatalf("CleanFile() error = %v", res.Err)
	}
	if len(res.Sheets) != 2 {
		t.Fatalf("got %d sheets, want 2", len(res.Sheets))
	}
	if res.Sheets[0].ExportName != "clean_report_Q1.csv" || res.Sheets[1].ExportName != "clean_report_Q2_Sales.csv" {
		t.Errorf("export names = %q, %q", res.Sheets[0].ExportName, res.Sheets[1].ExportName)
	}

	sh, ok := res.Sheet("Q2 Sales")
	if !ok || string(sh.CSV) != "region,total\nnorth,12.5\n" {
		t.Errorf("Sheet(Q2 Sales) = %q, %v", sh.CSV, ok)
	}
	if first, _ := res.Sheet(""); first.Sheet != "Q1" {
		t.Errorf("Sheet(\"\") should return the first sheet, got %q", first.Sheet)
	}
	if _, ok := res.Sheet("missing"); ok {
		t.Error("unknown sheet should not be found")
	}
}

func TestCleanFile_BusyLimiter(t *testing.T) {
	svc := NewService(Options{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond}, nil)
	if !svc.Limiter().TryAcquire() {
		t.Fatal("could not take the only slot")
	}
	defer svc.Limiter().Release()

	res := svc.CleanFile(context.Background(), testBatch(), upload("a.csv", "x\n1\n"))
	if !errors.Is(res.Err, ErrTooManyJobs) {
		t.Errorf("error = %v, want ErrTooManyJobs", res.Err)
	}
	if MapError(res.Err).Code != "UPL002" {
		t.Errorf("code = %q, want UPL002", MapError(res.Err).Code)
	}
}

func TestCleanFile_OpenError(t *testing.T) {
	svc := NewService(Options{}, nil)
	u := Upload{Name: "a.csv", Open: func() (io.ReadSeekCloser, error) {
		return nil, errors.New("disk gone")
	}}
	res := svc.CleanFile(context.Background(), testBatch(), u)
	if res.OK() || !strings.Contains(res.Err.Error(), "disk gone") {
		t.Errorf("error = %v", res.Err)
	}
}

func TestCleanFile_RecorderErrorIgnored(t *testing.T) {
	rec := &memRecorder{err: errors.New("db down")}
	svc := NewService(Options{}, rec)
	res := svc.CleanFile(context.Background(), testBatch(), upload("a.csv", "x\n1\n"))
	if !res.OK() {
		t.Errorf("history failure should not fail the file: %v", res.Err)
	}
}

func TestService_Accessors(t *testing.T) {
	svc := NewService(Options{MissingTokens: []string{"X", "none"}}, nil)
	if svc.PreviewRows() != DefaultPreviewRows {
		t.Errorf("PreviewRows() = %d", svc.PreviewRows())
	}
	if got := strings.Join(svc.MissingTokens(), ","); got != "none,x" {
		t.Errorf("MissingTokens() = %q", got)
	}
	runs, err := svc.RecentRuns(context.Background(), 10)
	if err != nil || len(runs) != 0 {
		t.Errorf("RecentRuns() = %v, %v", runs, err)
	}
}

func TestBatchContext(t *testing.T) {
	b := testBatch()
	if b.ID.String() == "" || b.StartedAt.IsZero() {
		t.Errorf("NewBatch() = %+v", b)
	}
	ctx := ContextWithBatch(context.Background(), b)
	got, ok := BatchFromContext(ctx)
	if !ok || got.ID != b.ID {
		t.Errorf("BatchFromContext() = %+v, %v", got, ok)
	}
	if _, ok := BatchFromContext(context.Background()); ok {
		t.Error("empty context should carry no batch")
	}
}
