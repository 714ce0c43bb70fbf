package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/tidysheet/internal/clean"
	"github.com/JonMunkholm/tidysheet/internal/ingest"
	"github.com/JonMunkholm/tidysheet/internal/logging"
	"github.com/JonMunkholm/tidysheet/internal/table"
)

// DefaultPreviewRows is the preview length when none is configured.
const DefaultPreviewRows = 5

// recordTimeout bounds a history write; it runs detached from the request.
const recordTimeout = 5 * time.Second

// Options configures a Service.
type Options struct {
	MissingTokens []string // nil selects clean.DefaultMissingTokens
	PreviewRows   int
	MaxFiles      int // 0 means unlimited
	MaxConcurrent int
	MaxWait       time.Duration
}

// Upload is one file of a batch. Open is called once, inside the job.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadSeekCloser, error)
}

// SheetResult is the outcome for one table of a file.
type SheetResult struct {
	Sheet      string
	ExportName string
	Raw        *table.Table
	Cleaned    *table.Table
	Report     clean.Report
	Kinds      []string
	Profile    []ColumnProfile
	CSV        []byte
}

// FileResult is the outcome for one uploaded file. Err is set when the file
// could not be processed; Sheets is then empty.
type FileResult struct {
	FileName string
	Sheets   []SheetResult
	Err      error
	Duration time.Duration
}

// OK reports whether the file was cleaned.
func (r FileResult) OK() bool { return r.Err == nil }

// Sheet returns the result for the named sheet, or the first sheet when
// name is empty.
func (r FileResult) Sheet(name string) (SheetResult, bool) {
	if len(r.Sheets) == 0 {
		return SheetResult{}, false
	}
	if name == "" {
		return r.Sheets[0], true
	}
	for _, s := range r.Sheets {
		if s.Sheet == name {
			return s, true
		}
	}
	return SheetResult{}, false
}

// BatchResult holds per-file results in upload order.
type BatchResult struct {
	Batch Batch
	Files []FileResult
}

// Failed returns the number of files that could not be cleaned.
func (b *BatchResult) Failed() int {
	n := 0
	for _, f := range b.Files {
		if !f.OK() {
			n++
		}
	}
	return n
}

// Service runs uploaded files through ingest, cleaning and export.
type Service struct {
	pipeline *clean.Pipeline
	limiter  *JobLimiter
	recorder RunRecorder
	opts     Options
}

// NewService creates a Service. A nil recorder disables run history.
func NewService(opts Options, recorder RunRecorder) *Service {
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = DefaultPreviewRows
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Service{
		pipeline: clean.New(opts.MissingTokens),
		limiter:  NewJobLimiter(opts.MaxConcurrent, opts.MaxWait),
		recorder: recorder,
		opts:     opts,
	}
}

// Limiter exposes the job limiter for health checks and shutdown.
func (s *Service) Limiter() *JobLimiter { return s.limiter }

// MissingTokens returns the active missing-value token set, sorted.
func (s *Service) MissingTokens() []string { return s.pipeline.MissingTokens() }

// PreviewRows returns how many rows a preview shows.
func (s *Service) PreviewRows() int { return s.opts.PreviewRows }

// RecentRuns returns recorded run history, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	return s.recorder.RecentRuns(ctx, limit)
}

// CleanBatch cleans every upload in parallel. A failing file never affects
// the others; its error is reported in its FileResult. The returned error is
// only set when the batch as a whole is rejected.
func (s *Service) CleanBatch(ctx context.Context, batch Batch, uploads []Upload) (*BatchResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	if s.opts.MaxFiles > 0 && len(uploads) > s.opts.MaxFiles {
		return nil, fmt.Errorf("%d files, limit is %d: %w", len(uploads), s.opts.MaxFiles, ErrTooManyFiles)
	}

	ctx = ContextWithBatch(ctx, batch)
	results := make([]FileResult, len(uploads))

	var g errgroup.Group
	g.SetLimit(s.limiter.MaxConcurrent())
	for i, u := range uploads {
		g.Go(func() error {
			results[i] = s.CleanFile(ctx, batch, u)
			return nil
		})
	}
	_ = g.Wait()

	res := &BatchResult{Batch: batch, Files: results}
	logging.FromContext(ctx).Info("batch cleaned",
		"batch_id", batch.ID.String(),
		"files", len(results),
		"failed", res.Failed(),
		"duration_ms", time.Since(batch.StartedAt).Milliseconds(),
	)
	return res, nil
}

// CleanFile ingests, cleans and exports a single upload.
func (s *Service) CleanFile(ctx context.Context, batch Batch, u Upload) (res FileResult) {
	start := time.Now()
	res.FileName = u.Name
	logger := logging.WithFields(ctx, "batch_id", batch.ID.String(), "file", u.Name)

	defer func() {
		res.Duration = time.Since(start)
		if res.Err != nil {
			logger.Warn("file rejected", "error", res.Err, "code", MapError(res.Err).Code)
		} else {
			logger.Info("file cleaned", "sheets", len(res.Sheets), "duration_ms", res.Duration.Milliseconds())
		}
		s.record(ctx, batch, res)
	}()

	if !ingest.Supported(u.Name) {
		res.Err = fmt.Errorf("%w: %s", ingest.ErrUnsupportedFormat, u.Name)
		return res
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		res.Err = fmt.Errorf("%s: %w", u.Name, err)
		return res
	}
	defer s.limiter.Release()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while cleaning", "panic", r)
			res.Sheets = nil
			res.Err = fmt.Errorf("internal error cleaning %s: %v", u.Name, r)
		}
	}()

	sheets, err := s.process(ctx, u)
	if err != nil {
		res.Err = err
		return res
	}
	res.Sheets = sheets
	return res
}

func (s *Service) process(ctx context.Context, u Upload) ([]SheetResult, error) {
	f, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", u.Name, err)
	}
	defer f.Close()

	tables, err := ingest.Decode(u.Name, f)
	if err != nil {
		return nil, err
	}

	multi := len(tables) > 1
	sheets := make([]SheetResult, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", u.Name, err)
		}
		sheet, err := s.cleanSheet(u.Name, t, multi)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

func (s *Service) cleanSheet(fileName string, raw *table.Table, multi bool) (SheetResult, error) {
	cleaned, rep := s.pipeline.Run(raw)

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, cleaned); err != nil {
		return SheetResult{}, fmt.Errorf("export %s: %w", fileName, err)
	}

	return SheetResult{
		Sheet:      raw.Name,
		ExportName: table.ExportName(fileName, raw.Name, multi),
		Raw:        raw,
		Cleaned:    cleaned,
		Report:     rep,
		Kinds:      clean.ColumnKinds(cleaned),
		Profile:    ProfileTable(cleaned),
		CSV:        buf.Bytes(),
	}, nil
}

// record writes run history. Failures are logged and otherwise ignored.
func (s *Service) record(ctx context.Context, batch Batch, res FileResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	base := RunRecord{
		BatchID:    batch.ID,
		FileName:   res.FileName,
		DurationMS: res.Duration.Milliseconds(),
		IPAddress:  batch.IPAddress,
		UserAgent:  batch.UserAgent,
	}

	var records []RunRecord
	if res.Err != nil {
		rec := base
		rec.Status = RunFailed
		rec.ErrorCode = MapError(res.Err).Code
		records = append(records, rec)
	}
	for _, sh := range res.Sheets {
		rec := base
		rec.Sheet = sh.Sheet
		rec.Status = RunCleaned
		rec.RowsIn = sh.Report.RowsIn
		rec.RowsOut = sh.Report.RowsOut
		rec.ColumnsIn = sh.Report.ColumnsIn
		rec.ColumnsOut = sh.Report.ColumnsOut
		records = append(records, rec)
	}

	for _, rec := range records {
		if err := s.recorder.RecordRun(ctx, rec); err != nil {
			logging.FromContext(ctx).Warn("run history write failed",
				"batch_id", batch.ID.String(),
				"file", res.FileName,
				"error", err,
			)
		}
	}
}
