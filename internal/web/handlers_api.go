package web

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/JonMunkholm/tidysheet/internal/clean"
	"github.com/JonMunkholm/tidysheet/internal/core"
	"github.com/JonMunkholm/tidysheet/internal/table"
)

// CleanResponse is the JSON body of POST /api/clean.
type CleanResponse struct {
	BatchID string         `json:"batch_id"`
	Files   []FileResponse `json:"files"`
}

// FileResponse is one file of a CleanResponse. Exactly one of Error and
// Sheets is set.
type FileResponse struct {
	FileName   string          `json:"file_name"`
	DurationMS int64           `json:"duration_ms"`
	Error      *ErrorResponse  `json:"error,omitempty"`
	Sheets     []SheetResponse `json:"sheets,omitempty"`
}

// SheetResponse describes one cleaned table. Preview cells are strings,
// with null for missing values.
type SheetResponse struct {
	Sheet          string               `json:"sheet,omitempty"`
	ExportName     string               `json:"export_name"`
	Columns        []string             `json:"columns"`
	Kinds          []string             `json:"kinds"`
	Report         clean.Report         `json:"report"`
	Profile        []core.ColumnProfile `json:"profile"`
	RawColumns     []string             `json:"raw_columns"`
	RawPreview     [][]*string          `json:"raw_preview"`
	CleanedPreview [][]*string          `json:"cleaned_preview"`
	CSV            string               `json:"csv"`
}

// handleAPIClean is the JSON form of handleClean.
func (s *Server) handleAPIClean(w http.ResponseWriter, r *http.Request) {
	res, ok := s.cleanBatch(w, r)
	if !ok {
		return
	}

	resp := CleanResponse{
		BatchID: res.Batch.ID.String(),
		Files:   make([]FileResponse, len(res.Files)),
	}
	for i, f := range res.Files {
		resp.Files[i] = s.fileResponse(f)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) fileResponse(f core.FileResult) FileResponse {
	out := FileResponse{
		FileName:   f.FileName,
		DurationMS: f.Duration.Milliseconds(),
	}
	if !f.OK() {
		e := newErrorResponse(core.MapError(f.Err))
		out.Error = &e
		return out
	}

	n := s.service.PreviewRows()
	for _, sh := range f.Sheets {
		out.Sheets = append(out.Sheets, SheetResponse{
			Sheet:          sh.Sheet,
			ExportName:     sh.ExportName,
			Columns:        sh.Cleaned.Columns,
			Kinds:          sh.Kinds,
			Report:         sh.Report,
			Profile:        sh.Profile,
			RawColumns:     sh.Raw.Columns,
			RawPreview:     previewCells(sh.Raw, n),
			CleanedPreview: previewCells(sh.Cleaned, n),
			CSV:            string(sh.CSV),
		})
	}
	return out
}

func previewCells(t *table.Table, n int) [][]*string {
	format := table.NewFormatter(t)
	head := t.Head(n)
	rows := make([][]*string, len(head.Rows))
	for i, row := range head.Rows {
		cells := make([]*string, len(row))
		for j, v := range row {
			if v.IsMissing() {
				continue
			}
			s := format.Format(j, v)
			cells[j] = &s
		}
		rows[i] = cells
	}
	return rows
}

// handleAPIDownload cleans a single uploaded file and returns the cleaned
// CSV as an attachment. The optional "sheet" form value picks a sheet of a
// workbook; the first sheet is used otherwise.
func (s *Server) handleAPIDownload(w http.ResponseWriter, r *http.Request) {
	uploads, cleanup, err := s.parseUploads(w, r, "file")
	defer cleanup()
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if len(uploads) > 1 {
		err := fmt.Errorf("%d files sent to the download endpoint: %w", len(uploads), core.ErrTooManyFiles)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	batch := core.NewBatch(ctx)
	res := s.service.CleanFile(core.ContextWithBatch(ctx, batch), batch, uploads[0])
	if !res.OK() {
		s.respondError(w, r, res.Err, statusFor(res.Err))
		return
	}

	sheetName := r.FormValue("sheet")
	sh, ok := res.Sheet(sheetName)
	if !ok {
		err := fmt.Errorf("%w: %q in %s", core.ErrSheetNotFound, sheetName, res.FileName)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": sh.ExportName}))
	w.Header().Set("X-Batch-ID", batch.ID.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(sh.CSV)
}

// handleHistory returns recent run records, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultHistoryLimit)
	if limit > 500 {
		limit = 500
	}

	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}
