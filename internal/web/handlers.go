package web

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tidysheet/internal/clean"
	"github.com/JonMunkholm/tidysheet/internal/core"
	"github.com/JonMunkholm/tidysheet/internal/ingest"
	"github.com/JonMunkholm/tidysheet/internal/logging"
	"github.com/JonMunkholm/tidysheet/internal/web/templates"
)

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.UploadPage(templates.UploadPageParams{
		Extensions:    ingest.Extensions(),
		MissingTokens: s.service.MissingTokens(),
		Stages:        clean.Stages,
		MaxFiles:      s.cfg.Upload.MaxFiles,
		MaxBytes:      s.cfg.Upload.MaxFileSize,
	}))
}

// handleClean cleans every uploaded file and renders the results page.
// Files that fail show their own error; the page itself is still 200.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	res, ok := s.cleanBatch(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, templates.ResultsPage(res, s.service.PreviewRows()))
}

// cleanBatch parses the uploads and runs them as one batch. On failure the
// error response has been written and ok is false.
func (s *Server) cleanBatch(w http.ResponseWriter, r *http.Request) (res *core.BatchResult, ok bool) {
	uploads, cleanup, err := s.parseUploads(w, r, "files", "file")
	defer cleanup()
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, false
	}

	ctx := WithRequestMetadata(r.Context(), r)
	batch := core.NewBatch(ctx)
	logging.FromContext(ctx).Info("batch received",
		"batch_id", batch.ID.String(),
		"files", len(uploads),
	)

	res, err = s.service.CleanBatch(ctx, batch, uploads)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, false
	}
	return res, true
}

// handleHealth reports liveness and job limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"jobs":   s.service.Limiter().Status(),
	})
}

// render writes an HTML component with the given status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}
