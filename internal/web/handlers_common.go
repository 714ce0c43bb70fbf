package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/tidysheet/internal/core"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to temporary files.
const multipartMemory = 8 << 20

// parseUploads reads the multipart form and returns the files found under
// the given field names, in the order they were sent. The returned cleanup
// removes temporary files.
func (s *Server) parseUploads(w http.ResponseWriter, r *http.Request, fields ...string) ([]core.Upload, func(), error) {
	noop := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, noop, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxBytes.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, noop, core.ErrNoFiles
		}
		return nil, noop, fmt.Errorf("parse upload form: %w", err)
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	var uploads []core.Upload
	for _, field := range fields {
		for _, fh := range r.MultipartForm.File[field] {
			if fh.Filename == "" {
				continue
			}
			uploads = append(uploads, uploadFromHeader(fh))
		}
	}
	if len(uploads) == 0 {
		return nil, cleanup, core.ErrNoFiles
	}
	return uploads, cleanup, nil
}

func uploadFromHeader(fh *multipart.FileHeader) core.Upload {
	return core.Upload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadSeekCloser, error) {
			return fh.Open()
		},
	}
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
