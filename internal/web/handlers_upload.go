package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/sheetsections/internal/core"
	"github.com/JonMunkholm/sheetsections/internal/logging"
	"github.com/JonMunkholm/sheetsections/internal/web/templates"
)

// multipartOverhead is allowed on top of Upload.MaxFileSize for boundaries
// and part headers.
const multipartOverhead = 1 << 20

// multipartMemory is the part of a form kept in memory; the rest spills to disk.
const multipartMemory = 8 << 20

// handleUpload extracts sections from the multipart field "file".
// The response body is the bare JSON array of sections; the history ID is
// returned in X-Extraction-ID. HTMX requests get a rendered fragment.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			err = fmt.Errorf("%w: %v", core.ErrNoFile, err)
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			err = core.ErrNoFile
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	logging.FromContext(r.Context()).Debug("upload received",
		"file", header.Filename,
		"size", header.Size,
	)

	ctx := WithRequestMetadata(r.Context(), r)
	e, err := s.service.ExtractUpload(ctx, core.UploadRequest{
		FileName: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("X-Extraction-ID", e.ID)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.SectionsPartial(e).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render sections", "error", err)
		}
		return
	}

	writeJSON(w, e.Sections)
}

// handleUploadStatus reports upload slot usage.
func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.UploadLimiterStatus())
}
