package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/sheetsections/internal/core"
	"github.com/JonMunkholm/sheetsections/internal/logging"
	"github.com/JonMunkholm/sheetsections/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handleIndex renders the upload page with recent history.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	recent, err := s.service.ListExtractions(r.Context(), core.DefaultHistoryLimit)
	if err != nil {
		// The page is still usable without history.
		logging.FromContext(r.Context()).Error("list extractions", "error", err)
		recent = nil
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.UploadPage(recent).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render upload page", "error", err)
	}
}

// handleListExtractions returns recent extraction summaries.
func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultHistoryLimit)

	list, err := s.service.ListExtractions(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.HistoryTable(list).Render(r.Context(), w)
		return
	}
	writeJSON(w, list)
}

// handleGetExtraction returns one stored extraction with its sections.
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.GetExtraction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.SectionsPartial(e).Render(r.Context(), w)
		return
	}
	writeJSON(w, e)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
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
