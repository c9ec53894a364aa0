package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/moriyama-ds/slipcheck/internal/core"
)

// handleIndex serves the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCheck accepts a multipart upload under the "file" field, runs
// the checker, and returns the full result including violations.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	// Allow some slack over the file limit for multipart framing.
	maxSize := s.cfg.Check.MaxFileSize + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondError(w, r, http.StatusRequestEntityTooLarge, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "failed to read file")
		return
	}

	result, err := s.service.Check(r.Context(), header.Filename, data)
	switch {
	case errors.Is(err, core.ErrEmptyFile):
		respondError(w, r, http.StatusBadRequest, "the uploaded file is empty")
		return
	case errors.Is(err, core.ErrFileTooLarge):
		respondError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("the file exceeds the %d byte limit", s.cfg.Check.MaxFileSize))
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, "check failed")
		return
	}

	respondJSON(w, r, http.StatusOK, result)
}

// handleCheckResult returns a finished run by ID.
func (s *Server) handleCheckResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Result(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, "check result not found or expired")
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// handleCheckReport downloads the violation list as a CSV file.
func (s *Server) handleCheckReport(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Result(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, "check result not found or expired")
		return
	}

	data, err := result.ReportCSV()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.ReportFileName()))
	w.Write(data)
}

// handleHistory lists recent runs from the database. Responds 503 when
// history is not configured.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		respondError(w, r, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.runs.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "failed to load run history")
		return
	}
	respondJSON(w, r, http.StatusOK, runs)
}
