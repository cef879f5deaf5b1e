package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rpattn/regwatch/internal/changelog"
	"github.com/rpattn/regwatch/internal/pipeline"
	"github.com/rpattn/regwatch/internal/repository"
	"github.com/rpattn/regwatch/internal/snapshot"
	"github.com/rpattn/regwatch/internal/summary"
)

const defaultSearchLimit = 25

type detectRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// handleDetect runs detection between two labels, or between the two most
// recent snapshots when the body names none.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	// An empty body means "latest pair".
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var (
		result pipeline.Result
		err    error
	)
	if req.Old == "" && req.New == "" {
		result, err = s.pipeline.DetectLatest(r.Context())
	} else if req.Old == "" || req.New == "" {
		http.Error(w, "both old and new labels are required", http.StatusBadRequest)
		return
	} else {
		result, err = s.pipeline.DetectBetween(r.Context(), req.Old, req.New)
	}
	if err != nil {
		switch {
		case errors.Is(err, snapshot.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, pipeline.ErrNotEnoughSnapshots):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.summaries.LoadAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	sum, err := s.summaries.Load(date)
	if err != nil {
		if errors.Is(err, summary.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	log, err := s.logs.Load(date)
	if err != nil {
		if errors.Is(err, changelog.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, log.Rows())
}

func (s *Server) handleChangesExport(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	log, err := s.logs.Load(date)
	if err != nil {
		if errors.Is(err, changelog.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	path, err := s.logs.ExportXLSX(log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

func (s *Server) handleCompanySearch(w http.ResponseWriter, r *http.Request) {
	if s.companies == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "query parameter q is required", http.StatusBadRequest)
		return
	}
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := s.companies.Search(r.Context(), query, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	if s.companies == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}

	cin := r.PathValue("cin")
	record, err := s.companies.GetByCIN(r.Context(), cin)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}

	stats, err := s.stats.Statistics(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if s.responder == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	response, err := s.responder.Answer(r.Context(), req.Query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
