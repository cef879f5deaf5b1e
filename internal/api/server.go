// Package api assembles the HTTP surface over ingestion, detection, the
// master dataset and the query responder.
package api

import (
	"net/http"

	"github.com/rpattn/regwatch/internal/changelog"
	"github.com/rpattn/regwatch/internal/insights"
	"github.com/rpattn/regwatch/internal/pipeline"
	"github.com/rpattn/regwatch/internal/repository"
	"github.com/rpattn/regwatch/internal/summary"
)

// Server holds the handler dependencies. Database-backed fields may be nil
// when no database is configured; their endpoints then answer 503.
type Server struct {
	ingest    http.Handler
	pipeline  *pipeline.Pipeline
	logs      *changelog.Writer
	summaries *summary.Reporter
	companies repository.CompanyRepository
	stats     repository.StatisticsReader
	responder *insights.Responder
}

// New wires the API server.
func New(ingest http.Handler, pl *pipeline.Pipeline, logs *changelog.Writer,
	summaries *summary.Reporter, companies repository.CompanyRepository,
	stats repository.StatisticsReader, responder *insights.Responder) *Server {
	return &Server{
		ingest:    ingest,
		pipeline:  pl,
		logs:      logs,
		summaries: summaries,
		companies: companies,
		stats:     stats,
		responder: responder,
	}
}

// Routes returns the request multiplexer.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /api/ingest", s.ingest)
	mux.HandleFunc("POST /api/detect", s.handleDetect)
	mux.HandleFunc("GET /api/summaries", s.handleSummaries)
	mux.HandleFunc("GET /api/summaries/{date}", s.handleSummary)
	mux.HandleFunc("GET /api/changes/{date}", s.handleChanges)
	mux.HandleFunc("GET /api/changes/{date}/export", s.handleChangesExport)
	mux.HandleFunc("GET /api/companies/search", s.handleCompanySearch)
	mux.HandleFunc("GET /api/companies/{cin}", s.handleCompany)
	mux.HandleFunc("GET /api/statistics", s.handleStatistics)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	return mux
}
