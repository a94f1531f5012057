// Package chi exposes the query pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/metrics"
	"github.com/Arthursca/multi-agent-medico/internal/rag"
)

const maxQueryBytes = 1 << 16

// QueryRunner is the pipeline capability the server needs.
type QueryRunner interface {
	Run(ctx context.Context, query string, k int) rag.Result
}

// Pinger reports vector store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server implements the HTTP API.
type Server struct {
	pipeline QueryRunner
	pinger   Pinger
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(pipeline QueryRunner, pinger Pinger, logger *zap.Logger) *Server {
	return &Server{pipeline: pipeline, pinger: pinger, logger: logger}
}

// Routes mounts the API on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Use(metrics.Middleware())
	r.Post("/v1/query", s.handleQuery)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

type queryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

type queryResponse struct {
	Answer     string `json:"answer"`
	IsRelevant bool   `json:"is_relevant"`
}

// handleQuery handles POST /v1/query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	result := s.pipeline.Run(r.Context(), req.Query, req.K)
	writeJSON(w, http.StatusOK, queryResponse{
		Answer:     result.Response,
		IsRelevant: result.IsRelevant,
	})
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
