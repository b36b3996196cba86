// File path: internal/api/server.go

// Package api exposes the query engine over HTTP. Handlers translate JSON
// requests into orchestrator calls; all presentation stays with the caller.
package api

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/rowadtech/mostashar/internal/common"
	"github.com/rowadtech/mostashar/internal/orchestrator"
	"github.com/rowadtech/mostashar/internal/sqlite"
)

// Server routes HTTP requests to the orchestrator.
type Server struct {
	router chi.Router
	orch   *orchestrator.Orchestrator
	store  *sqlite.Store
}

// NewServer builds the router around an initialized orchestrator.
func NewServer(orch *orchestrator.Orchestrator, store *sqlite.Store) (*Server, error) {
	if orch == nil {
		return nil, fmt.Errorf("orchestrator required")
	}
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	srv := &Server{router: chi.NewRouter(), orch: orch, store: store}
	srv.routes()
	common.Logger().Info("api: server ready")
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/debug/vars", expvar.Handler())

	s.router.Post("/v1/query", s.handleQuery)
	s.router.Post("/v1/voice", s.handleVoice)
	s.router.Post("/v1/teach", s.handleTeach)
	s.router.Get("/v1/stats", s.handleStats)
	s.router.Get("/v1/context", s.handleContext)
	s.router.Delete("/v1/context", s.handleContextClear)
	s.router.Get("/v1/collections", s.handleCollections)
	s.router.Get("/v1/learned", s.handleLearned)
	s.router.Get("/v1/export", s.handleExport)
	s.router.Post("/v1/import", s.handleImport)
	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
