// File path: internal/api/handlers.go
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rowadtech/mostashar/internal/common"
	"github.com/rowadtech/mostashar/internal/orchestrator"
)

// maxBodyBytes bounds request payloads; import documents are the largest
// accepted input.
const maxBodyBytes = 8 << 20

type queryRequest struct {
	Query string `json:"query"`
}

type teachRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Metadata string `json:"metadata,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	state := s.orch.State()
	status := http.StatusOK
	if state != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"state":           state,
		"model_available": s.orch.ModelAvailable(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	resp := s.orch.ProcessQuery(r.Context(), query)
	writeJSON(w, statusFor(resp), resp)
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	resp := s.orch.ProcessVoiceQuery(r.Context(), query)
	writeJSON(w, statusFor(resp), resp)
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req queryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query required"))
		return "", false
	}
	return query, true
}

// statusFor maps response types onto HTTP codes: busy is 429, everything
// else is 200 since failures are structured responses, not protocol errors.
func statusFor(resp *orchestrator.Response) int {
	if resp.Type == orchestrator.TypeBusy {
		return http.StatusTooManyRequests
	}
	return http.StatusOK
}

func (s *Server) handleTeach(w http.ResponseWriter, r *http.Request) {
	var req teachRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	record, err := s.orch.Teach(r.Context(), req.Question, req.Answer, req.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":     s.orch.State(),
		"queries":   s.orch.Stats(),
		"embedding": s.orch.EmbeddingStats(),
	})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Context())
}

func (s *Server) handleContextClear(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.ClearContext(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"collections": s.orch.Collections(),
		"meta_index":  s.orch.MetaIndex(),
	})
}

func (s *Server) handleLearned(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.AllLearned(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records, "count": len(records)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="mostashar-export.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.Import(r.Context(), data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := common.LogEntries()
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}
