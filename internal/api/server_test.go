// File path: internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rowadtech/mostashar/internal/embedding"
	"github.com/rowadtech/mostashar/internal/kb"
	"github.com/rowadtech/mostashar/internal/orchestrator"
	"github.com/rowadtech/mostashar/internal/sqlite"
)

type stubProvider struct{}

func (stubProvider) Load(_ context.Context, name string) (*kb.RawCollection, error) {
	embedder := embedding.NewFallbackEmbedder(embedding.Dim)
	texts := map[string][]string{
		kb.CollectionActivity:    {"فندق في القاهرة", "ترخيص مطعم في الجيزة"},
		kb.CollectionDecision104: {"اعفاء ضريبي وفق قرار 104"},
		kb.CollectionIndustrial:  {"قائمة المناطق الصناعية في الشرقية"},
	}
	raw := &kb.RawCollection{Name: name, Dimension: embedding.Dim}
	for i, text := range texts[name] {
		raw.Data = append(raw.Data, kb.RawRecord{
			ID:       fmt.Sprintf("%s-%d", name, i),
			Original: map[string]interface{}{"name": text},
			Embeddings: map[string]map[string][]float32{
				"local": {kb.VariantFull: embedder.EmbedWithMeta(text, nil)},
			},
		})
	}
	return raw, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.OpenWithConfig(sqlite.Config{
		Path:         filepath.Join(t.TempDir(), "state.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 2,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	orch := orchestrator.New(orchestrator.Config{Embedding: embedding.DefaultConfig()}, stubProvider{}, store, nil, nil)
	if err := orch.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	srv, err := NewServer(orch, store)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["state"] != "ready" {
		t.Fatalf("expected ready state, got %v", body["state"])
	}
}

func TestQueryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"query":"فندق في القاهرة"}`))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp orchestrator.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if len(resp.Results) == 0 || resp.Results[0].Database != kb.CollectionActivity {
		t.Fatalf("expected activity results, got %+v", resp.Results)
	}
}

func TestQueryEndpointRejectsEmptyBody(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"query":"  "}`))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTeachThenQueryReturnsLearned(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	teach := httptest.NewRequest(http.MethodPost, "/v1/teach",
		strings.NewReader(`{"question":"كم رسوم السجل التجاري","answer":"300 جنيه"}`))
	srv.ServeHTTP(rec, teach)
	if rec.Code != http.StatusOK {
		t.Fatalf("teach failed: %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	query := httptest.NewRequest(http.MethodPost, "/v1/query",
		strings.NewReader(`{"query":"كم رسوم السجل التجاري"}`))
	srv.ServeHTTP(rec, query)
	var resp orchestrator.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Type != orchestrator.TypeLearned || resp.Answer != "300 جنيه" {
		t.Fatalf("expected learned answer, got %+v", resp)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if _, ok := body["queries"]; !ok {
		t.Fatal("expected queries section in stats")
	}
}

func TestContextEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/query",
		strings.NewReader(`{"query":"فندق في القاهرة"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("query failed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/context", nil))
	var memory orchestrator.ContextMemory
	if err := json.Unmarshal(rec.Body.Bytes(), &memory); err != nil {
		t.Fatalf("decode context: %v", err)
	}
	if len(memory.History) != 1 {
		t.Fatalf("expected one history entry, got %d", len(memory.History))
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/context", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear failed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/context", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &memory); err != nil {
		t.Fatalf("decode cleared context: %v", err)
	}
	if len(memory.History) != 0 {
		t.Fatal("expected empty history after clear")
	}
}

func TestExportImportEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/teach",
		strings.NewReader(`{"question":"سؤال للتصدير","answer":"اجابه"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("teach failed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export failed: %d", rec.Code)
	}
	exported := rec.Body.String()

	other := newTestServer(t)
	rec = httptest.NewRecorder()
	other.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/import", strings.NewReader(exported)))
	if rec.Code != http.StatusOK {
		t.Fatalf("import failed: %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	other.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/learned", nil))
	var learned map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &learned); err != nil {
		t.Fatalf("decode learned: %v", err)
	}
	var count int
	if err := json.Unmarshal(learned["count"], &count); err != nil || count != 1 {
		t.Fatalf("expected 1 imported record, got %v (%v)", count, err)
	}
}

func TestCollectionsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/collections", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Collections []string `json:"collections"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode collections: %v", err)
	}
	if len(body.Collections) != 3 {
		t.Fatalf("expected 3 collections, got %v", body.Collections)
	}
}
