// File path: internal/orchestrator/orchestrator.go

// Package orchestrator wires normalization, intent classification, search,
// learning, and answer synthesis into the single query pipeline, and owns
// the engine's lifecycle state machine.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rowadtech/mostashar/internal/common"
	"github.com/rowadtech/mostashar/internal/common/telemetry"
	"github.com/rowadtech/mostashar/internal/embedding"
	"github.com/rowadtech/mostashar/internal/intent"
	"github.com/rowadtech/mostashar/internal/kb"
	"github.com/rowadtech/mostashar/internal/llm"
	"github.com/rowadtech/mostashar/internal/normalize"
	"github.com/rowadtech/mostashar/internal/queryparse"
	"github.com/rowadtech/mostashar/internal/search"
	"github.com/rowadtech/mostashar/internal/sqlite"
)

// Lifecycle states.
const (
	StateUninitialized int32 = iota
	StateInitializing
	StateReady
	StateError
)

var stateNames = map[int32]string{
	StateUninitialized: "uninitialized",
	StateInitializing:  "initializing",
	StateReady:         "ready",
	StateError:         "error",
}

// statisticalTopK and statisticalMinSim widen the statistical handler's
// sweep: it aggregates counts, it does not need one precise hit.
const (
	statisticalTopK   = 200
	statisticalMinSim = 0.20
)

// Stats tracks query counters and a plain running average of response time.
type Stats struct {
	Total         int64            `json:"total"`
	Success       int64            `json:"success"`
	Failure       int64            `json:"failure"`
	Rejected      int64            `json:"rejected"`
	LearnedHits   int64            `json:"learned_hits"`
	AvgResponseMs float64          `json:"avg_response_ms"`
	ByDatabase    map[string]int64 `json:"by_database"`
}

// Config carries the orchestrator's construction parameters.
type Config struct {
	CollectionsDir string
	Embedding      embedding.Config
}

// Orchestrator is the engine core. One query is processed at a time; a
// second query arriving while one is in flight is rejected, never queued.
type Orchestrator struct {
	cfg        Config
	provider   kb.Provider
	store      *sqlite.Store
	model      embedding.Embedder
	answers    llm.Provider
	state      atomic.Int32
	busy       atomic.Bool
	embedder   *embedding.Provider
	engine     *search.Engine
	classifier *intent.Classifier
	meta       kb.MetaIndex

	mu      sync.Mutex
	memory  ContextMemory
	stats   Stats
	initErr error
}

// New constructs an orchestrator with explicit dependencies. model may be
// nil; the embedding provider then runs on its fallback alone.
func New(cfg Config, provider kb.Provider, store *sqlite.Store, model embedding.Embedder, answers llm.Provider) *Orchestrator {
	if answers == nil {
		answers = llm.NewLocalProvider()
	}
	o := &Orchestrator{
		cfg:      cfg,
		provider: provider,
		store:    store,
		model:    model,
		answers:  answers,
	}
	o.stats.ByDatabase = make(map[string]int64)
	return o
}

// State reports the lifecycle state name.
func (o *Orchestrator) State() string {
	return stateNames[o.state.Load()]
}

// InitError returns the initialization failure, if any.
func (o *Orchestrator) InitError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initErr
}

// Initialize runs the startup sequence. Every step must succeed; any
// failure moves the orchestrator to the error state and is returned.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if !o.state.CompareAndSwap(StateUninitialized, StateInitializing) {
		return fmt.Errorf("initialize: invalid state %s", o.State())
	}
	err := o.initialize(ctx)
	if err != nil {
		o.mu.Lock()
		o.initErr = err
		o.mu.Unlock()
		o.state.Store(StateError)
		common.Logger().Error("orchestrator: initialization failed", "error", err)
		return err
	}
	o.state.Store(StateReady)
	common.Logger().Info("orchestrator: ready")
	return nil
}

func (o *Orchestrator) initialize(ctx context.Context) error {
	logger := common.Logger()
	if o.provider == nil {
		return fmt.Errorf("collection provider required")
	}
	if o.store == nil {
		return fmt.Errorf("persistent store required")
	}

	collections := make(map[string]*kb.Collection, len(kb.CollectionNames))
	for _, name := range kb.CollectionNames {
		raw, err := o.provider.Load(ctx, name)
		if err != nil {
			return fmt.Errorf("load collection %s: %w", name, err)
		}
		collection, err := kb.Build(raw, name)
		if err != nil {
			return fmt.Errorf("build collection %s: %w", name, err)
		}
		collections[name] = collection
	}
	if err := kb.Validate(collections); err != nil {
		return fmt.Errorf("validate collections: %w", err)
	}

	o.meta = kb.BuildMetaIndex(collections, nil)
	if err := o.store.SaveMetaIndex(ctx, map[string][]string{
		"governorates": o.meta.Governorates,
		"locations":    o.meta.Locations,
		"activities":   o.meta.Activities,
		"authorities":  o.meta.Authorities,
	}); err != nil {
		logger.Warn("orchestrator: meta index not persisted", "error", err)
	}

	o.embedder = embedding.NewProvider(o.cfg.Embedding, o.model)
	o.embedder.Init(ctx)
	o.engine = search.NewEngine(collections, o.embedder)
	o.classifier = intent.NewClassifier(o.meta)

	if data, err := o.store.LoadContext(ctx); err != nil {
		logger.Warn("orchestrator: context not restored", "error", err)
	} else {
		o.mu.Lock()
		o.memory.restore(data)
		o.mu.Unlock()
	}
	return nil
}

// ProcessQuery runs the full pipeline for one typed query.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query string) *Response {
	return o.process(ctx, query, false)
}

// ProcessVoiceQuery handles recognized speech: identical pipeline behind the
// voice normalization preset.
func (o *Orchestrator) ProcessVoiceQuery(ctx context.Context, query string) *Response {
	return o.process(ctx, query, true)
}

func (o *Orchestrator) process(ctx context.Context, query string, voice bool) (resp *Response) {
	start := time.Now()
	logger := common.Logger()

	if o.state.Load() != StateReady {
		resp = errorResponse()
		resp.Message = "المحرك غير جاهز بعد."
		return resp
	}
	if !o.busy.CompareAndSwap(false, true) {
		o.mu.Lock()
		o.stats.Rejected++
		o.mu.Unlock()
		telemetry.RecordQuery(false, true, time.Since(start))
		return busyResponse()
	}
	defer o.busy.Store(false)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("orchestrator: panic during query", "panic", r)
			resp = errorResponse()
		}
		resp.DurationMs = time.Since(start).Milliseconds()
		o.finish(ctx, query, resp, time.Since(start))
	}()

	if voice {
		query = normalize.ForVoice(query)
	}
	normalized := normalize.ForEmbedding(query)
	if normalized == "" {
		resp = noResultsResponse()
		return resp
	}

	o.mu.Lock()
	lastEntity := o.memory.LastEntity
	o.mu.Unlock()
	resolved := queryparse.ResolvePronouns(normalized, lastEntity)

	if learned, err := o.store.Lookup(ctx, resolved); err != nil {
		logger.Warn("orchestrator: learned lookup failed", "error", err)
	} else if learned != nil {
		telemetry.RecordLearnedHit()
		o.mu.Lock()
		o.stats.LearnedHits++
		o.mu.Unlock()
		resp = &Response{
			Success: true,
			Type:    TypeLearned,
			Query:   resolved,
			Answer:  learned.Answer,
		}
		return resp
	}

	classification := o.classifier.Classify(resolved)
	parsed := queryparse.Parse(resolved)
	logger.Debug("orchestrator: query analyzed",
		"query_type", parsed.QueryType,
		"intent", classification.Primary,
		"collections", classification.Collections,
	)

	switch {
	case parsed.QueryType == queryparse.TypeStatistical:
		resp = o.handleStatistical(ctx, resolved, classification)
	case parsed.QueryType == queryparse.TypeComparative:
		resp = o.handleComparative(ctx, resolved, classification, parsed)
	case classification.CrossReference && len(parsed.SubQueries) > 1:
		resp = o.handleCrossReference(ctx, classification, parsed)
	default:
		resp = o.handleSimple(ctx, resolved, classification, search.TypeSimple)
	}
	resp.Query = resolved
	resp.QueryType = parsed.QueryType

	o.mu.Lock()
	o.memory.remember(HistoryEntry{
		Query:     resolved,
		QueryType: parsed.QueryType,
		Answer:    resp.Answer,
		Success:   resp.Success,
	}, classification.Primary, classification.Entities)
	payload := o.memory.marshal()
	o.mu.Unlock()
	if err := o.store.SaveContext(ctx, payload); err != nil {
		logger.Warn("orchestrator: context not persisted", "error", err)
	}
	return resp
}

// finish runs the per-query accounting shared by every exit path.
func (o *Orchestrator) finish(_ context.Context, _ string, resp *Response, elapsed time.Duration) {
	if resp.Type == TypeBusy {
		return
	}
	o.mu.Lock()
	o.stats.Total++
	if resp.Success {
		o.stats.Success++
	} else {
		o.stats.Failure++
	}
	for _, r := range resp.Results {
		o.stats.ByDatabase[r.Database]++
	}
	n := float64(o.stats.Total)
	o.stats.AvgResponseMs = (o.stats.AvgResponseMs*(n-1) + float64(elapsed.Milliseconds())) / n
	o.mu.Unlock()
	telemetry.RecordQuery(resp.Success, false, elapsed)
}

// handleSimple is the default path: parallel search over the suggested
// collections, then the tiered acceptance policy.
func (o *Orchestrator) handleSimple(ctx context.Context, query string, classification intent.Classification, queryType string) *Response {
	out := o.engine.ParallelSearch(ctx, query, classification.Collections, 10, search.Config{QueryType: queryType})
	merged := out.Merge()
	if len(merged) == 0 {
		return noResultsResponse()
	}
	accepted, quality := acceptResults(merged)
	if len(accepted) == 0 {
		return lowQualityResponse(merged[0].Score)
	}
	resp := &Response{
		Success:       true,
		Type:          TypeResults,
		Quality:       quality,
		Results:       accepted,
		TopSimilarity: merged[0].Score,
	}
	if quality == QualityWeak {
		resp.Note = noteWeakResults
	}
	resp.Answer = o.synthesize(ctx, query, accepted)
	return resp
}

// handleStatistical sweeps every suggested collection broadly and reports
// counts instead of individual hits.
func (o *Orchestrator) handleStatistical(ctx context.Context, query string, classification intent.Classification) *Response {
	out := o.engine.ParallelSearch(ctx, query, classification.Collections, statisticalTopK, search.Config{
		QueryType:     search.TypeStatistical,
		MinSimilarity: statisticalMinSim,
	})
	analysis := &Analysis{ByDatabase: make(map[string]int)}
	for name, results := range out.ByCollection {
		analysis.ByDatabase[name] = len(results)
		analysis.Total += len(results)
	}
	if analysis.Total == 0 {
		return noResultsResponse()
	}
	merged := out.Merge()
	top := merged[:min(len(merged), 5)]
	resp := &Response{
		Success:       true,
		Type:          TypeAnalysis,
		Analysis:      analysis,
		Results:       top,
		TopSimilarity: merged[0].Score,
	}
	resp.Answer = fmt.Sprintf("وجدت %d نتيجة مطابقة.", analysis.Total)
	return resp
}

// handleComparative searches each comparison element separately and returns
// the per-element result sets side by side.
func (o *Orchestrator) handleComparative(ctx context.Context, query string, classification intent.Classification, parsed queryparse.Parsed) *Response {
	subjects := comparisonSubjects(classification, parsed)
	if len(subjects) < 2 {
		return o.handleSimple(ctx, query, classification, search.TypeComparative)
	}
	var elements []ComparisonElement
	var all []search.Result
	for _, subject := range subjects {
		out := o.engine.ParallelSearch(ctx, subject.query, classification.Collections, 10, search.Config{QueryType: search.TypeComparative})
		accepted, _ := acceptResults(out.Merge())
		elements = append(elements, ComparisonElement{Subject: subject.label, Results: accepted})
		all = append(all, accepted...)
	}
	if len(all) == 0 {
		return noResultsResponse()
	}
	resp := &Response{
		Success:    true,
		Type:       TypeComparison,
		Comparison: elements,
		Results:    all,
	}
	resp.Answer = o.synthesize(ctx, query, all)
	return resp
}

type comparisonSubject struct {
	label string
	query string
}

// comparisonSubjects derives the sides of a comparison: two or more
// governorates mentioned together, or the query's own clauses.
func comparisonSubjects(classification intent.Classification, parsed queryparse.Parsed) []comparisonSubject {
	base := strings.TrimSpace(strings.Join(firstWords(parsed), " "))
	if len(classification.Entities.Governorates) >= 2 {
		var out []comparisonSubject
		for _, gov := range classification.Entities.Governorates {
			out = append(out, comparisonSubject{label: gov, query: base + " " + gov})
		}
		return out
	}
	if len(parsed.SubQueries) >= 2 {
		var out []comparisonSubject
		for _, sq := range parsed.SubQueries {
			out = append(out, comparisonSubject{label: sq.Text, query: sq.Text})
		}
		return out
	}
	return nil
}

// firstWords strips comparison markers so each side's query keeps only the
// shared topic words.
func firstWords(parsed queryparse.Parsed) []string {
	if len(parsed.SubQueries) == 0 {
		return nil
	}
	words := strings.Fields(parsed.SubQueries[0].Text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		switch w {
		case "قارن", "مقارنه", "بين", "ام", "افضل", "الفرق":
			continue
		}
		out = append(out, w)
	}
	return out
}

// handleCrossReference answers each clause separately and keeps the results
// that mention the entities shared across clauses.
func (o *Orchestrator) handleCrossReference(ctx context.Context, classification intent.Classification, parsed queryparse.Parsed) *Response {
	anchors := crossReferenceAnchors(classification.Entities)
	var all []search.Result
	for i, sq := range parsed.SubQueries {
		if i == 3 {
			break
		}
		out := o.engine.ParallelSearch(ctx, sq.Text, classification.Collections, 10, search.Config{QueryType: search.TypeComplex})
		accepted, _ := acceptResults(out.Merge())
		all = append(all, accepted...)
	}
	if len(all) == 0 {
		return noResultsResponse()
	}
	correlated := correlate(all, anchors)
	if len(correlated) == 0 {
		correlated = all
	}
	resp := &Response{
		Success: true,
		Type:    TypeCrossReference,
		Results: correlated,
	}
	resp.Answer = o.synthesize(ctx, parsed.SubQueries[0].Text, correlated)
	return resp
}

// crossReferenceAnchors lists the entities a correlated record should
// mention.
func crossReferenceAnchors(entities normalize.Entities) []string {
	var out []string
	out = append(out, entities.Governorates...)
	out = append(out, entities.Locations...)
	out = append(out, entities.Activities...)
	return out
}

func correlate(results []search.Result, anchors []string) []search.Result {
	if len(anchors) == 0 {
		return results
	}
	var out []search.Result
	for _, r := range results {
		text := r.Record.Text()
		for _, anchor := range anchors {
			if strings.Contains(text, anchor) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func (o *Orchestrator) synthesize(ctx context.Context, query string, results []search.Result) string {
	snippets := make([]llm.Snippet, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, llm.Snippet{Text: r.Record.Text(), Database: r.Database, Score: r.Score})
	}
	answer, err := o.answers.Synthesize(ctx, query, snippets)
	if err != nil {
		common.Logger().Warn("orchestrator: answer synthesis failed", "error", err)
		return ""
	}
	return answer
}

// Teach stores an explicit question/answer pair in the learning system.
func (o *Orchestrator) Teach(ctx context.Context, question, answer, metadata string) (*sqlite.LearnedRecord, error) {
	if o.store == nil {
		return nil, fmt.Errorf("persistent store required")
	}
	return o.store.Teach(ctx, question, answer, metadata)
}

// Stats returns a copy of the counters.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.stats
	out.ByDatabase = make(map[string]int64, len(o.stats.ByDatabase))
	for k, v := range o.stats.ByDatabase {
		out.ByDatabase[k] = v
	}
	return out
}

// Context returns a snapshot of the conversation memory.
func (o *Orchestrator) Context() ContextMemory {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.memory
	out.History = append([]HistoryEntry(nil), o.memory.History...)
	return out
}

// ClearContext wipes the conversation memory, in process and on disk.
func (o *Orchestrator) ClearContext(ctx context.Context) error {
	o.mu.Lock()
	o.memory = ContextMemory{}
	o.mu.Unlock()
	return o.store.ClearContext(ctx)
}

// MetaIndex returns the entity index built at initialization.
func (o *Orchestrator) MetaIndex() kb.MetaIndex {
	return o.meta
}

// Collections reports the loaded collection names.
func (o *Orchestrator) Collections() []string {
	if o.engine == nil {
		return nil
	}
	return o.engine.Collections()
}

// ModelAvailable reports whether the embedding model path is active.
func (o *Orchestrator) ModelAvailable() bool {
	return o.embedder != nil && o.embedder.ModelAvailable()
}

// EmbeddingStats exposes the embedding provider counters.
func (o *Orchestrator) EmbeddingStats() embedding.Stats {
	if o.embedder == nil {
		return embedding.Stats{}
	}
	return o.embedder.Stats()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
