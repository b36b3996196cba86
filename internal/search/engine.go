// File path: internal/search/engine.go

// Package search ranks knowledge-base records against a query vector. Scores
// blend precomputed embedding variants, a direct-embedding rescue for weak
// matches, and lexical overlap, then pass through a threshold derived from
// the best score and the declared query type.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rowadtech/mostashar/internal/common"
	"github.com/rowadtech/mostashar/internal/common/telemetry"
	"github.com/rowadtech/mostashar/internal/embedding"
	"github.com/rowadtech/mostashar/internal/kb"
	"github.com/rowadtech/mostashar/internal/normalize"
)

// Query types recognized by the threshold table.
const (
	TypeSimple      = "simple"
	TypeComplex     = "complex"
	TypeStatistical = "statistical"
	TypeComparative = "comparative"
	TypeSequential  = "sequential"
)

// Result is one scored record.
type Result struct {
	Record   *kb.Record `json:"record"`
	Score    float64    `json:"similarity"`
	Database string     `json:"database"`
}

// Config tunes one search call.
type Config struct {
	// QueryType selects the threshold pair; unknown types fall back to
	// simple.
	QueryType string
	// MinSimilarity, when positive, replaces the dynamic threshold. The
	// statistical handler uses this to keep its broad sweeps broad.
	MinSimilarity float64
	// Meta is forwarded to the embedding provider.
	Meta map[string]string
}

// scoreFloor discards records before ranking; anything below it is noise.
const scoreFloor = 0.15

// rescueThreshold triggers the direct record-text embedding when the variant
// similarity comes in this low.
const rescueThreshold = 0.25

// lexicalBoostCap bounds the lexical contribution to the blended score.
const lexicalBoostCap = 0.25

// typeThresholds holds the {min, ideal} cutoff pair per query type.
// Statistical queries tolerate the lowest floor since they aggregate many
// records instead of needing one precise hit.
var typeThresholds = map[string]struct{ Min, Ideal float64 }{
	TypeSimple:      {Min: 0.25, Ideal: 0.65},
	TypeComplex:     {Min: 0.22, Ideal: 0.60},
	TypeStatistical: {Min: 0.18, Ideal: 0.50},
	TypeComparative: {Min: 0.22, Ideal: 0.60},
}

// Engine searches loaded collections. Collections are immutable after load,
// so concurrent searches share them without locking.
type Engine struct {
	collections map[string]*kb.Collection
	embedder    *embedding.Provider
}

// NewEngine wires an engine over loaded collections.
func NewEngine(collections map[string]*kb.Collection, embedder *embedding.Provider) *Engine {
	return &Engine{collections: collections, embedder: embedder}
}

// Collections lists the loaded collection names in serving order.
func (e *Engine) Collections() []string {
	var names []string
	for _, name := range kb.CollectionNames {
		if _, ok := e.collections[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Search ranks one collection's records against the query and returns at most
// topK results above the computed threshold, best first.
func (e *Engine) Search(ctx context.Context, query, collectionName string, topK int, cfg Config) ([]Result, error) {
	coll, ok := e.collections[collectionName]
	if !ok {
		return nil, fmt.Errorf("search: unknown collection %q", collectionName)
	}
	if topK <= 0 {
		topK = 10
	}

	queryVec := e.embedder.Embed(ctx, query, cfg.Meta)
	queryWords := normalize.ExtractKeywords(query)

	candidates := coll.Candidates(queryWords)
	scored := make([]Result, 0, 32)
	score := func(idx int) {
		rec := &coll.Records[idx]
		s := e.scoreRecord(ctx, queryVec, queryWords, rec, cfg.Meta)
		if s >= scoreFloor {
			scored = append(scored, Result{Record: rec, Score: s, Database: collectionName})
		}
	}
	if candidates != nil {
		for _, idx := range candidates {
			score(idx)
		}
		// A concept index that matched nothing useful is not a verdict;
		// rescan the whole collection before reporting emptiness.
		if len(scored) == 0 && len(candidates) < coll.Len() {
			for idx := range coll.Records {
				score(idx)
			}
		}
	} else {
		for idx := range coll.Records {
			score(idx)
		}
	}
	if len(scored) == 0 {
		return nil, nil
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	threshold := cfg.MinSimilarity
	if threshold <= 0 {
		threshold = dynamicThreshold(scored, cfg.QueryType)
	}
	filtered := scored[:0]
	for _, r := range scored {
		if r.Score >= threshold {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}
	return filtered, nil
}

// scoreRecord computes the blended similarity for one record.
func (e *Engine) scoreRecord(ctx context.Context, queryVec []float32, queryWords []string, rec *kb.Record, meta map[string]string) float64 {
	embSim := variantSimilarity(queryVec, rec.Embeddings)

	// Weak variant matches get a second chance against a fresh embedding of
	// the record's own text; precomputed vectors from a different model can
	// undershoot badly.
	if embSim < rescueThreshold && rec.Text() != "" {
		direct := e.embedder.Embed(ctx, rec.Text(), meta)
		if s := embedding.CosineSimilarity(queryVec, direct); s > embSim {
			embSim = s
		}
	}

	boost := lexicalOverlap(queryWords, rec.Text())
	contribution := boost * 0.15
	if contribution > lexicalBoostCap {
		contribution = lexicalBoostCap
	}
	return math.Max(embSim, embSim*0.85+contribution)
}

// variantSimilarity scores the query vector against every precomputed
// variant. With two or more variants the score is max(top1, top2avg*0.95) so
// a single lucky variant cannot dominate records whose variants agree.
func variantSimilarity(queryVec []float32, variants map[string][]float32) float64 {
	if len(variants) == 0 {
		return 0
	}
	sims := make([]float64, 0, len(variants))
	for _, vec := range variants {
		sims = append(sims, embedding.CosineSimilarity(queryVec, vec))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sims)))
	top1 := sims[0]
	if len(sims) == 1 {
		return top1
	}
	top2avg := (sims[0] + sims[1]) / 2
	return math.Max(top1, top2avg*0.95)
}

// lexicalOverlap is the fraction of query words appearing in the record
// text.
func lexicalOverlap(queryWords []string, text string) float64 {
	if len(queryWords) == 0 || text == "" {
		return 0
	}
	matched := 0
	for _, word := range queryWords {
		if strings.Contains(text, word) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// dynamicThreshold derives the acceptance floor from the ranked scores and
// the query type. scored must be sorted descending and non-empty.
func dynamicThreshold(scored []Result, queryType string) float64 {
	t, ok := typeThresholds[queryType]
	if !ok {
		t = typeThresholds[TypeSimple]
	}
	top := scored[0].Score
	switch {
	case top >= 0.75:
		return t.Ideal
	case top >= 0.50:
		return math.Max(top*0.60, t.Min)
	case top >= 0.35:
		n := len(scored)
		if n > 5 {
			n = 5
		}
		sum := 0.0
		for _, r := range scored[:n] {
			sum += r.Score
		}
		return math.Max((sum/float64(n))*0.70, t.Min)
	default:
		return t.Min
	}
}

// ParallelResults groups the per-collection result lists of one fan-out.
type ParallelResults struct {
	ByCollection map[string][]Result
	Total        int
}

// ParallelSearch fans one query out across the requested collections and
// merges the per-collection lists. Each worker only reads immutable
// collection data and writes its own slot, so no lock guards the results
// slice itself.
func (e *Engine) ParallelSearch(ctx context.Context, query string, collectionNames []string, topK int, cfg Config) ParallelResults {
	type slot struct {
		name    string
		results []Result
	}
	slots := make([]slot, len(collectionNames))
	var wg sync.WaitGroup
	for i, name := range collectionNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			start := time.Now()
			results, err := e.Search(ctx, query, name, topK, cfg)
			telemetry.RecordSearch(name, time.Since(start))
			if err != nil {
				common.Logger().Warn("search: collection search failed", "collection", name, "error", err)
				return
			}
			slots[i] = slot{name: name, results: results}
		}(i, name)
	}
	wg.Wait()

	out := ParallelResults{ByCollection: make(map[string][]Result, len(collectionNames))}
	for _, s := range slots {
		if s.name == "" {
			continue
		}
		out.ByCollection[s.name] = s.results
		out.Total += len(s.results)
	}
	return out
}

// Merge flattens per-collection results into one list sorted by score
// descending.
func (p ParallelResults) Merge() []Result {
	merged := make([]Result, 0, p.Total)
	for _, results := range p.ByCollection {
		merged = append(merged, results...)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	return merged
}
