// File path: internal/embedding/embedder.go

// Package embedding produces fixed-length vectors for Arabic text. A
// model-backed embedder is used when one is configured and healthy; the
// deterministic fallback embedder covers every other case so embedding never
// fails for valid string input.
package embedding

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rowadtech/mostashar/internal/common"
	"github.com/rowadtech/mostashar/internal/common/telemetry"
	"github.com/rowadtech/mostashar/internal/normalize"
)

// Dim is the embedding dimensionality shared by precomputed collections, the
// model path, and the fallback generator.
const Dim = 384

// Embedder generates a vector for one text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Name() string
}

// Loader is implemented by embedders that need an upfront load (model fetch,
// credential check). The provider negotiates capability at init: a loader
// that fails keeps the fallback in charge.
type Loader interface {
	Load(ctx context.Context) error
}

// Config controls the provider.
type Config struct {
	CacheSize    int
	ModelTimeout time.Duration
}

// DefaultConfig mirrors the store defaults: a 1000-entry cache and a 10s
// ceiling on any model inference call.
func DefaultConfig() Config {
	return Config{CacheSize: 1000, ModelTimeout: 10 * time.Second}
}

// Stats counts how vectors were produced since startup.
type Stats struct {
	Real     int64 `json:"real"`
	Fallback int64 `json:"fallback"`
	CacheHit int64 `json:"cache_hits"`
}

// Provider is the embedding front door: normalization, caching, model
// delegation, and transparent fallback.
type Provider struct {
	cfg      Config
	model    Embedder
	fallback *FallbackEmbedder
	cache    *vectorCache

	mu    sync.Mutex
	stats Stats
}

// NewProvider wires a provider around an optional model embedder. Passing a
// nil model selects the fallback for every request.
func NewProvider(cfg Config, model Embedder) *Provider {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = DefaultConfig().ModelTimeout
	}
	return &Provider{
		cfg:      cfg,
		model:    model,
		fallback: NewFallbackEmbedder(Dim),
		cache:    newVectorCache(cfg.CacheSize),
	}
}

// Init performs capability negotiation: if the model implements Loader and
// fails to load, it is dropped and the provider runs on the fallback alone.
// Init never returns an error; degraded quality is not a failure.
func (p *Provider) Init(ctx context.Context) {
	logger := common.Logger()
	if p.model == nil {
		logger.Info("embedding: no model configured, fallback embedder active")
		return
	}
	loader, ok := p.model.(Loader)
	if !ok {
		logger.Info("embedding: model ready", "model", p.model.Name())
		return
	}
	loadCtx, cancel := context.WithTimeout(ctx, p.cfg.ModelTimeout)
	defer cancel()
	if err := loader.Load(loadCtx); err != nil {
		logger.Warn("embedding: model load failed, using fallback", "model", p.model.Name(), "error", err)
		p.model = nil
		return
	}
	logger.Info("embedding: model loaded", "model", p.model.Name())
}

// ModelAvailable reports whether the model path is active.
func (p *Provider) ModelAvailable() bool {
	return p != nil && p.model != nil
}

// Stats returns a copy of the provider counters.
func (p *Provider) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Embed produces a Dim-length L2-normalized vector for the text. Metadata
// participates in the cache key and, on the fallback path, blends a metadata
// vector into the result. Never returns an error for string input; degenerate
// input yields the zero vector.
func (p *Provider) Embed(ctx context.Context, text string, meta map[string]string) []float32 {
	normalized := normalize.ForEmbedding(text)
	if normalized == "" {
		return make([]float32, Dim)
	}
	key := cacheKey(normalized, meta)
	if vec, ok := p.cache.Get(key); ok {
		telemetry.RecordEmbed(true, false)
		p.count(func(s *Stats) { s.CacheHit++ })
		return vec
	}

	var vec []float32
	fallback := true
	if p.model != nil {
		modelCtx, cancel := context.WithTimeout(ctx, p.cfg.ModelTimeout)
		out, err := p.model.Embed(modelCtx, normalized)
		cancel()
		if err != nil || len(out) != Dim {
			common.Logger().Warn(
				"embedding: model inference failed, falling back",
				"model", p.model.Name(), "error", err,
			)
		} else {
			vec = out
			fallback = false
		}
	}
	if vec == nil {
		vec = p.fallback.EmbedWithMeta(normalized, meta)
	}
	normalizeL2(vec)
	p.cache.Set(key, vec)
	telemetry.RecordEmbed(false, fallback)
	p.count(func(s *Stats) {
		if fallback {
			s.Fallback++
		} else {
			s.Real++
		}
	})
	return vec
}

func (p *Provider) count(update func(*Stats)) {
	p.mu.Lock()
	update(&p.stats)
	p.mu.Unlock()
}

// CacheLen reports the current number of cached vectors.
func (p *Provider) CacheLen() int {
	return p.cache.Len()
}

func cacheKey(normalized string, meta map[string]string) string {
	if len(meta) == 0 {
		return normalized
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(normalized)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(meta[k])
	}
	return b.String()
}

// CosineSimilarity computes the clamped cosine similarity of two vectors in
// [0,1]. Mismatched lengths or zero-magnitude vectors score 0; there is no
// divide-by-zero path.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

func normalizeL2(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
