// File path: internal/embedding/fallback.go
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/rowadtech/mostashar/internal/normalize"
)

// FallbackEmbedder is the deterministic hash vectorizer used whenever no
// trained model is available. It is an approximation, not a learned
// representation: words, word pairs, phrases, and word interactions are
// hashed into pseudo-random dimensions with sinusoidal weights so that
// lexically related texts land near each other under cosine similarity.
type FallbackEmbedder struct {
	dim int
}

func NewFallbackEmbedder(dim int) *FallbackEmbedder {
	if dim <= 0 {
		dim = Dim
	}
	return &FallbackEmbedder{dim: dim}
}

func (e *FallbackEmbedder) Name() string { return "fallback-hash" }

func (e *FallbackEmbedder) Dimensions() int { return e.dim }

// Embed satisfies the Embedder interface. It never fails.
func (e *FallbackEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.EmbedWithMeta(text, nil), nil
}

// wordScatter controls how many dimensions each hashed feature touches.
const wordScatter = 10

// EmbedWithMeta produces the fallback vector, optionally blending a metadata
// vector and a semantic-expansion vector. The zero vector is a valid result
// for degenerate input.
func (e *FallbackEmbedder) EmbedWithMeta(text string, meta map[string]string) []float32 {
	vec := make([]float32, e.dim)
	normalized := normalize.ForEmbedding(text)
	words := normalize.Tokenize(normalized)
	if len(words) == 0 {
		return vec
	}

	// Single words, earlier words weighted more.
	for pos, word := range words {
		weight := 1.0 / math.Sqrt(float64(pos)+1)
		e.scatter(vec, hash64(word), weight)
	}

	// Adjacent pairs and 2-4 word phrases, hashed as units.
	for i := 0; i+1 < len(words); i++ {
		e.scatterCos(vec, hash64(words[i]+"_"+words[i+1]), 0.6)
	}
	for size := 3; size <= 4; size++ {
		for i := 0; i+size <= len(words); i++ {
			phrase := strings.Join(words[i:i+size], "_")
			e.scatterCos(vec, hash64(phrase), 0.8/float64(size))
		}
	}

	// Pairwise interactions among the first few words capture short-query
	// structure regardless of word order.
	limit := len(words)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		for j := i + 1; j < limit; j++ {
			a, b := words[i], words[j]
			if a > b {
				a, b = b, a
			}
			e.scatter(vec, hash64(a+"+"+b), 0.3)
		}
	}

	// Broaden known domain terms so e.g. "zone" queries also activate
	// "location"/"site" dimensions.
	for _, word := range words {
		for _, expansion := range semanticExpansions[word] {
			e.scatter(vec, hash64(expansion), 0.25)
		}
	}

	if len(meta) > 0 {
		metaVec := e.metaVector(meta)
		for i := range vec {
			vec[i] = vec[i]*0.85 + metaVec[i]*0.15
		}
	}

	normalizeL2(vec)
	return vec
}

func (e *FallbackEmbedder) metaVector(meta map[string]string) []float32 {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, k, meta[k])
	}
	metaVec := make([]float32, e.dim)
	words := normalize.Tokenize(normalize.ForEmbedding(strings.Join(parts, " ")))
	for pos, word := range words {
		weight := 1.0 / math.Sqrt(float64(pos)+1)
		e.scatter(metaVec, hash64(word), weight)
	}
	normalizeL2(metaVec)
	return metaVec
}

// scatter spreads sinusoidal contributions of one hashed feature across
// wordScatter pseudo-random dimensions.
func (e *FallbackEmbedder) scatter(vec []float32, h uint64, weight float64) {
	state := h
	for j := 0; j < wordScatter; j++ {
		state = state*6364136223846793005 + 1442695040888963407
		idx := int(state % uint64(e.dim))
		phase := float64(state>>32) / float64(1<<32) * 2 * math.Pi
		vec[idx] += float32(weight * math.Sin(phase+float64(j)))
	}
}

// scatterCos is the cosine-phase counterpart used for pair and phrase
// features so they occupy a different interference pattern than single words.
func (e *FallbackEmbedder) scatterCos(vec []float32, h uint64, weight float64) {
	state := h
	for j := 0; j < wordScatter; j++ {
		state = state*6364136223846793005 + 1442695040888963407
		idx := int(state % uint64(e.dim))
		phase := float64(state>>32) / float64(1<<32) * 2 * math.Pi
		vec[idx] += float32(weight * math.Cos(phase+float64(j)))
	}
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// semanticExpansions broadens domain terms the widget's users phrase many
// ways. Keys and values are in normalized orthography.
var semanticExpansions = map[string][]string{
	"منطقه":   {"موقع", "مكان", "مدينه"},
	"مصنع":    {"صناعه", "انتاج", "ورشه"},
	"ترخيص":   {"رخصه", "تصريح", "موافقه"},
	"حوافز":   {"اعفاء", "مزايا", "تسهيلات"},
	"رسوم":    {"تكلفه", "مصاريف", "سعر"},
	"استثمار": {"مشروع", "تمويل", "راس مال"},
	"نشاط":    {"عمل", "مشروع", "مهنه"},
}
