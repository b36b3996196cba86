// File path: internal/kb/model.go

// Package kb defines the canonical record model for the three investment
// collections. Any accepted input shape is normalized into Record at load
// time; downstream code never branches on raw field layouts.
package kb

import (
	"sort"
	"strings"

	"github.com/rowadtech/mostashar/internal/normalize"
)

// Collection names. These are the only three databases the engine serves.
const (
	CollectionActivity    = "activity"
	CollectionDecision104 = "decision104"
	CollectionIndustrial  = "industrial"
)

// CollectionNames lists every known collection in serving order.
var CollectionNames = []string{
	CollectionActivity,
	CollectionDecision104,
	CollectionIndustrial,
}

// Embedding variant names carried by precomputed records, strongest first.
const (
	VariantFull        = "full"
	VariantContextual  = "contextual"
	VariantSummary     = "summary"
	VariantKeyPhrases  = "key_phrases"
	VariantNoStopwords = "no_stopwords"
)

// Record is one retrievable entity. Immutable once loaded; collections are
// read-only at query time.
type Record struct {
	ID         string                 `json:"id"`
	Database   string                 `json:"database"`
	Original   map[string]interface{} `json:"original_data,omitempty"`
	Embeddings map[string][]float32   `json:"-"`

	text     string
	keywords []string
}

// Text returns the record's searchable text, assembled once from the
// best original_data fields available.
func (r *Record) Text() string {
	return r.text
}

// Keywords returns the record's indexed content words.
func (r *Record) Keywords() []string {
	return r.keywords
}

// HasEmbeddings reports whether any precomputed variant is present.
func (r *Record) HasEmbeddings() bool {
	return len(r.Embeddings) > 0
}

// textFields are the original_data attributes worth indexing, in priority
// order.
var textFields = []string{
	"name", "الاسم", "activity", "النشاط", "governorate", "المحافظه",
	"location", "الموقع", "requirements", "الاشتراطات", "fees", "الرسوم",
	"authority", "الجهه", "text_preview", "description", "الوصف",
}

func buildText(original map[string]interface{}) string {
	if len(original) == 0 {
		return ""
	}
	var parts []string
	seen := make(map[string]struct{}, len(original))
	for _, field := range textFields {
		if value, ok := stringValue(original[field]); ok {
			parts = append(parts, value)
			seen[field] = struct{}{}
		}
	}
	// Remaining string attributes in stable order so text is deterministic.
	var rest []string
	for key, raw := range original {
		if _, done := seen[key]; done {
			continue
		}
		if value, ok := stringValue(raw); ok {
			rest = append(rest, value)
		}
	}
	sort.Strings(rest)
	parts = append(parts, rest...)
	return normalize.ForEmbedding(strings.Join(parts, " "))
}

func stringValue(raw interface{}) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// Collection is a named, ordered, immutable record set plus its derived
// concept index.
type Collection struct {
	Name      string
	Version   string
	Dimension int
	Records   []Record

	concepts map[string][]int
}

// Len reports the number of records.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

// UsableVectors counts records carrying at least one embedding variant.
func (c *Collection) UsableVectors() int {
	count := 0
	for i := range c.Records {
		if c.Records[i].HasEmbeddings() {
			count++
		}
	}
	return count
}
