// File path: internal/kb/concepts.go
package kb

import (
	"strings"

	"github.com/rowadtech/mostashar/internal/normalize"
)

// collectionConcepts maps each collection to the semantic concepts its
// records revolve around. The loader indexes records under every concept
// that appears in their text; at query time the search engine narrows the
// candidate set to records sharing a concept with the query.
var collectionConcepts = map[string][]string{
	CollectionActivity: {
		"نشاط", "ترخيص", "رخصه", "اشتراطات", "رسوم", "سجل", "تصريح",
		"فندق", "مطعم", "مصنع", "شركه", "محل", "صيدليه", "مستشفي",
	},
	CollectionDecision104: {
		"قرار", "قانون", "حافز", "حوافز", "اعفاء", "ضريبه", "ضريبي",
		"استثمار", "ماده", "104",
	},
	CollectionIndustrial: {
		"صناعي", "صناعيه", "منطقه", "مدينه", "موقع", "ارض", "قطعه",
		"متر", "محافظه", "هيئه",
	},
}

func (c *Collection) buildConceptIndex() {
	concepts := collectionConcepts[c.Name]
	if len(concepts) == 0 {
		return
	}
	index := make(map[string][]int, len(concepts))
	for _, concept := range concepts {
		normalized := normalize.ForEmbedding(concept)
		for i := range c.Records {
			if strings.Contains(c.Records[i].text, normalized) {
				index[normalized] = append(index[normalized], i)
			}
		}
	}
	c.concepts = index
}

// Candidates returns the record indexes sharing a concept with the query
// words. A nil result means no concept matched and the caller should scan the
// whole collection.
func (c *Collection) Candidates(queryWords []string) []int {
	if len(c.concepts) == 0 || len(queryWords) == 0 {
		return nil
	}
	seen := make(map[int]struct{})
	var out []int
	for _, word := range queryWords {
		for concept, indexes := range c.concepts {
			if !strings.Contains(word, concept) && !strings.Contains(concept, word) {
				continue
			}
			for _, idx := range indexes {
				if _, ok := seen[idx]; ok {
					continue
				}
				seen[idx] = struct{}{}
				out = append(out, idx)
			}
		}
	}
	return out
}
