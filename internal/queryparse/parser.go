// File path: internal/queryparse/parser.go

// Package queryparse breaks a user query into its structural parts: query
// type, sub-queries, entities, and a complexity score. It also resolves
// context pronouns against the conversation memory before anything else
// sees the text.
package queryparse

import (
	"strings"

	"github.com/rowadtech/mostashar/internal/normalize"
)

// Query types produced by structure detection.
const (
	TypeSimple      = "simple"
	TypeComplex     = "complex"
	TypeStatistical = "statistical"
	TypeComparative = "comparative"
	TypeSequential  = "sequential"
)

// SubQuery is one clause of a split query with the conjunction that
// followed it, when any did.
type SubQuery struct {
	Text        string `json:"text"`
	Conjunction string `json:"conjunction,omitempty"`
}

// Parsed is the structural analysis of one query.
type Parsed struct {
	QueryType       string             `json:"query_type"`
	SubQueries      []SubQuery         `json:"sub_queries"`
	Entities        normalize.Entities `json:"entities"`
	HasComparison   bool               `json:"has_comparison"`
	HasSequence     bool               `json:"has_sequence"`
	RequiresContext bool               `json:"requires_context"`
	Complexity      int                `json:"complexity"`
}

// complexityCap bounds the complexity score.
const complexityCap = 10

var pronouns = []string{"هو", "هي", "هذا", "هذه", "ذلك", "تلك", "فيها", "فيه", "عنها", "عنه", "لها", "له"}

var comparisonWords = []string{"مقارنه", "قارن", "افضل", "الفرق", "ام", "ارخص", "اغلي"}

var statisticalWords = []string{"كم", "عدد", "جميع", "قائمه", "احصائيات", "اجمالي"}

// splitConjunctions are the clause separators, as standalone words.
var splitConjunctions = []string{"ثم", "لكن", "او", "و"}

// Parse analyzes the query. Structure detection runs in fixed precedence:
// pronouns, then comparison markers, then statistical markers, then
// conjunction count.
func Parse(query string) Parsed {
	normalized := normalize.ForEmbedding(query)
	words := normalize.Tokenize(normalized)

	out := Parsed{Entities: normalize.ExtractEntities(normalized)}
	out.HasComparison = containsAny(words, comparisonWords)
	out.HasSequence = containsAny(words, pronouns)

	conjunctions := countConjunctions(words)
	switch {
	case out.HasSequence:
		out.QueryType = TypeSequential
		out.RequiresContext = true
	case out.HasComparison:
		out.QueryType = TypeComparative
	case containsAny(words, statisticalWords):
		out.QueryType = TypeStatistical
	case conjunctions >= 2:
		out.QueryType = TypeComplex
	default:
		out.QueryType = TypeSimple
	}

	// Sequential queries lean on memory and stay whole; everything else may
	// split.
	if out.QueryType == TypeSequential {
		out.SubQueries = []SubQuery{{Text: normalized}}
	} else {
		out.SubQueries = split(normalized)
	}

	out.Complexity = complexity(normalized, &out)
	return out
}

// split breaks the query on sentence-terminal question marks first, then on
// clause conjunctions. Each clause keeps its trailing conjunction.
func split(normalized string) []SubQuery {
	if fragments := questionFragments(normalized); len(fragments) > 1 {
		out := make([]SubQuery, 0, len(fragments))
		for _, f := range fragments {
			out = append(out, SubQuery{Text: f})
		}
		return out
	}

	words := strings.Fields(normalized)
	var out []SubQuery
	var clause []string
	flush := func(conj string) {
		if len(clause) == 0 {
			return
		}
		out = append(out, SubQuery{Text: strings.Join(clause, " "), Conjunction: conj})
		clause = clause[:0]
	}
	for _, word := range words {
		if isConjunction(word) {
			flush(word)
			continue
		}
		clause = append(clause, word)
	}
	flush("")
	if len(out) == 0 {
		out = []SubQuery{{Text: normalized}}
	}
	return out
}

func questionFragments(text string) []string {
	var out []string
	for _, fragment := range strings.Split(text, "؟") {
		fragment = strings.TrimSpace(fragment)
		if fragment != "" {
			out = append(out, fragment)
		}
	}
	return out
}

func isConjunction(word string) bool {
	for _, conj := range splitConjunctions {
		if word == conj {
			return true
		}
	}
	return false
}

func countConjunctions(words []string) int {
	count := 0
	for _, word := range words {
		if isConjunction(word) {
			count++
		}
	}
	return count
}

// complexity scores the parsed structure, capped at complexityCap.
func complexity(normalized string, p *Parsed) int {
	score := 2 * len(p.SubQueries)
	score += p.Entities.Total()
	if p.HasComparison {
		score += 3
	}
	if p.HasSequence {
		score += 2
	}
	score += len(normalized) / 50
	if score > complexityCap {
		score = complexityCap
	}
	return score
}

func containsAny(words []string, needles []string) bool {
	for _, word := range words {
		for _, needle := range needles {
			if word == needle {
				return true
			}
		}
	}
	return false
}

// ResolvePronouns replaces context pronouns with the most recent resolved
// entity from memory. Token-wise replacement keeps word boundaries intact.
// No-op when there is no context entity.
func ResolvePronouns(query, contextEntity string) string {
	contextEntity = strings.TrimSpace(contextEntity)
	if contextEntity == "" {
		return query
	}
	words := strings.Fields(query)
	replaced := false
	for i, word := range words {
		for _, pronoun := range pronouns {
			if word == pronoun {
				words[i] = contextEntity
				replaced = true
				break
			}
		}
	}
	if !replaced {
		return query
	}
	return strings.Join(words, " ")
}
