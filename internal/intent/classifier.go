// File path: internal/intent/classifier.go

// Package intent classifies Arabic investment queries: which of the seven
// intent categories a query expresses, which entities it mentions, how
// complex it is, and which knowledge collections should serve it.
package intent

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rowadtech/mostashar/internal/kb"
	"github.com/rowadtech/mostashar/internal/normalize"
)

// secondaryThreshold admits non-primary intents into the secondary list.
const secondaryThreshold = 0.2

// Classification is the full verdict for one query.
type Classification struct {
	Primary        string             `json:"primary"`
	Secondary      []string           `json:"secondary,omitempty"`
	Scores         map[string]float64 `json:"scores"`
	SemanticScores map[string]float64 `json:"semantic_scores"`
	Entities       normalize.Entities `json:"entities"`
	Complexity     float64            `json:"complexity"`
	QueryType      string             `json:"query_type"`
	CrossReference bool               `json:"cross_reference"`
	Collections    []string           `json:"collections"`
}

// Classifier scores queries against fixed keyword tables and a gazetteer
// seeded from the loaded collections.
type Classifier struct {
	gazetteer *normalize.Gazetteer
}

// NewClassifier builds a classifier whose gazetteer merges the canonical
// tables with the entity values actually observed in the loaded records.
func NewClassifier(meta kb.MetaIndex) *Classifier {
	base := normalize.DefaultGazetteer()
	return &Classifier{gazetteer: &normalize.Gazetteer{
		Governorates:     mergeLists(base.Governorates, meta.Governorates),
		Activities:       mergeLists(base.Activities, meta.Activities),
		ActivityTriggers: base.ActivityTriggers,
		LocationMarkers:  base.LocationMarkers,
		AuthorityMarkers: base.AuthorityMarkers,
	}}
}

// Classify analyzes one query. Input may be raw or normalized; it is
// normalized before scoring.
func (c *Classifier) Classify(query string) Classification {
	normalized := normalize.ForEmbedding(query)
	words := normalize.Tokenize(normalized)

	out := Classification{
		Scores:         c.scoreIntents(words),
		SemanticScores: scoreCollections(normalized, words),
		Entities:       c.gazetteer.Extract(normalized),
	}
	out.Primary, out.Secondary = rankIntents(out.Scores)
	out.Complexity = complexityScore(query, words, out.Entities)
	out.QueryType = detectQueryType(normalized, words, out.Entities)
	out.CrossReference = needsCrossReference(out)
	out.Collections = c.selectCollections(normalized, out)
	return out
}

// scoreIntents accumulates weighted bidirectional keyword matches and
// normalizes each category score into [0,1].
func (c *Classifier) scoreIntents(words []string) map[string]float64 {
	scores := make(map[string]float64, len(intentKeywords))
	for category, keywords := range intentKeywords {
		total := 0.0
		for keyword, weight := range keywords {
			for _, word := range words {
				if bidirectionalMatch(word, keyword) {
					total += weight
					break
				}
			}
		}
		score := total / 2
		if score > 1 {
			score = 1
		}
		scores[category] = score
	}
	return scores
}

// bidirectionalMatch reports a substring hit in either direction, guarding
// against trivially short needles.
func bidirectionalMatch(word, keyword string) bool {
	if word == keyword {
		return true
	}
	if len([]rune(word)) >= 3 && strings.Contains(keyword, word) {
		return true
	}
	if len([]rune(keyword)) >= 3 && strings.Contains(word, keyword) {
		return true
	}
	return false
}

// scoreCollections rates each collection's concept affinity: full phrases
// weigh 1.0, single words 0.5, root-related words 0.3, normalized into
// [0,1].
func scoreCollections(normalized string, words []string) map[string]float64 {
	scores := make(map[string]float64, len(kb.CollectionNames))
	for _, name := range kb.CollectionNames {
		total := 0.0
		for _, phrase := range collectionPhrases[name] {
			if strings.Contains(normalized, phrase) {
				total += 1.0
			}
		}
		for _, concept := range collectionWords[name] {
			matched := false
			for _, word := range words {
				if bidirectionalMatch(word, concept) {
					matched = true
					break
				}
			}
			if matched {
				total += 0.5
				continue
			}
			for _, word := range words {
				if rootRelated(word, concept) {
					total += 0.3
					break
				}
			}
		}
		score := total / 2
		if score > 1 {
			score = 1
		}
		scores[name] = score
	}
	return scores
}

func rootRelated(word, concept string) bool {
	for root, related := range rootRelations {
		group := append([]string{root}, related...)
		wordIn, conceptIn := false, false
		for _, g := range group {
			if g == word {
				wordIn = true
			}
			if g == concept {
				conceptIn = true
			}
		}
		if wordIn && conceptIn {
			return true
		}
	}
	return false
}

// rankIntents picks the primary intent and every secondary above the
// threshold, ordered by score for determinism.
func rankIntents(scores map[string]float64) (string, []string) {
	type pair struct {
		name  string
		score float64
	}
	ranked := make([]pair, 0, len(scores))
	for name, score := range scores {
		if score > 0 {
			ranked = append(ranked, pair{name, score})
		}
	}
	if len(ranked) == 0 {
		return "", nil
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})
	primary := ranked[0].name
	var secondary []string
	for _, p := range ranked[1:] {
		if p.score >= secondaryThreshold {
			secondary = append(secondary, p.name)
		}
	}
	return primary, secondary
}

// complexityScore blends word count, entity count, compound conjunctions,
// and question marks, capped at 1.0.
func complexityScore(raw string, words []string, entities normalize.Entities) float64 {
	score := float64(len(words)) * 0.03
	score += float64(entities.Total()) * 0.1
	score += float64(strings.Count(raw, " و")) * 0.1
	if strings.Count(raw, "؟")+strings.Count(raw, "?") > 1 {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}

// detectQueryType applies the fixed precedence: statistical markers, then
// comparison markers, then entity spread, then pronouns.
func detectQueryType(normalized string, words []string, entities normalize.Entities) string {
	for _, marker := range statisticalMarkers {
		if containsWord(words, marker) {
			return "statistical"
		}
	}
	for _, marker := range comparisonMarkers {
		if containsWord(words, marker) {
			return "comparative"
		}
	}
	if entities.Count() >= 3 {
		return "complex"
	}
	for _, pronoun := range contextPronouns {
		if containsWord(words, pronoun) {
			return "sequential"
		}
	}
	return "simple"
}

func containsWord(words []string, needle string) bool {
	for _, w := range words {
		if w == needle {
			return true
		}
	}
	return false
}

// needsCrossReference flags queries whose answer spans entity categories or
// collections.
func needsCrossReference(c Classification) bool {
	if c.QueryType == "complex" || c.QueryType == "comparative" {
		return true
	}
	hasActivity := len(c.Entities.Activities) > 0
	hasLocation := len(c.Entities.Locations) > 0 || len(c.Entities.Governorates) > 0
	hasAuthority := len(c.Entities.Authorities) > 0
	if hasActivity && hasLocation {
		return true
	}
	if hasActivity && (c.Primary == IntentIncentive || containsString(c.Secondary, IntentIncentive)) {
		return true
	}
	if hasLocation && hasAuthority {
		return true
	}
	return false
}

func containsString(values []string, needle string) bool {
	for _, v := range values {
		if v == needle {
			return true
		}
	}
	return false
}

// forcedCollections are phrasings that pin the search to one collection no
// matter what else matched.
var forcedCollections = []struct {
	pattern    *regexp.Regexp
	collection string
}{
	{regexp.MustCompile(`منطقه صناعيه|مناطق صناعيه|المنطقه الصناعيه|المناطق الصناعيه|مدن صناعيه`), kb.CollectionIndustrial},
	{regexp.MustCompile(`قرار 104|القرار 104`), kb.CollectionDecision104},
}

// selectCollections applies the selection priority chain: strong semantic
// scores, then the intent table, then entity presence, then forced
// phrasings, then the best semantic scores above a low bar, and finally
// everything.
func (c *Classifier) selectCollections(normalized string, result Classification) []string {
	var selected []string

	for _, name := range kb.CollectionNames {
		if result.SemanticScores[name] > 0.4 {
			selected = append(selected, name)
		}
	}

	if len(selected) == 0 && result.Primary != "" {
		selected = append(selected, intentCollections[result.Primary]...)
	}

	if len(selected) == 0 {
		if len(result.Entities.Governorates) > 0 || len(result.Entities.Locations) > 0 {
			selected = append(selected, kb.CollectionIndustrial)
		}
		if len(result.Entities.Activities) > 0 {
			selected = append(selected, kb.CollectionActivity)
		}
		if len(result.Entities.Numbers) > 0 && strings.Contains(normalized, "قرار") {
			selected = append(selected, kb.CollectionDecision104)
		}
	}

	for _, forced := range forcedCollections {
		if forced.pattern.MatchString(normalized) {
			selected = []string{forced.collection}
			break
		}
	}

	if len(selected) == 0 {
		selected = topSemantic(result.SemanticScores)
	}
	if len(selected) == 0 {
		selected = append(selected, kb.CollectionNames...)
	}
	return dedupeOrdered(selected)
}

// topSemantic picks the best-scoring collection above 0.1 plus the runner-up
// when it clears 0.2.
func topSemantic(scores map[string]float64) []string {
	type pair struct {
		name  string
		score float64
	}
	ranked := make([]pair, 0, len(scores))
	for name, score := range scores {
		ranked = append(ranked, pair{name, score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})
	var out []string
	if len(ranked) > 0 && ranked[0].score > 0.1 {
		out = append(out, ranked[0].name)
	}
	if len(ranked) > 1 && ranked[1].score > 0.2 {
		out = append(out, ranked[1].name)
	}
	return out
}

func dedupeOrdered(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func mergeLists(base, extra []string) []string {
	out := append([]string(nil), base...)
	for _, v := range extra {
		normalized := normalize.ForEmbedding(v)
		if normalized == "" {
			continue
		}
		found := false
		for _, existing := range out {
			if existing == normalized {
				found = true
				break
			}
		}
		if !found {
			out = append(out, normalized)
		}
	}
	return out
}
