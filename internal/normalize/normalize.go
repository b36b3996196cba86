// File path: internal/normalize/normalize.go

// Package normalize canonicalizes Arabic query text. All downstream
// components (embedding, search, intent classification) operate on the
// normalized form, so the pipeline here must stay idempotent: normalizing an
// already-normalized string is a no-op.
package normalize

import (
	"strings"
	"unicode"
)

// Options toggles individual normalization passes.
type Options struct {
	RemoveDiacritics bool
	NormalizeAlef    bool
	NormalizeYaa     bool
	NormalizeTaa     bool
	RemoveTatweel    bool
	NormalizeNumbers bool
	RemoveStopWords  bool
	ApplySynonyms    bool
	ToLowerCase      bool
	TrimSpaces       bool
}

// DefaultOptions enables every pass except stop-word removal, which would
// degrade embedding quality for short queries.
func DefaultOptions() Options {
	return Options{
		RemoveDiacritics: true,
		NormalizeAlef:    true,
		NormalizeYaa:     true,
		NormalizeTaa:     true,
		RemoveTatweel:    true,
		NormalizeNumbers: true,
		RemoveStopWords:  false,
		ApplySynonyms:    true,
		ToLowerCase:      true,
		TrimSpaces:       true,
	}
}

// Normalize applies the configured passes in a fixed order. It is total:
// empty input yields an empty string and no pass ever fails.
func Normalize(text string, opts Options) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	out := text
	if opts.TrimSpaces {
		out = stripInvisible(out)
	}
	if opts.RemoveDiacritics || opts.NormalizeAlef || opts.NormalizeYaa ||
		opts.NormalizeTaa || opts.RemoveTatweel || opts.NormalizeNumbers {
		out = mapRunes(out, opts)
	}
	if opts.ToLowerCase {
		out = strings.ToLower(out)
	}
	if opts.ApplySynonyms {
		out = applySynonyms(out)
	}
	if opts.RemoveStopWords {
		out = removeStopWords(out)
	}
	if opts.TrimSpaces {
		out = collapseSpaces(out)
	}
	return out
}

// ForEmbedding keeps stop words so short queries retain enough signal for
// vectorization.
func ForEmbedding(text string) string {
	return Normalize(text, DefaultOptions())
}

// ForIndexing drops stop words; lexical indexes only want content words.
func ForIndexing(text string) string {
	opts := DefaultOptions()
	opts.RemoveStopWords = true
	return Normalize(text, opts)
}

// ForVoice corrects common speech-recognition errors before running the
// standard pipeline.
func ForVoice(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	corrected := text
	for wrong, right := range voiceCorrections {
		corrected = strings.ReplaceAll(corrected, wrong, right)
	}
	return Normalize(corrected, DefaultOptions())
}

func mapRunes(text string, opts Options) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case opts.RemoveDiacritics && isDiacritic(r):
			continue
		case opts.RemoveTatweel && r == tatweel:
			continue
		case opts.NormalizeAlef && (r == 'أ' || r == 'إ' || r == 'آ' || r == 'ٱ'):
			b.WriteRune('ا')
		case opts.NormalizeYaa && r == 'ى':
			b.WriteRune('ي')
		case opts.NormalizeTaa && r == 'ة':
			b.WriteRune('ه')
		case opts.NormalizeNumbers && r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case opts.NormalizeNumbers && r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

const tatweel = 'ـ'

func isDiacritic(r rune) bool {
	// Harakat, tanween, shadda, sukun plus the dagger alef.
	return (r >= 'ً' && r <= 'ْ') || r == 'ٰ' ||
		(r >= 'ٓ' && r <= 'ٕ')
}

func stripInvisible(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		case ' ':
			return ' '
		}
		return r
	}, text)
}

func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func applySynonyms(text string) string {
	words := strings.Fields(text)
	changed := false
	for i, w := range words {
		if formal, ok := colloquialSynonyms[w]; ok {
			words[i] = formal
			changed = true
		}
	}
	if !changed {
		return text
	}
	return strings.Join(words, " ")
}

func removeStopWords(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if _, ok := stopWords[w]; ok {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// ExtractKeywords returns the distinct content words of the text: normalized,
// stop words removed, length > 2.
func ExtractKeywords(text string) []string {
	normalized := ForIndexing(text)
	if normalized == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var keywords []string
	for _, w := range Tokenize(normalized) {
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}

// TextSimilarity computes the Jaccard index over the normalized word sets of
// the two texts. Result is in [0,1]; two empty texts score 0.
func TextSimilarity(a, b string) float64 {
	setA := wordSet(ForEmbedding(a))
	setB := wordSet(ForEmbedding(b))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	words := Tokenize(text)
	if len(words) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Tokenize splits normalized text into words, dropping punctuation runs.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, text)
	return strings.Fields(cleaned)
}
