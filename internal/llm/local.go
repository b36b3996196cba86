// File path: internal/llm/local.go
package llm

import (
	"context"
	"fmt"
	"strings"
)

// maxSnippetRunes truncates overlong record text in the templated answer.
const maxSnippetRunes = 300

// LocalProvider formats answers from templates without any model call.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (p *LocalProvider) Name() string { return "local-template" }

// Synthesize renders an Arabic answer straight from the top snippets.
func (p *LocalProvider) Synthesize(_ context.Context, query string, snippets []Snippet) (string, error) {
	if len(snippets) == 0 {
		return "لم أجد معلومات كافية للإجابة على سؤالك. حاول إعادة صياغة السؤال.", nil
	}
	var b strings.Builder
	b.WriteString("بناءً على المعلومات المتاحة:\n")
	limit := len(snippets)
	if limit > 3 {
		limit = 3
	}
	for i := 0; i < limit; i++ {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, clip(snippets[i].Text)))
	}
	if len(snippets) > limit {
		b.WriteString(fmt.Sprintf("وهناك %d نتيجة أخرى ذات صلة.", len(snippets)-limit))
	}
	return strings.TrimSpace(b.String()), nil
}

func clip(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= maxSnippetRunes {
		return string(runes)
	}
	return string(runes[:maxSnippetRunes]) + "…"
}
