// File path: internal/llm/local_test.go
package llm

import (
	"context"
	"strings"
	"testing"
)

func TestLocalSynthesizeEmpty(t *testing.T) {
	answer, err := NewLocalProvider().Synthesize(context.Background(), "اي سؤال", nil)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if answer == "" {
		t.Fatal("expected a fallback message for empty snippets")
	}
}

func TestLocalSynthesizeLimitsSnippets(t *testing.T) {
	snippets := []Snippet{
		{Text: "اشتراطات ترخيص الفندق", Database: "activity", Score: 0.9},
		{Text: "رسوم الترخيص", Database: "activity", Score: 0.8},
		{Text: "مده الترخيص", Database: "activity", Score: 0.7},
		{Text: "جهه الترخيص", Database: "activity", Score: 0.6},
	}
	answer, err := NewLocalProvider().Synthesize(context.Background(), "اشتراطات الفندق", snippets)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !strings.Contains(answer, "اشتراطات ترخيص الفندق") {
		t.Fatalf("expected top snippet in answer, got %q", answer)
	}
	if strings.Contains(answer, "جهه الترخيص") {
		t.Fatalf("expected fourth snippet summarized away, got %q", answer)
	}
}

func TestClipTruncatesLongText(t *testing.T) {
	long := strings.Repeat("نص ", 400)
	clipped := clip(long)
	if len([]rune(clipped)) > maxSnippetRunes+1 {
		t.Fatalf("clip left %d runes", len([]rune(clipped)))
	}
}
