// File path: internal/queryparse/parser_test.go
package queryparse

import (
	"strings"
	"testing"
)

func TestParseSimpleQuery(t *testing.T) {
	p := Parse("اشتراطات ترخيص مطعم")
	if p.QueryType != TypeSimple {
		t.Fatalf("expected simple, got %s", p.QueryType)
	}
	if len(p.SubQueries) != 1 {
		t.Fatalf("expected one sub-query, got %d", len(p.SubQueries))
	}
	if p.RequiresContext {
		t.Fatal("simple query should not require context")
	}
}

func TestParseSequentialNotSplit(t *testing.T) {
	p := Parse("ما هي رسومه ثم ما هي مدته")
	if p.QueryType != TypeSequential {
		t.Fatalf("expected sequential, got %s", p.QueryType)
	}
	if !p.RequiresContext {
		t.Fatal("sequential query must carry requires-context flag")
	}
	if len(p.SubQueries) != 1 {
		t.Fatalf("sequential query must stay whole, got %d sub-queries", len(p.SubQueries))
	}
}

func TestParseComparativeBeatsStatistical(t *testing.T) {
	p := Parse("قارن عدد المناطق بين القاهره والجيزه")
	if p.QueryType != TypeComparative {
		t.Fatalf("comparison marker should win over statistical, got %s", p.QueryType)
	}
	if !p.HasComparison {
		t.Fatal("expected comparison flag")
	}
}

func TestParseStatisticalQuery(t *testing.T) {
	p := Parse("كم مصنع في الشرقيه")
	if p.QueryType != TypeStatistical {
		t.Fatalf("expected statistical, got %s", p.QueryType)
	}
}

func TestParseComplexSplitsOnConjunctions(t *testing.T) {
	p := Parse("اشتراطات الترخيص ثم الرسوم المطلوبه لكن بدون المستندات")
	if p.QueryType != TypeComplex {
		t.Fatalf("expected complex with two conjunctions, got %s", p.QueryType)
	}
	if len(p.SubQueries) != 3 {
		t.Fatalf("expected 3 clauses, got %d: %v", len(p.SubQueries), p.SubQueries)
	}
	if p.SubQueries[0].Conjunction != "ثم" {
		t.Fatalf("first clause should carry its trailing conjunction, got %q", p.SubQueries[0].Conjunction)
	}
	if p.SubQueries[2].Conjunction != "" {
		t.Fatalf("last clause should have no conjunction, got %q", p.SubQueries[2].Conjunction)
	}
}

func TestParseSplitsOnQuestionMarks(t *testing.T) {
	p := Parse("ما اشتراطات الترخيص؟ وما الرسوم ثم المده لكن بدون مستندات؟")
	if len(p.SubQueries) < 2 {
		t.Fatalf("expected question-mark split, got %v", p.SubQueries)
	}
	for _, sq := range p.SubQueries {
		if strings.Contains(sq.Text, "؟") {
			t.Fatalf("fragment still contains question mark: %q", sq.Text)
		}
	}
}

func TestComplexityCapped(t *testing.T) {
	long := strings.Repeat("اشتراطات ترخيص مصنع في القاهره ثم الجيزه لكن ", 10)
	p := Parse(long)
	if p.Complexity > complexityCap {
		t.Fatalf("complexity above cap: %d", p.Complexity)
	}
	if p.Complexity <= 0 {
		t.Fatalf("expected positive complexity, got %d", p.Complexity)
	}
}

func TestResolvePronouns(t *testing.T) {
	got := ResolvePronouns("ما هي رسوم هذا", "فندق")
	if !strings.Contains(got, "فندق") {
		t.Fatalf("expected pronoun replaced with فندق, got %q", got)
	}

	// هي is also a pronoun; both occurrences resolve.
	if strings.Contains(got, "هذا") {
		t.Fatalf("pronoun left unresolved: %q", got)
	}

	if got := ResolvePronouns("ما هي الرسوم", ""); got != "ما هي الرسوم" {
		t.Fatalf("no context entity should be a no-op, got %q", got)
	}

	if got := ResolvePronouns("رسوم الترخيص", "فندق"); got != "رسوم الترخيص" {
		t.Fatalf("no pronouns should be a no-op, got %q", got)
	}
}
