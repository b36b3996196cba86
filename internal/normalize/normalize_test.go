// File path: internal/normalize/normalize_test.go
package normalize

import (
	"testing"
)

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"فندق في القاهرة",
		"أريد إنشاء مصنعٍ جديدٍ",
		"عايز افتح مطعم فى مدينة العاشر",
		"كم عدد المناطق الصناعية؟",
		"",
		"   ",
		"ABC def ١٢٣",
	}
	for _, input := range inputs {
		once := Normalize(input, DefaultOptions())
		twice := Normalize(once, DefaultOptions())
		if once != twice {
			t.Fatalf("normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalizeUnifiesAlefVariants(t *testing.T) {
	variants := []string{"أحمد", "احمد", "إحمد", "آحمد"}
	want := Normalize(variants[0], DefaultOptions())
	if want == "" {
		t.Fatal("expected non-empty normalization")
	}
	for _, v := range variants[1:] {
		if got := Normalize(v, DefaultOptions()); got != want {
			t.Fatalf("variant %q normalized to %q, want %q", v, got, want)
		}
	}
}

func TestNormalizeRemovesDiacriticsAndTatweel(t *testing.T) {
	got := Normalize("مُسْتَثْمِـــر", DefaultOptions())
	want := "مستثمر"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeConvertsArabicIndicDigits(t *testing.T) {
	got := Normalize("قرار ١٠٤ لسنة ٢٠١٧", DefaultOptions())
	want := "قرار 104 لسنه 2017"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeAppliesColloquialSynonyms(t *testing.T) {
	got := Normalize("عايز افتح مطعم", DefaultOptions())
	want := "اريد افتح مطعم"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeEmptyAndDegenerateInput(t *testing.T) {
	for _, input := range []string{"", "   ", "​‌"} {
		if got := Normalize(input, DefaultOptions()); got != "" {
			t.Fatalf("expected empty result for %q, got %q", input, got)
		}
	}
}

func TestForIndexingDropsStopWords(t *testing.T) {
	got := ForIndexing("ما هي الحوافز في القانون")
	for _, stop := range []string{"ما", "هي", "في"} {
		for _, w := range Tokenize(got) {
			if w == stop {
				t.Fatalf("stop word %q survived indexing normalization: %q", stop, got)
			}
		}
	}
}

func TestForVoiceAppliesCorrections(t *testing.T) {
	got := ForVoice("مصنع في عاشر رمضان")
	want := ForEmbedding("مصنع في العاشر من رمضان")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractKeywords(t *testing.T) {
	keywords := ExtractKeywords("ما هي رسوم ترخيص المصنع؟ رسوم الترخيص")
	if len(keywords) == 0 {
		t.Fatal("expected keywords")
	}
	seen := make(map[string]int)
	for _, k := range keywords {
		seen[k]++
		if len([]rune(k)) <= 2 {
			t.Fatalf("short token %q should have been dropped", k)
		}
	}
	for k, n := range seen {
		if n > 1 {
			t.Fatalf("keyword %q duplicated", k)
		}
	}
}

func TestTextSimilarityBoundsAndSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"فندق في القاهرة", "فندق في القاهرة"},
		{"فندق في القاهرة", "مصنع في أسوان"},
		{"", "فندق"},
		{"مطعم سياحي", "مطعم"},
	}
	for _, pair := range pairs {
		ab := TextSimilarity(pair[0], pair[1])
		ba := TextSimilarity(pair[1], pair[0])
		if ab != ba {
			t.Fatalf("similarity not symmetric for %v: %f != %f", pair, ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf("similarity out of range for %v: %f", pair, ab)
		}
	}
	if got := TextSimilarity("فندق في القاهرة", "فندق في القاهرة"); got != 1 {
		t.Fatalf("identical texts should score 1, got %f", got)
	}
}

func TestExtractEntitiesHotelInCairo(t *testing.T) {
	entities := ExtractEntities("فندق في القاهرة")
	if len(entities.Activities) == 0 || entities.Activities[0] != "فندق" {
		t.Fatalf("expected activity فندق, got %v", entities.Activities)
	}
	if len(entities.Governorates) == 0 || entities.Governorates[0] != ForEmbedding("القاهرة") {
		t.Fatalf("expected governorate القاهرة, got %v", entities.Governorates)
	}
}

func TestExtractEntitiesNumbersAndSectors(t *testing.T) {
	entities := ExtractEntities("حوافز قرار ١٠٤ في قطاع الصناعة")
	if len(entities.Numbers) != 1 || entities.Numbers[0] != "104" {
		t.Fatalf("expected number 104, got %v", entities.Numbers)
	}
	if len(entities.Sectors) != 1 {
		t.Fatalf("expected one sector, got %v", entities.Sectors)
	}
}

func TestGovernorateListComplete(t *testing.T) {
	if len(DefaultGazetteer().Governorates) != 27 {
		t.Fatalf("expected 27 governorates, got %d", len(DefaultGazetteer().Governorates))
	}
}
