// File path: internal/kb/loader_test.go
package kb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildCanonicalizesBareVector(t *testing.T) {
	raw := &RawCollection{
		Vectors: []RawRecord{
			{ID: "r1", Original: map[string]interface{}{"name": "فندق"}, Vector: []float32{1, 0, 0}},
		},
	}
	coll, err := Build(raw, CollectionActivity)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if coll.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", coll.Len())
	}
	rec := coll.Records[0]
	if !rec.HasEmbeddings() {
		t.Fatal("bare vector should become an embedding variant")
	}
	if len(rec.Embeddings[VariantFull]) != 3 {
		t.Fatalf("expected bare vector under %q variant", VariantFull)
	}
	if coll.Dimension != 3 {
		t.Fatalf("expected detected dimension 3, got %d", coll.Dimension)
	}
}

func TestBuildFirstModelWins(t *testing.T) {
	raw := &RawCollection{
		Data: []RawRecord{{
			ID:       "r1",
			Original: map[string]interface{}{"name": "مصنع"},
			Embeddings: map[string]map[string][]float32{
				"model-a": {VariantFull: {1, 0}},
			},
			Vector: []float32{0, 1},
		}},
	}
	coll, err := Build(raw, CollectionIndustrial)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	vec := coll.Records[0].Embeddings[VariantFull]
	if vec[0] != 1 || vec[1] != 0 {
		t.Fatalf("nested model variant should win over bare vector, got %v", vec)
	}
}

func TestBuildAssignsMissingIDs(t *testing.T) {
	raw := &RawCollection{
		Data: []RawRecord{
			{Original: map[string]interface{}{"name": "مطعم"}, Vector: []float32{1}},
			{Original: map[string]interface{}{"name": "صيدليه"}, Vector: []float32{1}},
		},
	}
	coll, err := Build(raw, CollectionActivity)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	seen := map[string]bool{}
	for _, rec := range coll.Records {
		if rec.ID == "" {
			t.Fatal("record left without an id")
		}
		if seen[rec.ID] {
			t.Fatalf("duplicate assigned id %s", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestBuildTextPrioritizesNamedFields(t *testing.T) {
	raw := &RawCollection{
		Data: []RawRecord{{
			ID: "r1",
			Original: map[string]interface{}{
				"zzz_extra": "ملاحظه اضافيه",
				"name":      "فندق النيل",
				"الاشتراطات": "موافقه الحمايه المدنيه",
			},
			Vector: []float32{1},
		}},
	}
	coll, err := Build(raw, CollectionActivity)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	text := coll.Records[0].Text()
	if text == "" {
		t.Fatal("expected assembled text")
	}
	// name comes before the unordered remainder.
	if len(text) < 4 || text[:len("فندق")] != "فندق" {
		t.Fatalf("expected text to start with the name field, got %q", text)
	}
	if len(coll.Records[0].Keywords()) == 0 {
		t.Fatal("expected indexed keywords")
	}
}

func TestBuildRejectsEmptyPayload(t *testing.T) {
	if _, err := Build(&RawCollection{}, CollectionActivity); err == nil {
		t.Fatal("expected error for payload without records")
	}
	if _, err := Build(nil, CollectionActivity); err == nil {
		t.Fatal("expected error for nil payload")
	}
}

func TestValidateRequiresUsableVectors(t *testing.T) {
	good := func(name string) *Collection {
		coll, err := Build(&RawCollection{
			Data: []RawRecord{{ID: "r", Original: map[string]interface{}{"name": "سجل"}, Vector: []float32{1}}},
		}, name)
		if err != nil {
			t.Fatalf("build %s: %v", name, err)
		}
		return coll
	}
	collections := map[string]*Collection{
		CollectionActivity:    good(CollectionActivity),
		CollectionDecision104: good(CollectionDecision104),
		CollectionIndustrial:  good(CollectionIndustrial),
	}
	if err := Validate(collections); err != nil {
		t.Fatalf("expected valid set, got %v", err)
	}

	noVec, err := Build(&RawCollection{
		Data: []RawRecord{{ID: "r", Original: map[string]interface{}{"name": "سجل"}}},
	}, CollectionActivity)
	if err != nil {
		t.Fatalf("build vectorless: %v", err)
	}
	collections[CollectionActivity] = noVec
	if err := Validate(collections); err == nil {
		t.Fatal("expected error for collection without usable vectors")
	}

	delete(collections, CollectionIndustrial)
	if err := Validate(collections); err == nil {
		t.Fatal("expected error for missing collection")
	}
}

func TestFileProviderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	payload := RawCollection{
		Version:   "2024-11",
		Dimension: 2,
		Data: []RawRecord{
			{ID: "r1", Original: map[string]interface{}{"name": "منطقه صناعيه"}, Vector: []float32{1, 0}},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, CollectionIndustrial+".json"), data, 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	provider := NewFileProvider(dir)
	raw, err := provider.Load(context.Background(), CollectionIndustrial)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if raw.Name != CollectionIndustrial {
		t.Fatalf("expected name backfill, got %q", raw.Name)
	}
	if raw.Version != "2024-11" || len(raw.Data) != 1 {
		t.Fatalf("unexpected payload %+v", raw)
	}

	if _, err := provider.Load(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConceptCandidatesNarrowAndFallBack(t *testing.T) {
	raw := &RawCollection{Data: []RawRecord{
		{ID: "hotel", Original: map[string]interface{}{"name": "ترخيص فندق"}, Vector: []float32{1}},
		{ID: "factory", Original: map[string]interface{}{"name": "سجل مصنع اغذيه"}, Vector: []float32{1}},
		{ID: "misc", Original: map[string]interface{}{"name": "بيانات عامه"}, Vector: []float32{1}},
	}}
	coll, err := Build(raw, CollectionActivity)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	candidates := coll.Candidates([]string{"فندق"})
	if len(candidates) == 0 {
		t.Fatal("expected concept candidates for فندق")
	}
	for _, idx := range candidates {
		if coll.Records[idx].ID == "misc" {
			t.Fatal("misc record should not match the hotel concept")
		}
	}

	if got := coll.Candidates(nil); got != nil {
		t.Fatalf("empty query words should scan everything, got %v", got)
	}
}
