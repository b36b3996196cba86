// File path: internal/sqlite/store_test.go
package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := Config{Path: filepath.Join(t.TempDir(), "state.db")}
	cfg.applyDefaults()
	store, err := OpenWithConfig(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTeachAndExactLookup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	taught, err := store.Teach(ctx, "ما هي رسوم ترخيص الفندق؟", "الرسوم 5000 جنيه", "")
	if err != nil {
		t.Fatalf("teach: %v", err)
	}
	if taught.ID == 0 {
		t.Fatal("expected assigned id")
	}

	// Same question in a different orthography still hits exactly.
	hit, err := store.Lookup(ctx, "ما هى رسوم ترخيص الفندق")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if hit == nil {
		t.Fatal("expected learned hit")
	}
	if hit.Answer != "الرسوم 5000 جنيه" {
		t.Fatalf("unexpected answer %q", hit.Answer)
	}
	if hit.UseCount != 1 {
		t.Fatalf("expected use count 1, got %d", hit.UseCount)
	}
}

func TestLookupSimilarityFloor(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Teach(ctx, "اشتراطات ترخيص مصنع اغذيه منطقه الشرقيه الصناعيه الجديده", "تحتاج موافقه الهيئه", ""); err != nil {
		t.Fatalf("teach: %v", err)
	}

	// Seven of eight content words shared: Jaccard 0.875, above the floor.
	hit, err := store.Lookup(ctx, "اشتراطات ترخيص مصنع اغذيه منطقه الشرقيه الصناعيه")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if hit == nil {
		t.Fatal("expected near-duplicate to clear the similarity floor")
	}

	// A different question must not match.
	miss, err := store.Lookup(ctx, "حوافز الاستثمار الزراعي")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if miss != nil {
		t.Fatalf("unexpected hit %+v", miss)
	}
}

func TestTeachUpsertsByNormalizedQuestion(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Teach(ctx, "كم رسوم السجل؟", "100 جنيه", ""); err != nil {
		t.Fatalf("teach: %v", err)
	}
	updated, err := store.Teach(ctx, "كم رسوم السجل؟", "150 جنيه", "")
	if err != nil {
		t.Fatalf("re-teach: %v", err)
	}
	if updated.Answer != "150 جنيه" {
		t.Fatalf("expected updated answer, got %q", updated.Answer)
	}
	all, err := store.AllLearned(ctx)
	if err != nil {
		t.Fatalf("all learned: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected single record after upsert, got %d", len(all))
	}
}

func TestContextRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	empty, err := store.LoadContext(ctx)
	if err != nil {
		t.Fatalf("load empty context: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected nil context, got %s", empty)
	}

	payload := []byte(`{"last_entity":"فندق"}`)
	if err := store.SaveContext(ctx, payload); err != nil {
		t.Fatalf("save context: %v", err)
	}
	loaded, err := store.LoadContext(ctx)
	if err != nil {
		t.Fatalf("load context: %v", err)
	}
	if string(loaded) != string(payload) {
		t.Fatalf("context mismatch: %s", loaded)
	}

	if err := store.ClearContext(ctx); err != nil {
		t.Fatalf("clear context: %v", err)
	}
	cleared, err := store.LoadContext(ctx)
	if err != nil {
		t.Fatalf("load cleared context: %v", err)
	}
	if cleared != nil {
		t.Fatal("expected nil after clear")
	}
}

func TestMetaIndexRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	index := map[string][]string{
		"governorates": {"القاهره", "الجيزه"},
		"activities":   {"فندق"},
	}
	if err := store.SaveMetaIndex(ctx, index); err != nil {
		t.Fatalf("save meta index: %v", err)
	}
	loaded, err := store.LoadMetaIndex(ctx)
	if err != nil {
		t.Fatalf("load meta index: %v", err)
	}
	if len(loaded["governorates"]) != 2 || len(loaded["activities"]) != 1 {
		t.Fatalf("unexpected meta index %v", loaded)
	}

	// Saving again replaces, not appends.
	if err := store.SaveMetaIndex(ctx, map[string][]string{"activities": {"مطعم"}}); err != nil {
		t.Fatalf("re-save meta index: %v", err)
	}
	replaced, err := store.LoadMetaIndex(ctx)
	if err != nil {
		t.Fatalf("reload meta index: %v", err)
	}
	if len(replaced["governorates"]) != 0 || len(replaced["activities"]) != 1 {
		t.Fatalf("expected replacement, got %v", replaced)
	}
}

func TestExportImport(t *testing.T) {
	source := openTestStore(t)
	ctx := context.Background()

	if _, err := source.Teach(ctx, "سؤال تجريبي عن الرسوم", "اجابه تجريبيه", `{"tag":"test"}`); err != nil {
		t.Fatalf("teach: %v", err)
	}
	if err := source.SaveContext(ctx, []byte(`{"history":[]}`)); err != nil {
		t.Fatalf("save context: %v", err)
	}
	if err := source.SaveMetaIndex(ctx, map[string][]string{"activities": {"فندق"}}); err != nil {
		t.Fatalf("save meta index: %v", err)
	}

	data, err := source.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !json.Valid(data) {
		t.Fatal("export is not valid JSON")
	}

	target := openTestStore(t)
	if err := target.Import(ctx, data); err != nil {
		t.Fatalf("import: %v", err)
	}
	hit, err := target.Lookup(ctx, "سؤال تجريبي عن الرسوم")
	if err != nil {
		t.Fatalf("lookup after import: %v", err)
	}
	if hit == nil || hit.Answer != "اجابه تجريبيه" {
		t.Fatalf("expected imported answer, got %+v", hit)
	}
	meta, err := target.LoadMetaIndex(ctx)
	if err != nil {
		t.Fatalf("meta after import: %v", err)
	}
	if len(meta["activities"]) != 1 {
		t.Fatalf("expected imported meta index, got %v", meta)
	}
}
