package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xifan2333/subcue/pkgs/asr"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "transcripts.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreAndLookup(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	key := Key{Provider: "jianying", Checksum: "cbf43926", Size: 9}
	result := &asr.StandardResult{
		Text:      "你好世界",
		Words:     []asr.Word{{Text: "你好", Start: 0, End: 400}, {Text: "世界", Start: 400, End: 900}},
		Sentences: []asr.Sentence{{Text: "你好世界", Start: 0, End: 900, SpeakerID: "1"}},
		Language:  "zh-CN",
	}

	if err := store.Store(ctx, key, result); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok, err := store.Lookup(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if got.Text != result.Text || got.Language != result.Language {
		t.Fatalf("unexpected cached result %+v", got)
	}
	if len(got.Words) != 2 || got.Words[1].End != 900 {
		t.Fatalf("unexpected cached words %+v", got.Words)
	}
	if len(got.Sentences) != 1 || got.Sentences[0].SpeakerID != "1" {
		t.Fatalf("unexpected cached sentences %+v", got.Sentences)
	}
}

func TestLookupMissesOnAnyKeyField(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	key := Key{Provider: "bijian", Checksum: "deadbeef", Size: 100}
	if err := store.Store(ctx, key, &asr.StandardResult{Text: "a"}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	misses := []Key{
		{Provider: "jianying", Checksum: "deadbeef", Size: 100},
		{Provider: "bijian", Checksum: "deadbeee", Size: 100},
		{Provider: "bijian", Checksum: "deadbeef", Size: 101},
		{},
	}
	for _, k := range misses {
		if _, ok, err := store.Lookup(ctx, k); err != nil || ok {
			t.Fatalf("key %+v: expected miss, got ok=%v err=%v", k, ok, err)
		}
	}
}

func TestStoreReplacesAndRemove(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	key := Key{Provider: "elevenlabs", Checksum: "01020304", Size: 4}

	for i := 0; i < 2; i++ {
		if err := store.Store(ctx, key, &asr.StandardResult{Text: fmt.Sprintf("v%d", i)}); err != nil {
			t.Fatalf("Store %d: %v", i, err)
		}
	}
	got, _, err := store.Lookup(ctx, key)
	if err != nil || got.Text != "v1" {
		t.Fatalf("expected latest entry, got %+v err=%v", got, err)
	}
	if n, err := store.Count(ctx); err != nil || n != 1 {
		t.Fatalf("expected one row, got %d err=%v", n, err)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := store.Lookup(ctx, key); ok {
		t.Fatal("expected entry to be gone")
	}
}

func TestStoreRejectsIncompleteKey(t *testing.T) {
	store := openStore(t)
	if err := store.Store(context.Background(), Key{Provider: "bijian"}, &asr.StandardResult{}); err == nil {
		t.Fatal("expected error for incomplete key")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.db")
	ctx := context.Background()
	key := Key{Provider: "bijian", Checksum: "aa", Size: 1}

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Store(ctx, key, &asr.StandardResult{Text: "kept"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, ok, err := second.Lookup(ctx, key)
	if err != nil || !ok || got.Text != "kept" {
		t.Fatalf("expected persisted entry, got %+v ok=%v err=%v", got, ok, err)
	}
}

func TestNilStoreIsNoop(t *testing.T) {
	var store *Store
	if _, ok, err := store.Lookup(context.Background(), Key{Provider: "a", Checksum: "b", Size: 1}); ok || err != nil {
		t.Fatalf("expected nil store miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Store(context.Background(), Key{}, nil); err != nil {
		t.Fatalf("expected nil store to ignore writes, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("expected nil Close to succeed, got %v", err)
	}
}
