package cache

import (
	"path/filepath"
	"testing"

	"github.com/seekforge/groundchat/internal/search"
)

func entry(summary string) Entry {
	return Entry{
		Summary: summary,
		Results: []search.Result{{
			Title:       "标题",
			Snippet:     "snippet",
			FullContent: "full content",
			URL:         "https://example.com",
		}},
	}
}

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory()

	if _, ok := m.Get("泰山 传说"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	m.Put("泰山 传说", entry("总结"))

	got, ok := m.Get("泰山 传说")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if got.Summary != "总结" {
		t.Errorf("unexpected summary: %q", got.Summary)
	}
	if len(got.Results) != 1 || got.Results[0].URL != "https://example.com" {
		t.Errorf("results did not round-trip: %+v", got.Results)
	}
}

func TestMemory_KeysAreExact(t *testing.T) {
	m := NewMemory()
	m.Put("Query", entry("s"))

	// Case and whitespace sensitive on purpose.
	for _, miss := range []string{"query", "Query ", " Query"} {
		if _, ok := m.Get(miss); ok {
			t.Errorf("key %q must not hit entry for %q", miss, "Query")
		}
	}
}

func TestMemory_OverwriteIsIdempotent(t *testing.T) {
	m := NewMemory()
	m.Put("q", entry("one"))
	m.Put("q", entry("one"))

	if m.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", m.Len())
	}
}

func TestLRU_EvictsAtCapacity(t *testing.T) {
	c := NewLRU(2, 0)
	c.Put("a", entry("a"))
	c.Put("b", entry("b"))
	c.Put("c", entry("c"))

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry missing")
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, ok := s.Get("q"); ok {
		t.Fatal("unexpected hit on fresh database")
	}

	s.Put("q", entry("总结"))

	got, ok := s.Get("q")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if got.Summary != "总结" {
		t.Errorf("unexpected summary: %q", got.Summary)
	}
	if len(got.Results) != 1 || got.Results[0].Title != "标题" {
		t.Errorf("results did not round-trip: %+v", got.Results)
	}
}

func TestSQLite_Overwrite(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	s.Put("q", entry("first"))
	s.Put("q", entry("second"))

	got, _ := s.Get("q")
	if got.Summary != "second" {
		t.Errorf("expected overwrite, got %q", got.Summary)
	}
}
