package memory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "memory.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func putFact(t *testing.T, s *Store, id, title, body string) {
	t.Helper()
	meta := Meta{ID: id, Kind: KindFact, Title: title, Path: "facts/" + id + ".md", Updated: time.Now().UTC()}
	if err := s.Put(context.Background(), "facts", id, body, meta); err != nil {
		t.Fatalf("Put(%q) error = %v", id, err)
	}
}

// TestSearchScenarioS4 implements scenario S4.
func TestSearchScenarioS4(t *testing.T) {
	s := newTestStore(t)
	putFact(t, s, "fact.testing.coverage", "Testing Coverage", "Minimum line coverage: 80%. Use cargo llvm-cov.")

	hits, err := s.Search(context.Background(), "coverage", Filters{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) < 1 {
		t.Fatal("Search() returned no hits")
	}
	if !strings.Contains(hits[0].Snippet, "<b>coverage</b>") && !strings.Contains(strings.ToLower(hits[0].Snippet), "<b>coverage</b>") {
		t.Errorf("Snippet = %q, want containing <b>coverage</b>", hits[0].Snippet)
	}
	if hits[0].Kind != KindFact {
		t.Errorf("Kind = %v, want Fact", hits[0].Kind)
	}
}

func TestPutGetDelete(t *testing.T) {
	s := newTestStore(t)
	putFact(t, s, "fact.a", "A", "content a")

	content, meta, ok, err := s.Get(context.Background(), "facts", "fact.a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || content != "content a" || meta.Title != "A" {
		t.Fatalf("Get() = %q,%+v,%v", content, meta, ok)
	}

	deleted, err := s.Delete(context.Background(), "facts", "fact.a")
	if err != nil || !deleted {
		t.Fatalf("Delete() = %v,%v", deleted, err)
	}

	_, _, ok, err = s.Get(context.Background(), "facts", "fact.a")
	if err != nil {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if ok {
		t.Fatal("Get() after delete should not find the document")
	}
}

// TestFTSIndexCoherence implements invariant 7: rebuild_index is idempotent
// and preserves search results.
func TestFTSIndexCoherence(t *testing.T) {
	s := newTestStore(t)
	putFact(t, s, "fact.one", "One", "alpha bravo charlie")
	putFact(t, s, "fact.two", "Two", "delta echo foxtrot")

	before, err := s.Search(context.Background(), "alpha", Filters{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if err := s.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}
	if err := s.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("second RebuildIndex() error = %v", err)
	}

	after, err := s.Search(context.Background(), "alpha", Filters{})
	if err != nil {
		t.Fatalf("Search() after rebuild error = %v", err)
	}

	if len(before) != len(after) || len(after) == 0 {
		t.Fatalf("Search() before=%d after=%d, want equal and nonzero", len(before), len(after))
	}
}

// TestHybridSearchMerge implements invariant 8: hybrid_search returns a
// superset of search when vector search has hits, ordered ascending by
// score with unique ids.
func TestHybridSearchMerge(t *testing.T) {
	s := newTestStore(t)
	putFact(t, s, "fact.lexical", "Lexical", "unique lexical keyword phrase")
	putFact(t, s, "fact.vector-only", "Vector only", "completely unrelated content")

	if err := s.PutEmbedding(context.Background(), "fact.lexical", []float32{1, 0, 0}); err != nil {
		t.Fatalf("PutEmbedding() error = %v", err)
	}
	if err := s.PutEmbedding(context.Background(), "fact.vector-only", []float32{0.9, 0.1, 0}); err != nil {
		t.Fatalf("PutEmbedding() error = %v", err)
	}

	lexical, err := s.Search(context.Background(), "lexical", Filters{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	hybrid, err := s.HybridSearch(context.Background(), "lexical", []float32{1, 0, 0}, Filters{}, -100)
	if err != nil {
		t.Fatalf("HybridSearch() error = %v", err)
	}

	if len(hybrid) < len(lexical) {
		t.Fatalf("HybridSearch() returned %d hits, want >= %d (superset of lexical)", len(hybrid), len(lexical))
	}

	seen := make(map[string]bool)
	for i, h := range hybrid {
		if seen[h.ID] {
			t.Fatalf("duplicate id %q in hybrid results", h.ID)
		}
		seen[h.ID] = true
		if i > 0 && hybrid[i-1].Score > h.Score {
			t.Fatalf("hybrid results not ascending by score at index %d", i)
		}
	}
}

func TestStatsCountsByKind(t *testing.T) {
	s := newTestStore(t)
	putFact(t, s, "fact.a", "A", "x")
	putFact(t, s, "fact.b", "B", "y")

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DocCount != 2 {
		t.Errorf("DocCount = %d, want 2", stats.DocCount)
	}
	if stats.DocsByKind["fact"] != 2 {
		t.Errorf("DocsByKind[fact] = %d, want 2", stats.DocsByKind["fact"])
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("cosineSimilarity(identical) = %v, want ~1", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got > 0.001 || got < -0.001 {
		t.Errorf("cosineSimilarity(orthogonal) = %v, want ~0", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("cosineSimilarity(mismatched length) = %v, want 0", got)
	}
}

func TestEncodeDecodeEmbeddingRoundtrip(t *testing.T) {
	original := []float32{0.1, -0.2, 3.5, 0}
	decoded := decodeEmbedding(encodeEmbedding(original))
	if len(decoded) != len(original) {
		t.Fatalf("len(decoded) = %d, want %d", len(decoded), len(original))
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("decoded[%d] = %v, want %v", i, decoded[i], original[i])
		}
	}
}
