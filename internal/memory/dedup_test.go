package memory

import (
	"context"
	"testing"
)

func TestJaccardSimilarity(t *testing.T) {
	a := "the quick brown fox jumps"
	b := "the quick brown fox leaps"
	sim := jaccardSimilarity(a, b)
	if sim <= 0.5 || sim >= 1.0 {
		t.Errorf("jaccardSimilarity() = %v, want in (0.5, 1.0)", sim)
	}

	if got := jaccardSimilarity("completely different text", "nothing whatsoever alike here"); got > 0.2 {
		t.Errorf("jaccardSimilarity(unrelated) = %v, want near 0", got)
	}

	if got := jaccardSimilarity("", "anything"); got != 0 {
		t.Errorf("jaccardSimilarity(empty) = %v, want 0", got)
	}
}

func TestFindDuplicates(t *testing.T) {
	s := newTestStore(t)
	putFact(t, s, "fact.a", "A", "the build uses make and go test for verification")
	putFact(t, s, "fact.b", "B", "the build uses make and go test for verification too")
	putFact(t, s, "fact.c", "C", "completely unrelated information about deployment")

	manifest := Manifest{Docs: []ManifestEntry{
		{ID: "fact.a", Kind: KindFact},
		{ID: "fact.b", Kind: KindFact},
		{ID: "fact.c", Kind: KindFact},
	}}

	dedup := NewDeduplicator(StrategyFlagForReview)
	groups, err := dedup.FindDuplicates(context.Background(), manifest, s)
	if err != nil {
		t.Fatalf("FindDuplicates() error = %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("FindDuplicates() = %d groups, want 1", len(groups))
	}
	if groups[0].CanonicalID != "fact.a" {
		t.Errorf("CanonicalID = %q, want fact.a", groups[0].CanonicalID)
	}
	if len(groups[0].Duplicates) != 1 || groups[0].Duplicates[0] != "fact.b" {
		t.Errorf("Duplicates = %v, want [fact.b]", groups[0].Duplicates)
	}
}

func TestResolveMergeToFirst(t *testing.T) {
	dedup := NewDeduplicator(StrategyMergeToFirst)
	groups := []DuplicateGroup{{CanonicalID: "fact.a", Duplicates: []string{"fact.b"}, Similarity: 0.9}}

	patches := dedup.Resolve(groups)
	if len(patches) != 1 {
		t.Fatalf("Resolve() = %d patches, want 1", len(patches))
	}
	if patches[0].DocID != "fact.a" {
		t.Errorf("DocID = %q, want fact.a", patches[0].DocID)
	}
}

func TestResolveKeepNewestRemovesDuplicates(t *testing.T) {
	dedup := NewDeduplicator(StrategyKeepNewest)
	groups := []DuplicateGroup{{CanonicalID: "fact.a", Duplicates: []string{"fact.b", "fact.c"}, Similarity: 0.9}}

	patches := dedup.Resolve(groups)
	if len(patches) != 2 {
		t.Fatalf("Resolve() = %d patches, want 2", len(patches))
	}
}

func TestResolveFlagForReview(t *testing.T) {
	dedup := NewDeduplicator(StrategyFlagForReview)
	groups := []DuplicateGroup{{CanonicalID: "fact.a", Duplicates: []string{"fact.b"}, Similarity: 0.85}}

	patches := dedup.Resolve(groups)
	if len(patches) != 1 {
		t.Fatalf("Resolve() = %d patches, want 1", len(patches))
	}
	if patches[0].DocID != "review.fact.a" {
		t.Errorf("DocID = %q, want review.fact.a", patches[0].DocID)
	}
}
