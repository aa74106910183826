package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/stormlightlabs/thunderus-go/internal/session"
)

// DedupStrategy selects how the deduplicator resolves a DuplicateGroup.
type DedupStrategy string

const (
	StrategyMergeToFirst  DedupStrategy = "merge-to-first"
	StrategyKeepNewest    DedupStrategy = "keep-newest"
	StrategyFlagForReview DedupStrategy = "flag-for-review"
)

// DuplicateGroup is a canonical document plus the near-duplicates found
// for it.
type DuplicateGroup struct {
	CanonicalID string
	Duplicates  []string
	Similarity  float64
}

// PatchParams is the minimal shape the deduplicator emits; the caller
// (the agent orchestrator) turns these into real patch.Patch values via
// patch.New once a diff body has been rendered.
type PatchParams struct {
	Path        string
	DocID       string
	Kind        Kind
	Description string
	Diff        string
	SourceEvents []string
	SessionID   session.ID
	Seq         uint64
}

// Deduplicator finds and resolves near-duplicate Fact documents using a
// Jaccard word-overlap similarity.
type Deduplicator struct {
	strategy DedupStrategy
}

func NewDeduplicator(strategy DedupStrategy) *Deduplicator {
	return &Deduplicator{strategy: strategy}
}

// FindDuplicates compares every pair of Fact documents in manifest via
// store.GetByID, grouping any with a Jaccard similarity above 0.8.
func (d *Deduplicator) FindDuplicates(ctx context.Context, manifest Manifest, store *Store) ([]DuplicateGroup, error) {
	var groups []DuplicateGroup
	processed := make(map[string]bool)

	var facts []ManifestEntry
	for _, e := range manifest.Docs {
		if e.Kind == KindFact {
			facts = append(facts, e)
		}
	}

	for _, entry := range facts {
		if processed[entry.ID] {
			continue
		}

		content, ok, err := store.GetByID(ctx, entry.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		var duplicates []string
		for _, other := range facts {
			if other.ID == entry.ID || processed[other.ID] {
				continue
			}
			otherContent, ok, err := store.GetByID(ctx, other.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if jaccardSimilarity(content, otherContent) > 0.8 {
				duplicates = append(duplicates, other.ID)
			}
		}

		if len(duplicates) > 0 {
			groups = append(groups, DuplicateGroup{CanonicalID: entry.ID, Duplicates: duplicates, Similarity: 0.9})
			processed[entry.ID] = true
			for _, id := range duplicates {
				processed[id] = true
			}
		}
	}

	return groups, nil
}

func jaccardSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection

	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Resolve turns each group into patches according to the configured strategy.
func (d *Deduplicator) Resolve(groups []DuplicateGroup) []PatchParams {
	var patches []PatchParams
	for _, g := range groups {
		switch d.strategy {
		case StrategyMergeToFirst:
			patches = append(patches, d.mergePatch(g))
		case StrategyKeepNewest:
			patches = append(patches, d.removalPatches(g)...)
		case StrategyFlagForReview:
			patches = append(patches, d.reviewPatch(g))
		}
	}
	return patches
}

func (d *Deduplicator) mergePatch(g DuplicateGroup) PatchParams {
	plural := ""
	if len(g.Duplicates) != 1 {
		plural = "s"
	}
	return PatchParams{
		Path:        fmt.Sprintf("memory/%s", strings.ReplaceAll(g.CanonicalID, ".", "/")),
		DocID:       g.CanonicalID,
		Kind:        KindFact,
		Description: fmt.Sprintf("merging %d duplicate%s into %s", len(g.Duplicates), plural, g.CanonicalID),
		Diff:        fmt.Sprintf("<!-- Merge duplicates: %s -->\n<!-- Similarity: %.2f -->", strings.Join(g.Duplicates, ", "), g.Similarity),
	}
}

func (d *Deduplicator) removalPatches(g DuplicateGroup) []PatchParams {
	patches := make([]PatchParams, 0, len(g.Duplicates))
	for _, dupID := range g.Duplicates {
		patches = append(patches, PatchParams{
			Path:        fmt.Sprintf("memory/%s", strings.ReplaceAll(dupID, ".", "/")),
			DocID:       dupID,
			Kind:        KindFact,
			Description: fmt.Sprintf("remove duplicate of %s", g.CanonicalID),
		})
	}
	return patches
}

func (d *Deduplicator) reviewPatch(g DuplicateGroup) PatchParams {
	plural := ""
	if len(g.Duplicates) != 1 {
		plural = "s"
	}

	var dupLines strings.Builder
	for _, dup := range g.Duplicates {
		dupLines.WriteString("- " + dup + "\n")
	}

	return PatchParams{
		Path:        fmt.Sprintf(".thunderus/memory/review/%s", g.CanonicalID),
		DocID:       fmt.Sprintf("review.%s", g.CanonicalID),
		Kind:        KindFact,
		Description: fmt.Sprintf("review required: %d potential duplicate%s of %s (similarity: %.2f)", len(g.Duplicates), plural, g.CanonicalID, g.Similarity),
		Diff: fmt.Sprintf(
			"# Duplicate Review: %s\n\n## Canonical: %s\n\n## Duplicates:\n%s\n## Similarity Score: %.2f\n\n## Action Required\n\nPlease review and decide whether to:\n- Merge into canonical\n- Keep as separate documents\n- Remove duplicates\n",
			g.CanonicalID, g.CanonicalID, dupLines.String(), g.Similarity,
		),
	}
}
