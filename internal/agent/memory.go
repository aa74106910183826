package agent

import (
	"context"

	"github.com/stormlightlabs/thunderus-go/internal/memory"
)

// StoreRetriever adapts a *memory.Store into the Agent's Retriever
// interface: it runs a hybrid search, encoding the query via the same
// Provider the turn uses when the provider supports embeddings, and
// falling back to FTS-only search otherwise (degrading instead of
// failing the turn when the active provider has no embedding model).
type StoreRetriever struct {
	Store   *memory.Store
	Embed   func(ctx context.Context, text string) ([]float32, error)
	Filters memory.Filters
}

func (r *StoreRetriever) Retrieve(ctx context.Context, query string) ([]RetrievedChunk, error) {
	var hits []memory.Hit
	var err error

	if r.Embed != nil {
		var vec []float32
		if vec, err = r.Embed(ctx, query); err == nil {
			hits, err = r.Store.HybridSearch(ctx, query, vec, r.Filters, 0.3)
		}
	}
	if r.Embed == nil || err != nil {
		hits, err = r.Store.Search(ctx, query, r.Filters)
	}
	if err != nil {
		return nil, err
	}

	chunks := make([]RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		chunks = append(chunks, RetrievedChunk{
			Title:   h.Title,
			Snippet: h.Snippet,
			Tokens:  memory.EstimateTokens(h.Snippet),
		})
	}
	return chunks, nil
}
