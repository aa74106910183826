package agent

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stormlightlabs/thunderus-go/internal/memory"
)

func openTestStore(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.Open(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("memory.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRetrieverFTSOnly(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "notes", "auth", "the login flow uses OAuth tokens", memory.Meta{
		ID: "auth", Kind: memory.KindFact, Title: "Auth notes",
	}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	r := &StoreRetriever{Store: store}
	chunks, err := r.Retrieve(ctx, "OAuth")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(chunks) == 0 {
		t.Fatalf("Retrieve() returned no chunks")
	}
}

func TestStoreRetrieverFallsBackWhenEmbedFails(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "notes", "auth", "the login flow uses OAuth tokens", memory.Meta{
		ID: "auth", Kind: memory.KindFact, Title: "Auth notes",
	}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	r := &StoreRetriever{
		Store: store,
		Embed: func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("provider does not support embeddings")
		},
	}
	chunks, err := r.Retrieve(ctx, "OAuth")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(chunks) == 0 {
		t.Fatalf("Retrieve() returned no chunks despite FTS fallback")
	}
}

func TestStoreRetrieverNoMatches(t *testing.T) {
	store := openTestStore(t)
	r := &StoreRetriever{Store: store}
	chunks, err := r.Retrieve(context.Background(), "nothing indexed yet")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Retrieve() = %d chunks, want 0", len(chunks))
	}
}
