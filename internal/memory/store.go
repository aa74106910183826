// Package memory implements the Memory Store: markdown documents indexed
// for hybrid lexical (SQLite FTS5) and vector (cosine similarity) search,
// plus the gardener's hygiene checks and fact deduplication.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// Meta is the metadata envelope stored alongside a document's content.
type Meta struct {
	ID           string     `json:"id"`
	Kind         Kind       `json:"kind"`
	Title        string     `json:"title"`
	Tags         []string   `json:"tags"`
	Headings     []string   `json:"headings"`
	Path         string     `json:"path"`
	Updated      time.Time  `json:"updated"`
	EventIDs     []string   `json:"event_ids"`
	PatchIDs     []string   `json:"patch_ids"`
	TokenCount   int        `json:"token_count"`
}

// Hit is a single search result.
type Hit struct {
	ID       string
	Kind     Kind
	Title    string
	Path     string
	Anchor   string
	Snippet  string
	Score    float64
	EventIDs []string
}

// Filters scopes a search query.
type Filters struct {
	Kinds      []Kind
	Tags       []string
	PathPrefix string
	Limit      int
}

func (f Filters) limitOrDefault() int {
	if f.Limit <= 0 {
		return 10
	}
	return f.Limit
}

// Stats summarizes the store's contents.
type Stats struct {
	DocCount    int
	DocsByKind  map[string]int
	IndexSize   int64
	LastIndexed time.Time
}

// Store is a handle to the memory index backed by SQLite FTS5 plus a
// cosine-similarity vector table.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and runs its migrations
// idempotently.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Io("failed to open memory store", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memory_docs (
			id TEXT NOT NULL,
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			content TEXT NOT NULL,
			meta_json TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (namespace, key)
		)`,
		`CREATE TABLE IF NOT EXISTS memory_embeddings (
			id TEXT PRIMARY KEY,
			embedding BLOB NOT NULL
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS memory_fts USING fts5(
			id UNINDEXED, title, headings, tags, body, path UNINDEXED, kind UNINDEXED
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errs.Io(fmt.Sprintf("migration failed: %s", stmt), err)
		}
	}
	return s.installTriggers()
}

func (s *Store) installTriggers() error {
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS memory_docs_ai AFTER INSERT ON memory_docs BEGIN
			INSERT INTO memory_fts(id, title, headings, tags, body, path, kind)
			VALUES (
				new.id,
				json_extract(new.meta_json, '$.title'),
				json_extract(new.meta_json, '$.headings'),
				json_extract(new.meta_json, '$.tags'),
				new.content,
				json_extract(new.meta_json, '$.path'),
				json_extract(new.meta_json, '$.kind')
			);
		END`,
		`CREATE TRIGGER IF NOT EXISTS memory_docs_ad AFTER DELETE ON memory_docs BEGIN
			DELETE FROM memory_fts WHERE id = old.id;
		END`,
		`CREATE TRIGGER IF NOT EXISTS memory_docs_au AFTER UPDATE ON memory_docs BEGIN
			DELETE FROM memory_fts WHERE id = old.id;
			INSERT INTO memory_fts(id, title, headings, tags, body, path, kind)
			VALUES (
				new.id,
				json_extract(new.meta_json, '$.title'),
				json_extract(new.meta_json, '$.headings'),
				json_extract(new.meta_json, '$.tags'),
				new.content,
				json_extract(new.meta_json, '$.path'),
				json_extract(new.meta_json, '$.kind')
			);
		END`,
	}
	for _, t := range triggers {
		if _, err := s.db.Exec(t); err != nil {
			return errs.Io("failed to install fts trigger", err)
		}
	}
	return nil
}

// Put upserts a document by (namespace, key), refreshing the FTS row via trigger.
func (s *Store) Put(ctx context.Context, namespace, key, content string, meta Meta) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return errs.Io("failed to marshal meta", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memory_docs (id, namespace, key, content, meta_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			id = excluded.id,
			content = excluded.content,
			meta_json = excluded.meta_json,
			updated_at = excluded.updated_at
	`, meta.ID, namespace, key, content, string(metaJSON), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errs.Io("failed to put document", err)
	}
	return nil
}

// Get retrieves a document's content and meta by (namespace, key).
func (s *Store) Get(ctx context.Context, namespace, key string) (string, Meta, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT content, meta_json FROM memory_docs WHERE namespace = ? AND key = ?`, namespace, key)

	var content, metaJSON string
	if err := row.Scan(&content, &metaJSON); err != nil {
		if err == sql.ErrNoRows {
			return "", Meta{}, false, nil
		}
		return "", Meta{}, false, errs.Io("failed to get document", err)
	}

	var meta Meta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return "", Meta{}, false, errs.Parse("failed to unmarshal meta", err)
	}
	return content, meta, true, nil
}

// GetByID fetches a document's content by document id alone (used by the
// deduplicator, which only knows ids).
func (s *Store) GetByID(ctx context.Context, id string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT content FROM memory_docs WHERE id = ? LIMIT 1`, id)
	var content string
	if err := row.Scan(&content); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errs.Io("failed to get document by id", err)
	}
	return content, true, nil
}

// Delete removes a document by (namespace, key).
func (s *Store) Delete(ctx context.Context, namespace, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memory_docs WHERE namespace = ? AND key = ?`, namespace, key)
	if err != nil {
		return false, errs.Io("failed to delete document", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Search runs an FTS5 MATCH query, ordered by BM25 ascending (lower is
// better), ties broken by id.
func (s *Store) Search(ctx context.Context, query string, filters Filters) ([]Hit, error) {
	var whereExtra []string
	args := []any{query}

	if len(filters.Kinds) > 0 {
		placeholders := make([]string, len(filters.Kinds))
		for i, k := range filters.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		whereExtra = append(whereExtra, fmt.Sprintf("memory_fts.kind IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filters.PathPrefix != "" {
		whereExtra = append(whereExtra, "memory_fts.path LIKE ?")
		args = append(args, filters.PathPrefix+"%")
	}

	where := "WHERE memory_fts MATCH ?"
	if len(whereExtra) > 0 {
		where += " AND " + strings.Join(whereExtra, " AND ")
	}
	args = append(args, filters.limitOrDefault())

	sqlQuery := fmt.Sprintf(`
		SELECT
			memory_fts.id,
			memory_fts.title,
			memory_fts.kind,
			memory_fts.path,
			snippet(memory_fts, 4, '<b>', '</b>', '...', 32) as snippet,
			bm25(memory_fts) as score,
			json_extract(memory_docs.meta_json, '$.event_ids') as event_ids
		FROM memory_fts
		INNER JOIN memory_docs ON memory_fts.id = memory_docs.id
		%s
		ORDER BY score, memory_fts.id
		LIMIT ?
	`, where)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, errs.Io("search query failed", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var kind, eventIDsRaw string
		if err := rows.Scan(&h.ID, &h.Title, &kind, &h.Path, &h.Snippet, &h.Score, &eventIDsRaw); err != nil {
			return nil, errs.Io("failed to scan search row", err)
		}
		h.Kind = Kind(kind)
		if eventIDsRaw != "" {
			_ = json.Unmarshal([]byte(eventIDsRaw), &h.EventIDs)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// VectorSearch finds candidates whose cosine similarity to queryEmbedding
// exceeds 0.5, returning up to filters.Limit hits scored as -similarity
// (so smaller is better, matching lexical score semantics).
func (s *Store) VectorSearch(ctx context.Context, queryEmbedding []float32, filters Filters) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding FROM memory_embeddings`)
	if err != nil {
		return nil, errs.Io("failed to query embeddings", err)
	}

	type scored struct {
		id         string
		similarity float64
	}
	var candidates []scored
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			rows.Close()
			return nil, errs.Io("failed to scan embedding", err)
		}
		sim := cosineSimilarity(queryEmbedding, decodeEmbedding(blob))
		if sim > 0.5 {
			candidates = append(candidates, scored{id, float64(sim)})
		}
	}
	rows.Close()

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].similarity > candidates[j].similarity })
	limit := filters.limitOrDefault()
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var hits []Hit
	for _, c := range candidates {
		content, meta, ok, err := s.getByIDWithMeta(ctx, c.id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		snippet := content
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		hits = append(hits, Hit{
			ID:       c.id,
			Kind:     meta.Kind,
			Title:    meta.Title,
			Path:     meta.Path,
			Snippet:  snippet,
			Score:    -c.similarity,
			EventIDs: meta.EventIDs,
		})
	}
	return hits, nil
}

func (s *Store) getByIDWithMeta(ctx context.Context, id string) (string, Meta, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT content, meta_json FROM memory_docs WHERE id = ? LIMIT 1`, id)
	var content, metaJSON string
	if err := row.Scan(&content, &metaJSON); err != nil {
		if err == sql.ErrNoRows {
			return "", Meta{}, false, nil
		}
		return "", Meta{}, false, errs.Io("failed to get document", err)
	}
	var meta Meta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return "", Meta{}, false, errs.Parse("failed to unmarshal meta", err)
	}
	return content, meta, true, nil
}

// HybridSearch always runs Search; if its best score exceeds ftsThreshold
// or it returns fewer than 3 hits, VectorSearch also runs and results are
// merged by id (duplicates average their scores), sorted ascending.
func (s *Store) HybridSearch(ctx context.Context, query string, queryEmbedding []float32, filters Filters, ftsThreshold float64) ([]Hit, error) {
	ftsHits, err := s.Search(ctx, query, filters)
	if err != nil {
		return nil, err
	}

	bestScore := 0.0
	if len(ftsHits) > 0 {
		bestScore = ftsHits[0].Score
	}

	if bestScore <= ftsThreshold && len(ftsHits) >= 3 {
		return ftsHits, nil
	}

	vectorHits, err := s.VectorSearch(ctx, queryEmbedding, filters)
	if err != nil {
		return nil, err
	}
	if len(vectorHits) == 0 {
		return ftsHits, nil
	}

	return mergeHits(ftsHits, vectorHits), nil
}

func mergeHits(ftsHits, vectorHits []Hit) []Hit {
	merged := make(map[string]Hit, len(ftsHits)+len(vectorHits))
	order := make([]string, 0, len(ftsHits)+len(vectorHits))

	for _, h := range ftsHits {
		merged[h.ID] = h
		order = append(order, h.ID)
	}
	for _, h := range vectorHits {
		if existing, ok := merged[h.ID]; ok {
			existing.Score = (existing.Score + h.Score) / 2.0
			merged[h.ID] = existing
		} else {
			merged[h.ID] = h
			order = append(order, h.ID)
		}
	}

	results := make([]Hit, 0, len(merged))
	seen := make(map[string]bool, len(merged))
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true
		results = append(results, merged[id])
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	return results
}

// RebuildIndex drops and recreates the FTS virtual table and triggers,
// then reinserts every row from memory_docs.
func (s *Store) RebuildIndex(ctx context.Context) error {
	drops := []string{
		`DROP TABLE IF EXISTS memory_fts`,
		`DROP TRIGGER IF EXISTS memory_docs_ai`,
		`DROP TRIGGER IF EXISTS memory_docs_ad`,
		`DROP TRIGGER IF EXISTS memory_docs_au`,
	}
	for _, d := range drops {
		if _, err := s.db.ExecContext(ctx, d); err != nil {
			return errs.Io("failed to drop fts objects", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, `CREATE VIRTUAL TABLE memory_fts USING fts5(
		id UNINDEXED, title, headings, tags, body, path UNINDEXED, kind UNINDEXED
	)`); err != nil {
		return errs.Io("failed to recreate fts table", err)
	}
	if err := s.installTriggers(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_fts(id, title, headings, tags, body, path, kind)
		SELECT
			id,
			json_extract(meta_json, '$.title'),
			json_extract(meta_json, '$.headings'),
			json_extract(meta_json, '$.tags'),
			content,
			json_extract(meta_json, '$.path'),
			json_extract(meta_json, '$.kind')
		FROM memory_docs
	`)
	if err != nil {
		return errs.Io("failed to reindex documents", err)
	}
	return nil
}

// Stats reports document counts and a per-kind breakdown.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var docCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_docs`).Scan(&docCount); err != nil {
		return Stats{}, errs.Io("failed to count documents", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT json_extract(meta_json, '$.kind'), COUNT(*) FROM memory_docs GROUP BY json_extract(meta_json, '$.kind')
	`)
	if err != nil {
		return Stats{}, errs.Io("failed to group documents by kind", err)
	}
	defer rows.Close()

	docsByKind := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return Stats{}, errs.Io("failed to scan kind group", err)
		}
		docsByKind[kind] = count
	}

	return Stats{DocCount: docCount, DocsByKind: docsByKind, LastIndexed: time.Now().UTC()}, nil
}

// PutEmbedding stores or replaces the embedding vector for a document id.
func (s *Store) PutEmbedding(ctx context.Context, id string, embedding []float32) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO memory_embeddings (id, embedding) VALUES (?, ?)`, id, encodeEmbedding(embedding))
	if err != nil {
		return errs.Io("failed to put embedding", err)
	}
	return nil
}
