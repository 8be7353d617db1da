package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"flowd/internal/embedding"
)

const snippetLength = 300

type docMeta struct {
	title   string
	snippet string
	source  string
}

// SQLiteStore implements Store over a SQLite table, keeping normalized
// vectors in memory so dot product equals cosine similarity.
type SQLiteStore struct {
	db       *sql.DB
	embedder embedding.Embedder

	mu      sync.RWMutex
	vectors map[string][]float32
	meta    map[string]docMeta
}

// NewSQLiteStore creates a vector store using the given database and
// embedder. It creates the vectors table if needed and loads existing
// vectors into memory.
func NewSQLiteStore(db *sql.DB, embedder embedding.Embedder) (*SQLiteStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	s := &SQLiteStore{
		db:       db,
		embedder: embedder,
		vectors:  make(map[string][]float32),
		meta:     make(map[string]docMeta),
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("vector store migrate: %w", err)
	}
	if err := s.loadAll(); err != nil {
		return nil, fmt.Errorf("vector store load: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS vectors (
			resource_id TEXT PRIMARY KEY,
			embedding   BLOB NOT NULL,
			dimensions  INTEGER NOT NULL,
			title       TEXT NOT NULL DEFAULT '',
			snippet     TEXT NOT NULL DEFAULT '',
			source      TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

func (s *SQLiteStore) loadAll() error {
	rows, err := s.db.Query("SELECT resource_id, embedding, dimensions, title, snippet, source FROM vectors")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, title, snippet, source string
		var blob []byte
		var dims int
		if err := rows.Scan(&id, &blob, &dims, &title, &snippet, &source); err != nil {
			return err
		}
		s.vectors[id] = blobToFloat32(blob, dims)
		s.meta[id] = docMeta{title: title, snippet: snippet, source: source}
	}
	return rows.Err()
}

// Upsert embeds the text and stores the vector. Empty text falls back to
// the title, then the source; if nothing remains the call is a no-op.
func (s *SQLiteStore) Upsert(ctx context.Context, resourceID, title, text, source string, metadata map[string]string) error {
	payload := strings.TrimSpace(text)
	if payload == "" {
		payload = title
	}
	if payload == "" {
		payload = source
	}
	if payload == "" {
		return nil
	}

	vec, err := s.embedder.EmbedDocument(ctx, payload)
	if err != nil {
		return fmt.Errorf("embedding document: %w", err)
	}
	normalized := normalize(vec)

	if title == "" {
		title = source
	}
	snippet := payload
	if len(snippet) > snippetLength {
		snippet = snippet[:snippetLength]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vectors (resource_id, embedding, dimensions, title, snippet, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(resource_id) DO UPDATE SET
			embedding=excluded.embedding, dimensions=excluded.dimensions,
			title=excluded.title, snippet=excluded.snippet, source=excluded.source
	`, resourceID, float32ToBlob(normalized), len(normalized), title, snippet, source)
	if err != nil {
		return fmt.Errorf("storing vector: %w", err)
	}

	s.vectors[resourceID] = normalized
	s.meta[resourceID] = docMeta{title: title, snippet: snippet, source: source}
	return nil
}

// Query returns the top-k hits by cosine similarity.
func (s *SQLiteStore) Query(ctx context.Context, text string, topK int) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = 3
	}

	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	query := normalize(vec)

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0, len(s.vectors))
	for id, stored := range s.vectors {
		if len(stored) != len(query) {
			continue
		}
		meta := s.meta[id]
		hits = append(hits, Hit{
			ResourceID: id,
			Score:      dotProduct(query, stored),
			Title:      meta.title,
			Snippet:    meta.snippet,
			Source:     meta.source,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ResourceID < hits[j].ResourceID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Delete removes a resource's embedding. Unknown ids are a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM vectors WHERE resource_id = ?", resourceID); err != nil {
		return fmt.Errorf("deleting vector: %w", err)
	}
	delete(s.vectors, resourceID)
	delete(s.meta, resourceID)
	return nil
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func float32ToBlob(vec []float32) []byte {
	blob := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func blobToFloat32(blob []byte, dims int) []float32 {
	vec := make([]float32, dims)
	for i := 0; i < dims && i*4+4 <= len(blob); i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
