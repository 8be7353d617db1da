// Package vector provides local semantic similarity storage: embeddings
// persisted as SQLite BLOBs with brute-force cosine search. At personal-data
// scale this is exact and sub-millisecond.
package vector

import "context"

// Hit is a semantic retrieval result.
type Hit struct {
	ResourceID string
	Score      float64
	Title      string
	Snippet    string
	Source     string
}

// Store stores and searches resource embeddings. A nil Store means the
// similarity capability is absent; callers yield empty results in that case.
type Store interface {
	// Upsert embeds text and stores it under the resource id, replacing any
	// previous embedding for that id (last write wins).
	Upsert(ctx context.Context, resourceID, title, text, source string, metadata map[string]string) error

	// Query returns the top-k hits by cosine similarity to the query text.
	Query(ctx context.Context, text string, topK int) ([]Hit, error)

	// Delete removes a resource's embedding.
	Delete(ctx context.Context, resourceID string) error
}
