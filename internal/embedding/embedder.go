// Package embedding provides vector embedding clients for semantic indexing.
package embedding

import "context"

// Embedder generates vector embeddings for text content.
type Embedder interface {
	// EmbedDocument embeds a text for storage/indexing.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery embeds a search query (may use a different prefix).
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}
