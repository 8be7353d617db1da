package vector

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// keywordEmbedder produces deterministic vectors: one dimension per
// tracked keyword, 1.0 when present.
type keywordEmbedder struct {
	keywords []string
}

func (e *keywordEmbedder) embed(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.keywords))
	for i, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec
}

func (e *keywordEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db, &keywordEmbedder{keywords: []string{"golang", "cooking", "sqlite"}})
	require.NoError(t, err)
	return store
}

func TestStoreUpsertAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "r1", "Go Patterns", "golang sqlite tips", "https://a", nil))
	require.NoError(t, store.Upsert(ctx, "r2", "Pasta", "cooking basics", "https://b", nil))

	hits, err := store.Query(ctx, "golang sqlite", 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "r1", hits[0].ResourceID)
	assert.Equal(t, "Go Patterns", hits[0].Title)
	assert.Greater(t, hits[0].Score, 0.0)

	// Scores are non-increasing
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestStoreUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "r1", "First", "cooking", "s", nil))
	require.NoError(t, store.Upsert(ctx, "r1", "Second", "golang", "s", nil))

	hits, err := store.Query(ctx, "golang", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Second", hits[0].Title)

	hits, err = store.Query(ctx, "cooking", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Zero(t, hits[0].Score, "old embedding must be replaced, not kept alongside")
}

func TestStoreTopK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "r1", "A", "golang", "s1", nil))
	require.NoError(t, store.Upsert(ctx, "r2", "B", "golang sqlite", "s2", nil))
	require.NoError(t, store.Upsert(ctx, "r3", "C", "golang cooking", "s3", nil))

	hits, err := store.Query(ctx, "golang", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "r1", "A", "golang", "s", nil))
	require.NoError(t, store.Delete(ctx, "r1"))

	hits, err := store.Query(ctx, "golang", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStoreSkipsEmptyPayload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "r1", "", "", "", nil))
	hits, err := store.Query(ctx, "golang", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorBlobRoundTrip(t *testing.T) {
	vec := []float32{0.1, -2.5, 3}
	got := blobToFloat32(float32ToBlob(vec), len(vec))
	assert.Equal(t, vec, got)
}
