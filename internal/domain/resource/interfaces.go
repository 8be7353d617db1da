package resource

import "context"

// ResourceRepository provides persistence for saved resources.
type ResourceRepository interface {
	Insert(ctx context.Context, r *Resource) error
	Get(ctx context.Context, id string) (*Resource, error)
	GetBySource(ctx context.Context, source string) (*Resource, error)
	Update(ctx context.Context, r *Resource) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, contentType ContentType, limit int) ([]*Resource, error)
	// FindByTags returns resources sharing at least one tag with the given
	// set, ordered by overlap count descending. limit <= 0 means no limit.
	FindByTags(ctx context.Context, tags []string, limit int) ([]*Resource, error)
}

// TagRepository provides persistence for the tag vocabulary.
type TagRepository interface {
	Get(ctx context.Context, name string) (*Tag, error)
	List(ctx context.Context, limit int) ([]*Tag, error)
	Names(ctx context.Context) ([]string, error)
	// IncrementUsage creates the tag at count 1 when absent.
	IncrementUsage(ctx context.Context, name string) error
	// DecrementUsage floors at 0 and ignores unknown tags.
	DecrementUsage(ctx context.Context, name string) error
	// AddUsage adds delta to a tag's count, creating the tag when absent.
	AddUsage(ctx context.Context, name string, delta int) error
	Delete(ctx context.Context, name string) error
}

// Indexer enqueues durable semantic-indexing work for saved resources.
type Indexer interface {
	EnqueueResourceIndex(ctx context.Context, resourceID string, contentType ContentType, source, title, summary string) (string, error)
	// DrainAsync kicks a best-effort background drain of the index queue.
	DrainAsync(limit int)
}

// Tagger extracts tags from content; unavailability yields an empty slice.
type Tagger interface {
	ExtractTags(ctx context.Context, content, contentType string, existing []string) []string
}
