package task

import "context"

// ItemRepository provides persistence for items.
type ItemRepository interface {
	Insert(ctx context.Context, item *Item) error
	Get(ctx context.Context, id string) (*Item, error)
	Update(ctx context.Context, item *Item) error
	List(ctx context.Context, opts ListOptions) ([]*Item, error)
}

// TagUsage tracks the tag vocabulary used for auto-tagging prompts and counts.
type TagUsage interface {
	Names(ctx context.Context) ([]string, error)
	IncrementUsage(ctx context.Context, name string) error
}

// Advisor supplies best-effort AI assistance for capture and estimation.
// Implementations never fail into the engine: an unavailable backend yields
// zero values (empty slice, 0 minutes).
type Advisor interface {
	ExtractTags(ctx context.Context, content, contentType string, existing []string) []string
	EstimateDuration(ctx context.Context, title string) int
}
