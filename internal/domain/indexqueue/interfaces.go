package indexqueue

import (
	"context"

	"flowd/internal/domain/resource"
)

// JobRepository persists index jobs.
type JobRepository interface {
	Insert(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	// ListByStatus returns jobs in FIFO order by creation time.
	ListByStatus(ctx context.Context, status JobStatus, limit int) ([]*Job, error)
	UpdateStatus(ctx context.Context, id string, status JobStatus, errMsg string) error
}

// ResourceGetter resolves the current resource content at processing time.
type ResourceGetter interface {
	Get(ctx context.Context, id string) (*resource.Resource, error)
}
