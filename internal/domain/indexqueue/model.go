package indexqueue

import "time"

// JobStatus is the lifecycle state of an index job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusDone       JobStatus = "done"
	StatusError      JobStatus = "error"
)

// Job is a durable request to (re)index one resource.
type Job struct {
	ID          string
	ResourceID  string
	ContentType string
	Source      string
	Title       string
	Summary     string
	Status      JobStatus
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
