package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"flowd/internal/domain/indexqueue"
	"flowd/internal/repository"
)

// JobRepository implements indexqueue.JobRepository for SQLite
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// Insert creates a new index job
func (r *JobRepository) Insert(ctx context.Context, job *indexqueue.Job) error {
	query := `
		INSERT INTO index_jobs (
			id, resource_id, content_type, source, title, summary,
			status, error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.ResourceID,
		job.ContentType,
		job.Source,
		job.Title,
		job.Summary,
		job.Status,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert index job: %w", err)
	}

	return nil
}

// Get retrieves a job by ID
func (r *JobRepository) Get(ctx context.Context, id string) (*indexqueue.Job, error) {
	query := `
		SELECT id, resource_id, content_type, source, title, summary,
		       status, error, created_at, updated_at
		FROM index_jobs
		WHERE id = ?
	`

	var job indexqueue.Job
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.ResourceID,
		&job.ContentType,
		&job.Source,
		&job.Title,
		&job.Summary,
		&job.Status,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index job: %w", err)
	}

	return &job, nil
}

// ListByStatus retrieves jobs with the given status in FIFO order
func (r *JobRepository) ListByStatus(ctx context.Context, status indexqueue.JobStatus, limit int) ([]*indexqueue.Job, error) {
	query := `
		SELECT id, resource_id, content_type, source, title, summary,
		       status, error, created_at, updated_at
		FROM index_jobs
		WHERE status = ?
		ORDER BY created_at ASC
	`
	args := []interface{}{status}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list index jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*indexqueue.Job
	for rows.Next() {
		var job indexqueue.Job
		err := rows.Scan(
			&job.ID,
			&job.ResourceID,
			&job.ContentType,
			&job.Source,
			&job.Title,
			&job.Summary,
			&job.Status,
			&job.Error,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan index job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate index jobs: %w", err)
	}

	return jobs, nil
}

// UpdateStatus transitions a job and records its error message, if any
func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status indexqueue.JobStatus, errMsg string) error {
	query := `UPDATE index_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update index job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
