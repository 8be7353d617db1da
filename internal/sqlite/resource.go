package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"flowd/internal/domain/resource"
	"flowd/internal/repository"
)

// ResourceRepository implements resource.ResourceRepository for SQLite
type ResourceRepository struct {
	db *DB
}

// NewResourceRepository creates a new ResourceRepository
func NewResourceRepository(db *DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Insert creates a new resource
func (r *ResourceRepository) Insert(ctx context.Context, res *resource.Resource) error {
	tags, err := encodeTags(res.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO resources (id, content_type, source, title, summary, tags, raw_content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		res.ID,
		res.ContentType,
		res.Source,
		res.Title,
		res.Summary,
		tags,
		res.RawContent,
		res.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert resource: %w", err)
	}

	return nil
}

// Get retrieves a resource by ID
func (r *ResourceRepository) Get(ctx context.Context, id string) (*resource.Resource, error) {
	return r.getByColumn(ctx, "id", id)
}

// GetBySource retrieves a resource by its natural source key
func (r *ResourceRepository) GetBySource(ctx context.Context, source string) (*resource.Resource, error) {
	return r.getByColumn(ctx, "source", source)
}

func (r *ResourceRepository) getByColumn(ctx context.Context, column, value string) (*resource.Resource, error) {
	query := fmt.Sprintf(`
		SELECT id, content_type, source, title, summary, tags, raw_content, created_at
		FROM resources
		WHERE %s = ?
	`, column)

	res, err := scanResource(r.db.QueryRowContext(ctx, query, value))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	return res, nil
}

// Update updates a resource's mutable fields
func (r *ResourceRepository) Update(ctx context.Context, res *resource.Resource) error {
	tags, err := encodeTags(res.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE resources
		SET content_type = ?, source = ?, title = ?, summary = ?, tags = ?, raw_content = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		res.ContentType,
		res.Source,
		res.Title,
		res.Summary,
		tags,
		res.RawContent,
		res.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
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

// Delete removes a resource
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
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

// List retrieves resources, newest first, optionally filtered by content type
func (r *ResourceRepository) List(ctx context.Context, contentType resource.ContentType, limit int) ([]*resource.Resource, error) {
	var conditions []string
	var args []interface{}

	if contentType != "" {
		conditions = append(conditions, "content_type = ?")
		args = append(args, contentType)
	}

	query := `
		SELECT id, content_type, source, title, summary, tags, raw_content, created_at
		FROM resources
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.queryResources(ctx, query, args...)
}

// FindByTags retrieves resources sharing at least one tag with the query
// set, ordered by descending overlap count with created_at as tie-break.
// limit <= 0 means no limit.
func (r *ResourceRepository) FindByTags(ctx context.Context, tags []string, limit int) ([]*resource.Resource, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(tags))
	args := make([]interface{}, 0, 2*len(tags)+1)
	for i, t := range tags {
		placeholders[i] = "?"
		args = append(args, t)
	}
	// The IN list appears twice: once for the overlap count, once for the
	// existence filter.
	for _, t := range tags {
		args = append(args, t)
	}

	in := strings.Join(placeholders, ", ")
	query := fmt.Sprintf(`
		SELECT r.id, r.content_type, r.source, r.title, r.summary, r.tags, r.raw_content, r.created_at,
		       (SELECT COUNT(*) FROM json_each(r.tags) je WHERE je.value IN (%s)) AS overlap
		FROM resources r
		WHERE EXISTS (SELECT 1 FROM json_each(r.tags) je WHERE je.value IN (%s))
		ORDER BY overlap DESC, r.created_at DESC
	`, in, in)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find resources by tags: %w", err)
	}
	defer rows.Close()

	var resources []*resource.Resource
	for rows.Next() {
		var res resource.Resource
		var tagsJSON string
		var overlap int
		err := rows.Scan(
			&res.ID,
			&res.ContentType,
			&res.Source,
			&res.Title,
			&res.Summary,
			&tagsJSON,
			&res.RawContent,
			&res.CreatedAt,
			&overlap,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &res.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
		resources = append(resources, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}

	return resources, nil
}

func (r *ResourceRepository) queryResources(ctx context.Context, query string, args ...interface{}) ([]*resource.Resource, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var resources []*resource.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}

	return resources, nil
}

func scanResource(row rowScanner) (*resource.Resource, error) {
	var res resource.Resource
	var tags string

	err := row.Scan(
		&res.ID,
		&res.ContentType,
		&res.Source,
		&res.Title,
		&res.Summary,
		&tags,
		&res.RawContent,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &res.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	return &res, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}
