package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"flowd/internal/domain/resource"
	"flowd/internal/repository"
)

// TagRepository implements resource.TagRepository for SQLite
type TagRepository struct {
	db *DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *DB) *TagRepository {
	return &TagRepository{db: db}
}

// Get retrieves a tag by name
func (r *TagRepository) Get(ctx context.Context, name string) (*resource.Tag, error) {
	query := `SELECT name, aliases, usage_count, created_at FROM tags WHERE name = ?`

	var tag resource.Tag
	var aliases string
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&tag.Name,
		&aliases,
		&tag.UsageCount,
		&tag.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	if err := json.Unmarshal([]byte(aliases), &tag.Aliases); err != nil {
		return nil, fmt.Errorf("failed to decode aliases: %w", err)
	}

	return &tag, nil
}

// List retrieves tags ordered by usage count, most used first
func (r *TagRepository) List(ctx context.Context, limit int) ([]*resource.Tag, error) {
	query := `SELECT name, aliases, usage_count, created_at FROM tags ORDER BY usage_count DESC, name ASC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []*resource.Tag
	for rows.Next() {
		var tag resource.Tag
		var aliases string
		if err := rows.Scan(&tag.Name, &aliases, &tag.UsageCount, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		if err := json.Unmarshal([]byte(aliases), &tag.Aliases); err != nil {
			return nil, fmt.Errorf("failed to decode aliases: %w", err)
		}
		tags = append(tags, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return tags, nil
}

// Names retrieves all tag names ordered by usage count, most used first
func (r *TagRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM tags ORDER BY usage_count DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tag names: %w", err)
	}

	return names, nil
}

// IncrementUsage bumps a tag's usage count, creating the tag at 1 if absent
func (r *TagRepository) IncrementUsage(ctx context.Context, name string) error {
	return r.upsertUsage(ctx, name, 1)
}

// AddUsage adds delta to a tag's usage count, creating the tag if absent
func (r *TagRepository) AddUsage(ctx context.Context, name string, delta int) error {
	return r.upsertUsage(ctx, name, delta)
}

func (r *TagRepository) upsertUsage(ctx context.Context, name string, delta int) error {
	query := `
		INSERT INTO tags (name, aliases, usage_count, created_at)
		VALUES (?, '[]', ?, ?)
		ON CONFLICT(name) DO UPDATE SET usage_count = usage_count + excluded.usage_count
	`
	_, err := r.db.ExecContext(ctx, query, name, delta, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert tag usage: %w", err)
	}
	return nil
}

// DecrementUsage lowers a tag's usage count, flooring at zero. Unknown
// tags are a no-op.
func (r *TagRepository) DecrementUsage(ctx context.Context, name string) error {
	query := `UPDATE tags SET usage_count = MAX(0, usage_count - 1) WHERE name = ?`
	_, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to decrement tag usage: %w", err)
	}
	return nil
}

// Delete removes a tag from the vocabulary
func (r *TagRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
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
