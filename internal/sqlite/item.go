package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"flowd/internal/domain/task"
	"flowd/internal/repository"
)

// ItemRepository implements task.ItemRepository for SQLite
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Insert creates a new item
func (r *ItemRepository) Insert(ctx context.Context, item *task.Item) error {
	tags, meta, err := encodeItemPayloads(item)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO items (
			id, type, title, status, context_tags, parent_id,
			created_at, due_date, meta_payload, estimated_duration, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		item.ID,
		item.Type,
		item.Title,
		item.Status,
		tags,
		item.ParentID,
		item.CreatedAt,
		item.DueDate,
		meta,
		item.EstimatedDuration,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// Get retrieves an item by ID
func (r *ItemRepository) Get(ctx context.Context, id string) (*task.Item, error) {
	query := `
		SELECT id, type, title, status, context_tags, parent_id,
		       created_at, due_date, meta_payload, estimated_duration, updated_at
		FROM items
		WHERE id = ?
	`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// Update updates all mutable fields of an item
func (r *ItemRepository) Update(ctx context.Context, item *task.Item) error {
	tags, meta, err := encodeItemPayloads(item)
	if err != nil {
		return err
	}

	query := `
		UPDATE items
		SET type = ?, title = ?, status = ?, context_tags = ?, parent_id = ?,
		    due_date = ?, meta_payload = ?, estimated_duration = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		item.Type,
		item.Title,
		item.Status,
		tags,
		item.ParentID,
		item.DueDate,
		meta,
		item.EstimatedDuration,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
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

// List retrieves items matching the given options, ordered by created_at
func (r *ItemRepository) List(ctx context.Context, opts task.ListOptions) ([]*task.Item, error) {
	var conditions []string
	var args []interface{}

	if len(opts.Types) > 0 {
		placeholders := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			placeholders[i] = "?"
			args = append(args, t)
		}
		conditions = append(conditions, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ", ")))
	}

	if len(opts.Statuses) > 0 {
		placeholders := make([]string, len(opts.Statuses))
		for i, s := range opts.Statuses {
			placeholders[i] = "?"
			args = append(args, s)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	if len(opts.NotStatuses) > 0 {
		placeholders := make([]string, len(opts.NotStatuses))
		for i, s := range opts.NotStatuses {
			placeholders[i] = "?"
			args = append(args, s)
		}
		conditions = append(conditions, fmt.Sprintf("status NOT IN (%s)", strings.Join(placeholders, ", ")))
	}

	if opts.ParentID != nil {
		if *opts.ParentID == "" {
			conditions = append(conditions, "parent_id IS NULL")
		} else {
			conditions = append(conditions, "parent_id = ?")
			args = append(args, *opts.ParentID)
		}
	}

	if opts.CreatedBefore != nil {
		conditions = append(conditions, "created_at < ?")
		args = append(args, *opts.CreatedBefore)
	}

	if opts.CompletedAfter != nil {
		conditions = append(conditions, "updated_at >= ?")
		args = append(args, *opts.CompletedAfter)
	}

	query := `
		SELECT id, type, title, status, context_tags, parent_id,
		       created_at, due_date, meta_payload, estimated_duration, updated_at
		FROM items
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if opts.OrderDesc {
		query += " ORDER BY created_at DESC"
	} else {
		query += " ORDER BY created_at ASC"
	}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*task.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*task.Item, error) {
	var item task.Item
	var tags, meta string

	err := row.Scan(
		&item.ID,
		&item.Type,
		&item.Title,
		&item.Status,
		&tags,
		&item.ParentID,
		&item.CreatedAt,
		&item.DueDate,
		&meta,
		&item.EstimatedDuration,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &item.ContextTags); err != nil {
		return nil, fmt.Errorf("failed to decode context tags: %w", err)
	}
	if err := json.Unmarshal([]byte(meta), &item.Meta); err != nil {
		return nil, fmt.Errorf("failed to decode meta payload: %w", err)
	}

	return &item, nil
}

func encodeItemPayloads(item *task.Item) (tags string, meta string, err error) {
	contextTags := item.ContextTags
	if contextTags == nil {
		contextTags = []string{}
	}
	tagBytes, err := json.Marshal(contextTags)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode context tags: %w", err)
	}

	metaPayload := item.Meta
	if metaPayload == nil {
		metaPayload = map[string]interface{}{}
	}
	metaBytes, err := json.Marshal(metaPayload)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode meta payload: %w", err)
	}

	return string(tagBytes), string(metaBytes), nil
}
