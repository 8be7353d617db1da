package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"items",
		"resources",
		"tags",
		"index_jobs",
		"vectors",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsIdempotent verifies the schema is safe to re-apply
func TestMigrationsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestItemsTableConstraints verifies the items table CHECK constraints
func TestItemsTableConstraints(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, type, title, status, created_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		"i1", "inbox", "Test Item", "active")
	require.NoError(t, err)

	// Invalid type should fail
	_, err = db.ExecContext(ctx,
		`INSERT INTO items (id, type, title, status, created_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		"i2", "task", "Test", "active")
	require.Error(t, err, "should fail with invalid type")

	// Invalid status should fail
	_, err = db.ExecContext(ctx,
		`INSERT INTO items (id, type, title, status, created_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		"i3", "inbox", "Test", "deleted")
	require.Error(t, err, "should fail with invalid status")

	// Unknown parent should fail
	_, err = db.ExecContext(ctx,
		`INSERT INTO items (id, type, title, status, parent_id, created_at) VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		"i4", "action", "Test", "active", "missing")
	require.Error(t, err, "should fail with unknown parent_id")
}

// TestResourcesUniqueSource verifies the source natural key
func TestResourcesUniqueSource(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO resources (id, content_type, source, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		"r1", "url", "https://example.com")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO resources (id, content_type, source, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		"r2", "url", "https://example.com")
	require.Error(t, err, "duplicate source should fail")
}
