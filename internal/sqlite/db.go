package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. Idempotent via IF NOT EXISTS so it is
// safe to run at every startup.
func (db *DB) RunMigrations() error {
	migration := `
-- Items: captures, next actions, projects, references
CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL CHECK(type IN ('inbox', 'action', 'project', 'reference')),
    title TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('active', 'done', 'waiting', 'someday', 'archived')),
    context_tags TEXT NOT NULL DEFAULT '[]',
    parent_id TEXT,
    created_at TIMESTAMP NOT NULL,
    due_date TIMESTAMP,
    meta_payload TEXT NOT NULL DEFAULT '{}',
    estimated_duration INTEGER,
    updated_at TIMESTAMP,
    FOREIGN KEY (parent_id) REFERENCES items(id)
);
CREATE INDEX IF NOT EXISTS idx_items_type_status ON items(type, status);
CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id);
CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at);

-- Resources: saved URLs, files, and notes keyed by source
CREATE TABLE IF NOT EXISTS resources (
    id TEXT PRIMARY KEY,
    content_type TEXT NOT NULL CHECK(content_type IN ('url', 'file', 'text')),
    source TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    raw_content TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resources_type ON resources(content_type);

-- Tag vocabulary with usage counts
CREATE TABLE IF NOT EXISTS tags (
    name TEXT PRIMARY KEY,
    aliases TEXT NOT NULL DEFAULT '[]',
    usage_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

-- Durable index jobs drained into the vector store
CREATE TABLE IF NOT EXISTS index_jobs (
    id TEXT PRIMARY KEY,
    resource_id TEXT NOT NULL,
    content_type TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('pending', 'processing', 'done', 'error')),
    error TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON index_jobs(status, created_at);

-- Embeddings for semantic resource search
CREATE TABLE IF NOT EXISTS vectors (
    resource_id TEXT PRIMARY KEY,
    embedding BLOB NOT NULL,
    dimensions INTEGER NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    snippet TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT ''
);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
