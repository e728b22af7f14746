package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs.
//
// This is the single source of truth for the database schema. Repository
// tests create their tables via GetSchemaSQL() instead of hardcoding CREATE
// TABLE statements, so any drift between repository code and schema fails
// immediately with "no such column" at test time.
//
// The partial unique index on fingerprint enforces the duplicate-content
// invariant at the storage layer: no two non-failed records may share a
// fingerprint. Failed records are deliberately excluded so the same idea can
// be attempted again after a failure.
const SchemaSQL = `
-- Content records (append-only lifecycle history)
CREATE TABLE IF NOT EXISTS content_records (
	id TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	state TEXT NOT NULL CHECK(state IN ('created', 'rendered', 'published', 'failed')) DEFAULT 'created',
	topic TEXT NOT NULL,
	caption TEXT NOT NULL DEFAULT '',
	artifact_ref TEXT,
	publish_ref TEXT,
	error_info TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_content_records_active_fingerprint
ON content_records(fingerprint) WHERE state != 'failed';

CREATE INDEX IF NOT EXISTS idx_content_records_created_at
ON content_records(created_at);

CREATE INDEX IF NOT EXISTS idx_content_records_state
ON content_records(state);
`

// InitSchema creates the database schema and records the schema version.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return RunMigrations(conn)
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
