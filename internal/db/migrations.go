package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order. SchemaSQL already
// reflects the latest version; migrations exist for databases created by
// earlier builds.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "add_state_index_to_content_records",
		Up:      migrationV1,
	},
}

// RunMigrations applies any pending migrations, tracking progress in the
// schema_version table.
func RunMigrations(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	for _, m := range migrations {
		var applied int
		err := conn.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", m.Version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", m.Version, err)
		}
		if applied > 0 {
			continue
		}

		if err := m.Up(conn); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func migrationV1(conn *sql.DB) error {
	_, err := conn.Exec(`CREATE INDEX IF NOT EXISTS idx_content_records_state ON content_records(state)`)
	if err != nil {
		return fmt.Errorf("failed to create state index: %w", err)
	}
	return nil
}
