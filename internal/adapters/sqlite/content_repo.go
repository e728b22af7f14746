// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/example/postforge/internal/core/content"
	"github.com/example/postforge/internal/ports/secondary"
)

// ContentRepository implements secondary.ContentRepository with SQLite.
//
// Durability comes from sqlite itself (WAL + synchronous writes set at open
// time); serialization of concurrent updates to the same record comes from
// sqlite's single-writer model plus the compare-and-swap in UpdateState.
type ContentRepository struct {
	db *sql.DB
}

// NewContentRepository creates a new SQLite content repository.
func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Insert persists a new record. The record must have ID and Fingerprint
// pre-populated by the service layer; State defaults to created.
func (r *ContentRepository) Insert(ctx context.Context, record *secondary.ContentRecord) error {
	if record.ID == "" {
		return fmt.Errorf("content ID must be pre-populated by service layer")
	}
	if record.Fingerprint == "" {
		return fmt.Errorf("content fingerprint must be pre-populated by service layer")
	}
	if record.State == "" {
		record.State = content.InitialState()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO content_records (id, fingerprint, state, topic, caption) VALUES (?, ?, ?, ?, ?)",
		record.ID, record.Fingerprint, string(record.State), record.Topic, record.Caption,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			// The partial unique index rejected a second non-failed record
			// with this fingerprint.
			return &content.ConflictError{Fingerprint: record.Fingerprint}
		}
		return fmt.Errorf("failed to insert content record: %w", err)
	}

	return nil
}

// GetByID retrieves a record by its ID.
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*secondary.ContentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, fingerprint, state, topic, caption, artifact_ref, publish_ref, error_info, created_at, updated_at FROM content_records WHERE id = ?",
		id,
	)
	record, err := scanContentRecord(row)
	if err == sql.ErrNoRows {
		return nil, &content.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content record: %w", err)
	}
	return record, nil
}

// UpdateState atomically moves a record forward in its lifecycle.
func (r *ContentRepository) UpdateState(ctx context.Context, id string, newState content.State, fields secondary.StateFields) error {
	if !newState.Valid() {
		return fmt.Errorf("unknown content state %q", newState)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, "SELECT state FROM content_records WHERE id = ?", id).Scan(&current)
	if err == sql.ErrNoRows {
		return &content.NotFoundError{ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to read current state: %w", err)
	}

	from := content.State(current)
	if !content.CanTransition(from, newState) {
		return &content.InvalidTransitionError{ID: id, From: from, To: newState}
	}

	query := "UPDATE content_records SET state = ?, updated_at = CURRENT_TIMESTAMP"
	args := []any{string(newState)}

	switch newState {
	case content.StateRendered:
		if fields.ArtifactRef == "" {
			return fmt.Errorf("artifact ref is required to mark record %s rendered", id)
		}
		query += ", artifact_ref = ?"
		args = append(args, fields.ArtifactRef)
	case content.StatePublished:
		if fields.PublishRef == "" {
			return fmt.Errorf("publish ref is required to mark record %s published", id)
		}
		query += ", publish_ref = ?"
		args = append(args, fields.PublishRef)
	case content.StateFailed:
		query += ", error_info = ?"
		args = append(args, fields.ErrorInfo)
	}

	// Guard against a concurrent writer moving the record between our read
	// and this update: the state predicate makes the transition a CAS.
	query += " WHERE id = ? AND state = ?"
	args = append(args, id, current)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update content record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return &content.InvalidTransitionError{ID: id, From: from, To: newState}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state update: %w", err)
	}
	return nil
}

// ExistsByFingerprint reports whether any non-failed record carries the
// fingerprint.
func (r *ContentRepository) ExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM content_records WHERE fingerprint = ? AND state != 'failed' LIMIT 1",
		fingerprint,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return true, nil
}

// ListRecent retrieves records most-recent first.
func (r *ContentRepository) ListRecent(ctx context.Context, filters secondary.ContentFilters) ([]*secondary.ContentRecord, error) {
	query := "SELECT id, fingerprint, state, topic, caption, artifact_ref, publish_ref, error_info, created_at, updated_at FROM content_records"
	args := []any{}

	if filters.State != "" {
		query += " WHERE state = ?"
		args = append(args, string(filters.State))
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list content records: %w", err)
	}
	defer rows.Close()

	var records []*secondary.ContentRecord
	for rows.Next() {
		record, err := scanContentRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content records: %w", err)
	}

	return records, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanContentRecord(s scanner) (*secondary.ContentRecord, error) {
	var (
		state       string
		artifactRef sql.NullString
		publishRef  sql.NullString
		errorInfo   sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
	)

	record := &secondary.ContentRecord{}
	err := s.Scan(
		&record.ID, &record.Fingerprint, &state, &record.Topic, &record.Caption,
		&artifactRef, &publishRef, &errorInfo, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.State = content.State(state)
	record.ArtifactRef = artifactRef.String
	record.PublishRef = publishRef.String
	record.ErrorInfo = errorInfo.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}
