// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application drives
// external systems.
package secondary

import (
	"context"

	"github.com/example/postforge/internal/core/content"
)

// ContentRepository defines the secondary port for content-record persistence.
// It is the single source of truth for deduplication and history.
type ContentRepository interface {
	// Insert persists a new record in the created state. Returns
	// *content.ConflictError if a non-failed record already carries the same
	// fingerprint.
	Insert(ctx context.Context, record *ContentRecord) error

	// GetByID retrieves a record by its ID. Returns *content.NotFoundError
	// if the ID is unknown.
	GetByID(ctx context.Context, id string) (*ContentRecord, error)

	// UpdateState atomically moves a record to a new state, applying the
	// reference fields relevant to that state and bumping updated_at.
	// Returns *content.NotFoundError for unknown IDs and
	// *content.InvalidTransitionError when the move is not forward-only.
	UpdateState(ctx context.Context, id string, newState content.State, fields StateFields) error

	// ExistsByFingerprint reports whether any non-failed record carries the
	// fingerprint. Cheap pre-check used before expensive generation work.
	ExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error)

	// ListRecent returns records most-recent first for observability.
	ListRecent(ctx context.Context, filters ContentFilters) ([]*ContentRecord, error)
}

// ContentRecord represents a content item as stored in persistence.
// Records are append-only history: they are never deleted.
type ContentRecord struct {
	ID          string
	Fingerprint string
	State       content.State
	Topic       string
	Caption     string
	ArtifactRef string // set iff state is rendered or published
	PublishRef  string // set iff state is published
	ErrorInfo   string // set iff state is failed
	CreatedAt   string
	UpdatedAt   string
}

// StateFields carries the reference fields applied during a state update.
// Only the field matching the target state is consumed.
type StateFields struct {
	ArtifactRef string // required for rendered
	PublishRef  string // required for published
	ErrorInfo   string // required for failed
}

// ContentFilters contains filter options for querying content history.
type ContentFilters struct {
	State content.State
	Limit int
}
