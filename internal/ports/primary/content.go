// Package primary defines the primary ports (driving adapters) for the
// application. These are the service interfaces the CLI and scheduler call.
package primary

import "context"

// ContentService is the primary port for the content lifecycle coordinator.
type ContentService interface {
	// ProducePost drives one content item from idea to published post:
	// generate, deduplicate, record, render, publish. The caller receives
	// either a publish reference or a typed failure; there are no silent
	// drops.
	ProducePost(ctx context.Context, req ProducePostRequest) (*ProducePostResponse, error)

	// History returns recent content records, most-recent first.
	History(ctx context.Context, filters HistoryFilters) ([]*ContentItem, error)
}

// ProducePostRequest carries the inputs for one production run.
type ProducePostRequest struct {
	// TopicHint steers the generator toward a niche; may be empty.
	TopicHint string
}

// ProducePostResponse reports a successfully published post.
type ProducePostResponse struct {
	RecordID    string
	Fingerprint string
	Topic       string
	Caption     string
	ArtifactRef string
	PublishRef  string
}

// HistoryFilters contains filter options for listing content history.
type HistoryFilters struct {
	State string
	Limit int
}

// ContentItem is the service-level view of a content record.
type ContentItem struct {
	ID          string
	State       string
	Topic       string
	Fingerprint string
	ArtifactRef string
	PublishRef  string
	ErrorInfo   string
	CreatedAt   string
	UpdatedAt   string
}
