package content

import "fmt"

// ConflictError is returned by the store when inserting a record whose
// fingerprint is already carried by a non-failed record. This is an expected
// outcome of the duplicate-content invariant, not a bug.
type ConflictError struct {
	Fingerprint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("content with fingerprint %s already exists", shortFingerprint(e.Fingerprint))
}

// NotFoundError is returned when a record ID is unknown to the store.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content record %s not found", e.ID)
}

// InvalidTransitionError is returned when a state update does not follow the
// forward-only lifecycle. It indicates a programming or data-integrity error
// and should not occur in correct operation.
type InvalidTransitionError struct {
	ID   string
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("content record %s: invalid transition %s -> %s", e.ID, e.From, e.To)
}

// DuplicateContentError is returned when every regeneration attempt produced
// content that duplicates existing history. It is distinct from an API error:
// the generator worked, it just kept repeating itself.
type DuplicateContentError struct {
	Attempts int
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("all %d generation attempts produced duplicate content", e.Attempts)
}

// GenerationError wraps a failure of the idea/caption generation collaborator
// after retries were exhausted.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("content generation failed: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// RenderError wraps a failure of the image-source or rendering step after
// retries were exhausted.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("artifact rendering failed: %v", e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }

// PublishError wraps a failure of the publishing collaborator after retries
// were exhausted.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string { return fmt.Sprintf("publishing failed: %v", e.Err) }
func (e *PublishError) Unwrap() error { return e.Err }

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12] + "..."
	}
	return fp
}
