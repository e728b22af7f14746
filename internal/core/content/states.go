// Package content contains the pure business logic for the content lifecycle.
// This is part of the Functional Core - no I/O, only pure functions.
package content

// State represents the lifecycle state of a content record.
type State string

const (
	// StateCreated is the initial state: idea accepted as unique, nothing rendered yet.
	StateCreated State = "created"
	// StateRendered means the image artifact exists but has not been published.
	StateRendered State = "rendered"
	// StatePublished means the post is live on the platform.
	StatePublished State = "published"
	// StateFailed is terminal. Failed records are never resumed; a fresh
	// record is created when the same idea is attempted again.
	StateFailed State = "failed"
)

// Valid reports whether s is a known lifecycle state.
func (s State) Valid() bool {
	switch s {
	case StateCreated, StateRendered, StatePublished, StateFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s State) Terminal() bool {
	return s == StatePublished || s == StateFailed
}

// InitialState returns the state for a freshly inserted record.
func InitialState() State {
	return StateCreated
}

// CanTransition reports whether moving from one state to another is allowed.
// Transitions are strictly forward: created -> rendered -> published, and any
// non-terminal-failure state may move to failed. Failed never transitions.
func CanTransition(from, to State) bool {
	if from == StateFailed {
		return false
	}
	switch to {
	case StateRendered:
		return from == StateCreated
	case StatePublished:
		return from == StateRendered
	case StateFailed:
		return from == StateCreated || from == StateRendered || from == StatePublished
	}
	return false
}
