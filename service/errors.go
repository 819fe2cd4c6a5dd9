package service

import "errors"

// Workflow error taxonomy. Every failed transition reports which invariant
// blocked it; none of these are control flow for exceptional conditions — a
// wrong role is an expected, frequent outcome. Only ErrConflict is eligible
// for caller-driven retry, after re-reading the current state.
var (
	// ErrUnauthorized means the role or region check failed.
	ErrUnauthorized = errors.New("unauthorized for this transition")

	// ErrInvalidTransition means the current state does not permit the
	// requested action (including any action on a terminal state).
	ErrInvalidTransition = errors.New("invalid transition for current status")

	// ErrConflict means the compare-and-swap precondition failed: another
	// writer advanced the complaint first. Reload and retry.
	ErrConflict = errors.New("complaint was modified concurrently")

	// ErrNotFound means the complaint id does not exist.
	ErrNotFound = errors.New("complaint not found")

	// ErrResolverUnavailable means the actor's region could not be resolved.
	// For region-scoped roles this is a hard authorization failure, since
	// scope cannot be verified.
	ErrResolverUnavailable = errors.New("region resolver unavailable")
)
