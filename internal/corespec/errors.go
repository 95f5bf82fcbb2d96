// Package corespec holds the error kinds and narrow collaborator interfaces
// shared by every core package, so that internal/cost, internal/neighborhood,
// internal/multimodal, internal/tabu, internal/runner and internal/solver can
// all refer to the same sentinels without importing each other.
package corespec

import "errors"

// Error kinds shared across the core, per the error handling design.
var (
	// ErrEmptyNeighborhood is returned by FirstMove/RandomMove when the
	// neighborhood has no moves to offer from the given state.
	ErrEmptyNeighborhood = errors.New("localsearch: empty neighborhood")

	// ErrParameterNotSet is returned when a required parameter was never
	// provided to a component's parameter box.
	ErrParameterNotSet = errors.New("localsearch: parameter not set")

	// ErrIncorrectParameterValue is returned when a parameter's validator
	// rejects the value it was given.
	ErrIncorrectParameterValue = errors.New("localsearch: incorrect parameter value")

	// ErrNotImplemented is returned when a caller invokes an optional
	// collaborator operation the user never supplied.
	ErrNotImplemented = errors.New("localsearch: operation not implemented")

	// ErrCancelled is returned when a run was stopped by cooperative
	// cancellation rather than by reaching its own stop criterion.
	ErrCancelled = errors.New("localsearch: run cancelled")

	// ErrTimedOut is returned when a run's deadline elapsed before its own
	// stop criterion was reached.
	ErrTimedOut = errors.New("localsearch: run timed out")

	// ErrInconsistent is returned by CheckConsistency hooks; it is fatal
	// and only ever checked outside the "prod" build tag.
	ErrInconsistent = errors.New("localsearch: inconsistent state")
)
