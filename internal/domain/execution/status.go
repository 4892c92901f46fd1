// Package execution provides the domain types for one parallel plugin run:
// the run status lifecycle, work units and their outcomes, and the shared
// cooperative cancellation flag.
package execution

import (
	"errors"
	"fmt"
)

// RunStatus represents the lifecycle state of one plugin invocation as it
// moves through the runner.
type RunStatus string

// ErrInvalidStatusTransition is returned when a run status transition
// violates the lifecycle rules.
var ErrInvalidStatusTransition = errors.New("invalid run status transition")

const (
	// RunStatusIdle indicates an invocation has been created but no work
	// units have been accepted yet.
	RunStatusIdle RunStatus = "IDLE"

	// RunStatusDispatching indicates work units are being submitted to the
	// worker pool.
	RunStatusDispatching RunStatus = "DISPATCHING"

	// RunStatusRunning indicates work units are executing.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusDraining indicates all units have returned and the runner is
	// executing post-processing before settling on a terminal state.
	RunStatusDraining RunStatus = "DRAINING"

	// RunStatusCompleted indicates every unit finished; some may have failed
	// internally without failing the batch.
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusCancelled indicates the cancellation flag was observed set at
	// drain time. Always reported distinctly from failure.
	RunStatusCancelled RunStatus = "CANCELLED"

	// RunStatusFailed indicates the invocation failed before or during
	// dispatch, e.g. pool submission exhaustion.
	RunStatusFailed RunStatus = "FAILED"
)

// String returns the string representation of the RunStatus.
func (s RunStatus) String() string { return string(s) }

// IsTerminal reports whether the status is one of the terminal states.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCancelled || s == RunStatusFailed
}

// ValidateTransition checks if a status transition is valid and returns an
// error if not.
func (s RunStatus) ValidateTransition(target RunStatus) error {
	if !s.isValidTransition(target) {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, s, target)
	}
	return nil
}

// isValidTransition checks if the current status can transition to the target
// status. It enforces the invocation lifecycle rules.
func (s RunStatus) isValidTransition(target RunStatus) bool {
	switch s {
	case RunStatusIdle:
		// An empty parameter-only batch goes straight to Completed.
		return target == RunStatusDispatching || target == RunStatusCompleted || target == RunStatusFailed
	case RunStatusDispatching:
		return target == RunStatusRunning || target == RunStatusFailed
	case RunStatusRunning:
		return target == RunStatusDraining
	case RunStatusDraining:
		return target == RunStatusCompleted || target == RunStatusCancelled || target == RunStatusFailed
	case RunStatusCompleted, RunStatusCancelled, RunStatusFailed:
		// Terminal states - no further transitions allowed.
		return false
	default:
		return false
	}
}

// ParseRunStatus converts a string to a RunStatus.
func ParseRunStatus(s string) RunStatus {
	switch s {
	case "IDLE":
		return RunStatusIdle
	case "DISPATCHING":
		return RunStatusDispatching
	case "RUNNING":
		return RunStatusRunning
	case "DRAINING":
		return RunStatusDraining
	case "COMPLETED":
		return RunStatusCompleted
	case "CANCELLED":
		return RunStatusCancelled
	case "FAILED":
		return RunStatusFailed
	default:
		return ""
	}
}
