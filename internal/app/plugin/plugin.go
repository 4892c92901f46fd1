// Package plugin provides the capability contract analysis operations
// implement, the operand selector, and the invoker that orchestrates one
// operation run: operand resolution, parameter freezing, parallel execution
// and, on success, appending a replayable step to the workflow history.
package plugin

import (
	"errors"

	"github.com/pathmorph/pathmorph/internal/domain/execution"
	"github.com/pathmorph/pathmorph/internal/domain/objects"
	"github.com/pathmorph/pathmorph/internal/domain/params"
)

// A set of invocation-level errors. All of them abort before any work unit
// is scheduled, with no partial side effects and no history append.
var (
	// ErrNoEligibleOperands is returned when the plugin's kind predicate
	// matches nothing in the entire hierarchy, not just the selection.
	ErrNoEligibleOperands = errors.New("no eligible operands in hierarchy")

	// ErrPromptCancelled is returned when the prompt collaborator signals
	// cancellation instead of producing an operand set.
	ErrPromptCancelled = errors.New("operand prompt cancelled")

	// ErrInvalidParameters is returned by BuildWorkUnits when parameter
	// values are out of their declared range or domain.
	ErrInvalidParameters = errors.New("invalid parameter values")

	// ErrUnknownOperation is returned when an operation identifier cannot
	// be resolved by the registry.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrAlreadyRegistered is returned when an operation identifier is
	// registered twice.
	ErrAlreadyRegistered = errors.New("operation already registered")
)

// Plugin is the capability set every analysis operation implements.
type Plugin interface {
	// ID returns the stable operation identifier recorded in workflow
	// steps and used to resolve the operation on replay.
	ID() string

	// Name returns the human-readable operation name.
	Name() string

	// SupportedObjectKinds returns the predicate the selector uses to
	// filter eligible operands.
	SupportedObjectKinds() objects.KindPredicate

	// AlwaysPromptForObjects reports whether the operation's behavior
	// depends qualitatively on which objects are chosen, forcing a prompt
	// even when the current selection already holds eligible operands.
	AlwaysPromptForObjects() bool

	// DefaultParams returns a fresh parameter list pre-populated with the
	// operation's defaults.
	DefaultParams() *params.List

	// BuildWorkUnits decomposes the operation into independent work units
	// bound to the resolved operands and a frozen parameter snapshot. It
	// must only describe the work, never perform it.
	BuildWorkUnits(operands []*objects.Object, p *params.List) ([]execution.WorkUnit, error)

	// Succeeded is the operation-specific success predicate over the
	// collected per-unit outcomes.
	Succeeded(outcomes []execution.Outcome) bool

	// LastResultsDescription renders a human-readable result summary,
	// e.g. "12 objects updated, 1 failed". Used for display only.
	LastResultsDescription(outcomes []execution.Outcome) string
}

// ParameterOnly marks operations that bind no operands at all. The selector
// is skipped and an empty batch is legal, completing immediately.
type ParameterOnly interface {
	Plugin

	// ParameterOnlyOperation is a marker; implementations do nothing.
	ParameterOnlyOperation()
}

// IsParameterOnly reports whether p carries the ParameterOnly capability.
// The capability is fixed at construction time, not probed per call.
func IsParameterOnly(p Plugin) bool {
	_, ok := p.(ParameterOnly)
	return ok
}
