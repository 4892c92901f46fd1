package execution

import (
	"context"
	"time"
)

// WorkUnit is one independent, parallel-safe piece of execution bound to its
// operand(s) and a snapshot of parameter values. Units within one batch must
// not depend on each other's results and must touch disjoint operands; that
// is a batch-construction invariant the runner assumes rather than polices.
//
// Execute should poll the provided CancelFlag at safe points and return
// promptly when it is set. The runner never interrupts a running unit.
type WorkUnit interface {
	// Describe returns a short identifier for logs and failure summaries.
	Describe() string

	// Execute performs the unit's side-effecting work.
	Execute(ctx context.Context, cancel *CancelFlag) error
}

// PostProcessor is optionally implemented by work units that need an
// aggregate step after every unit in the batch has returned. PostProcess
// runs exactly once per implementing unit, on the runner's own goroutine,
// never inside a parallel worker.
type PostProcessor interface {
	PostProcess(ctx context.Context) error
}

// Outcome records how a single work unit finished.
type Outcome struct {
	Unit      string
	Err       error
	Cancelled bool
	Duration  time.Duration
}

// Succeeded reports whether the unit completed its effect.
func (o Outcome) Succeeded() bool { return o.Err == nil && !o.Cancelled }

// CountOutcomes tallies a batch's outcomes into succeeded, failed and
// cancelled totals.
func CountOutcomes(outcomes []Outcome) (succeeded, failed, cancelled int) {
	for _, o := range outcomes {
		switch {
		case o.Cancelled:
			cancelled++
		case o.Err != nil:
			failed++
		default:
			succeeded++
		}
	}
	return succeeded, failed, cancelled
}
