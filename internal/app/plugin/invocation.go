package plugin

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pathmorph/pathmorph/internal/domain/execution"
	"github.com/pathmorph/pathmorph/internal/domain/workflow"
)

// Result is the immutable outcome of one invocation, handed to the display
// collaborator and available through the invocation handle.
type Result struct {
	Status  execution.RunStatus
	Success bool
	Summary string

	Outcomes        []execution.Outcome
	PostProcessErrs []error

	// Step is the history step associated with this invocation: the one it
	// appended, or the one a nested operation appended during the run. Nil
	// when nothing was recorded.
	Step *workflow.Step

	// Err holds the invocation-level error, if any. Per-unit failures live
	// in Outcomes instead.
	Err error
}

// Invocation is the handle returned when an operation is launched. The run
// proceeds on its own goroutine; callers poll or await the handle, and may
// request cooperative cancellation at any time.
type Invocation struct {
	id       uuid.UUID
	flag     *execution.CancelFlag
	timeline *execution.Timeline

	done chan struct{}

	mu     sync.RWMutex
	result Result
}

func newInvocation(tp execution.TimeProvider) *Invocation {
	return &Invocation{
		id:       uuid.New(),
		flag:     execution.NewCancelFlag(),
		timeline: execution.NewTimeline(tp),
		done:     make(chan struct{}),
	}
}

// ID returns the invocation's unique identifier.
func (inv *Invocation) ID() uuid.UUID { return inv.id }

// Cancel sets the invocation's shared cancellation flag. Cancellation is
// cooperative: units observe the flag at their own safe points, and effects
// already applied are not rolled back.
func (inv *Invocation) Cancel() { inv.flag.Cancel() }

// Done returns a channel closed when the invocation reaches a terminal
// state.
func (inv *Invocation) Done() <-chan struct{} { return inv.done }

// Wait blocks until the invocation finishes or the context is done.
func (inv *Invocation) Wait(ctx context.Context) (Result, error) {
	select {
	case <-inv.done:
		return inv.Result(), nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the invocation outcome. Only meaningful once Done is
// closed; before that it returns the zero Result.
func (inv *Invocation) Result() Result {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.result
}

// Timeline returns the invocation's timing information.
func (inv *Invocation) Timeline() *execution.Timeline { return inv.timeline }

func (inv *Invocation) finish(res Result) {
	inv.mu.Lock()
	inv.result = res
	inv.timeline.MarkCompleted()
	inv.mu.Unlock()
	close(inv.done)
}
