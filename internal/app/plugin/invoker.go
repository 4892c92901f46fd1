package plugin

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pathmorph/pathmorph/internal/app/runner"
	"github.com/pathmorph/pathmorph/internal/domain/execution"
	"github.com/pathmorph/pathmorph/internal/domain/objects"
	"github.com/pathmorph/pathmorph/internal/domain/params"
	"github.com/pathmorph/pathmorph/internal/domain/workflow"
	"github.com/pathmorph/pathmorph/pkg/common/logger"
)

// Session is the explicit per-dataset context an invocation runs against:
// the object hierarchy and its workflow history. It replaces any notion of a
// global "current application" state.
type Session struct {
	Hierarchy *objects.Hierarchy
	History   *workflow.History
}

// NewSession creates a session around a hierarchy with an empty history.
func NewSession(h *objects.Hierarchy) *Session {
	return &Session{Hierarchy: h, History: workflow.NewHistory()}
}

// Displayer receives the final result summary and status for presentation.
// The engine consumes no return value from it.
type Displayer interface {
	ShowResult(ctx context.Context, operationName, summary string, status execution.RunStatus)
}

// BatchRunner executes one batch of work units to completion. Satisfied by
// runner.Runner.
type BatchRunner interface {
	RunTasks(ctx context.Context, batch runner.Batch) (runner.Result, error)
}

// Invoker orchestrates operation runs: selector, parameter freezing, the
// parallel runner, result evaluation, and the history append rule.
type Invoker struct {
	selector *Selector
	runner   BatchRunner
	display  Displayer

	timeProvider execution.TimeProvider

	logger *logger.Logger
	tracer trace.Tracer
}

// NewInvoker creates an invoker. The displayer may be nil when no
// presentation collaborator exists, e.g. in scripted replay.
func NewInvoker(sel *Selector, br BatchRunner, display Displayer, log *logger.Logger, tracer trace.Tracer) *Invoker {
	return &Invoker{
		selector:     sel,
		runner:       br,
		display:      display,
		timeProvider: execution.NewRealTimeProvider(),
		logger:       log.With("component", "invoker"),
		tracer:       tracer,
	}
}

// Invoke launches p with its default parameters. See InvokeWithParams.
func (ik *Invoker) Invoke(ctx context.Context, p Plugin, sess *Session, prompter Prompter) *Invocation {
	return ik.InvokeWithParams(ctx, p, sess, prompter, p.DefaultParams())
}

// InvokeWithParams launches p against the session with the given parameter
// list and returns immediately with a handle the caller can await or cancel.
// The run itself proceeds on its own goroutine, decoupled from the invoking
// control flow.
func (ik *Invoker) InvokeWithParams(ctx context.Context, p Plugin, sess *Session, prompter Prompter, list *params.List) *Invocation {
	inv := newInvocation(ik.timeProvider)

	go func() {
		res := ik.run(ctx, p, sess, prompter, list, inv.flag)
		if ik.display != nil {
			ik.display.ShowResult(ctx, p.Name(), res.Summary, res.Status)
		}
		inv.finish(res)
	}()

	return inv
}

// run executes one invocation to completion. Invocation-level errors abort
// cleanly: no work unit runs, no state changes, no history append.
func (ik *Invoker) run(ctx context.Context, p Plugin, sess *Session, prompter Prompter, list *params.List, flag *execution.CancelFlag) Result {
	ctx, span := ik.tracer.Start(ctx, "invoker.run",
		trace.WithAttributes(attribute.String("operation", p.ID())))
	defer span.End()

	lastBefore := sess.History.LastStep()
	parameterOnly := IsParameterOnly(p)

	var operands []*objects.Object
	if !parameterOnly {
		var err error
		operands, err = ik.selector.ResolveOperands(
			ctx, sess.Hierarchy, p.Name(), p.SupportedObjectKinds(), p.AlwaysPromptForObjects(), prompter)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "operand resolution failed")
			return Result{Status: execution.RunStatusFailed, Err: err}
		}
	}

	// Freeze parameters at the moment execution starts; the frozen copy,
	// not the live list, is what a recorded step replays from.
	frozen := list.Snapshot()
	blob, err := frozen.Serialize()
	if err != nil {
		span.RecordError(err)
		return Result{Status: execution.RunStatusFailed, Err: fmt.Errorf("freezing parameters: %w", err)}
	}

	units, err := p.BuildWorkUnits(operands, frozen)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "work unit construction failed")
		return Result{Status: execution.RunStatusFailed, Err: err}
	}

	runRes, err := ik.runner.RunTasks(ctx, runner.Batch{
		Units:        units,
		Flag:         flag,
		RequireUnits: !parameterOnly,
	})
	if err != nil {
		span.RecordError(err)
		return Result{
			Status:   runRes.Status,
			Outcomes: runRes.Outcomes,
			Summary:  p.LastResultsDescription(runRes.Outcomes),
			Err:      err,
		}
	}

	res := Result{
		Status:          runRes.Status,
		Outcomes:        runRes.Outcomes,
		PostProcessErrs: runRes.PostProcessErrs,
		Summary:         p.LastResultsDescription(runRes.Outcomes),
	}
	res.Success = runRes.Status == execution.RunStatusCompleted && p.Succeeded(runRes.Outcomes)

	// History append rule: a successful run records exactly one step. If
	// the tail identity already changed, a nested operation recorded its
	// own step during the run and that one is kept; appending again here
	// would double-record.
	if res.Success {
		if tail := sess.History.LastStep(); tail != lastBefore {
			res.Step = tail
		} else {
			step := workflow.NewStep(p.ID(), blob, p.Name())
			sess.History.Append(step)
			res.Step = step
		}
	}

	ik.logger.Info(ctx, "Invocation finished",
		"operation", p.ID(),
		"status", res.Status.String(),
		"success", res.Success,
		"summary", res.Summary,
	)
	span.SetAttributes(
		attribute.String("status", res.Status.String()),
		attribute.Bool("success", res.Success),
	)
	return res
}
