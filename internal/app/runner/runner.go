// Package runner provides the parallel execution engine for plugin work
// units: a bounded worker pool with cooperative cancellation, a hard join
// barrier, and a single post-processing phase once every unit has returned.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pathmorph/pathmorph/internal/domain/execution"
	"github.com/pathmorph/pathmorph/pkg/common/logger"
)

// ErrEmptyBatch is returned when an operand-bound batch contains no work
// units. Parameter-only batches are legitimately empty and complete
// immediately instead.
var ErrEmptyBatch = errors.New("empty work unit batch")

// Batch describes one collection of independent work units to execute.
type Batch struct {
	// Units are consumed exactly once; completion order is unspecified.
	Units []execution.WorkUnit

	// Flag is the invocation's shared cancellation flag. Required.
	Flag *execution.CancelFlag

	// RequireUnits marks the batch as operand-bound: zero units is then an
	// error rather than an immediate completion.
	RequireUnits bool
}

// Result reports how a batch finished.
type Result struct {
	Status   execution.RunStatus
	Outcomes []execution.Outcome

	// PostProcessErrs holds failures from post-processing hooks. They are
	// reported but do not retroactively fail individual units.
	PostProcessErrs []error
}

// Runner executes batches of work units on a bounded worker pool sized to
// the available parallel hardware capacity.
type Runner struct {
	workers int

	logger  *logger.Logger
	metrics Metrics
	tracer  trace.Tracer
}

// New creates a runner with the given pool size. A non-positive size falls
// back to the runtime's configured parallelism.
func New(workers int, log *logger.Logger, m Metrics, tracer trace.Tracer) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		workers: workers,
		logger:  log.With("component", "plugin_runner", "num_workers", workers),
		metrics: m,
		tracer:  tracer,
	}
}

// Workers returns the configured pool size.
func (r *Runner) Workers() int { return r.workers }

// RunTasks executes every unit in the batch and blocks until all of them
// have returned. It is the invocation's hard synchronization barrier: no
// unit is abandoned, and post-processing runs only after the barrier.
//
// The terminal status is Cancelled whenever the batch's flag is observed set
// at drain time, even if some units succeeded; cancelled runs are never
// reported as ordinary failures.
func (r *Runner) RunTasks(ctx context.Context, batch Batch) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "plugin_runner.run_tasks",
		trace.WithAttributes(
			attribute.Int("unit_count", len(batch.Units)),
			attribute.Int("workers", r.workers),
		))
	defer span.End()

	status := execution.RunStatusIdle
	started := time.Now()

	if len(batch.Units) == 0 {
		if batch.RequireUnits {
			if err := r.advance(ctx, &status, execution.RunStatusFailed); err != nil {
				return Result{Status: status}, err
			}
			span.SetStatus(codes.Error, "empty batch")
			return Result{Status: status}, ErrEmptyBatch
		}

		// A parameter-only operation legitimately has nothing to
		// parallelize and completes on the spot.
		if err := r.advance(ctx, &status, execution.RunStatusCompleted); err != nil {
			return Result{Status: status}, err
		}
		r.metrics.ObserveBatchDuration(ctx, status.String(), time.Since(started))
		return Result{Status: status}, nil
	}

	if err := r.advance(ctx, &status, execution.RunStatusDispatching); err != nil {
		return Result{Status: status}, err
	}

	workers := r.workers
	if workers > len(batch.Units) {
		workers = len(batch.Units)
	}

	unitCh := make(chan execution.WorkUnit)
	outcomeCh := make(chan execution.Outcome, len(batch.Units))

	var wg sync.WaitGroup
	wg.Add(workers)
	r.metrics.SetActiveWorkers(ctx, workers)
	for i := 0; i < workers; i++ {
		go func(workerID int) {
			defer wg.Done()
			r.workerLoop(ctx, workerID, unitCh, outcomeCh, batch.Flag)
		}(i)
	}

	if err := r.advance(ctx, &status, execution.RunStatusRunning); err != nil {
		return Result{Status: status}, err
	}

	// Submit all units. Submission order does not determine execution or
	// completion order. A dead invoking context makes further submission
	// impossible and is fatal to the batch.
	var submitErr error
submit:
	for _, unit := range batch.Units {
		select {
		case unitCh <- unit:
		case <-ctx.Done():
			submitErr = fmt.Errorf("submitting work unit: %w", ctx.Err())
			break submit
		}
	}
	close(unitCh)

	// Hard barrier: every submitted unit must return before draining.
	wg.Wait()
	close(outcomeCh)
	r.metrics.SetActiveWorkers(ctx, -workers)

	outcomes := make([]execution.Outcome, 0, len(batch.Units))
	for o := range outcomeCh {
		outcomes = append(outcomes, o)
	}

	if err := r.advance(ctx, &status, execution.RunStatusDraining); err != nil {
		return Result{Status: status, Outcomes: outcomes}, err
	}

	if submitErr != nil {
		span.RecordError(submitErr)
		span.SetStatus(codes.Error, "work unit submission failed")
		if err := r.advance(ctx, &status, execution.RunStatusFailed); err != nil {
			return Result{Status: status, Outcomes: outcomes}, err
		}
		r.metrics.ObserveBatchDuration(ctx, status.String(), time.Since(started))
		return Result{Status: status, Outcomes: outcomes}, submitErr
	}

	// Post-processing runs once per implementing unit, on this goroutine,
	// after every unit has returned. It also runs for cancelled batches so
	// aggregates reflect whatever partial effects are already visible.
	postErrs := r.postProcess(ctx, batch.Units)

	target := execution.RunStatusCompleted
	if batch.Flag.IsCancelled() {
		target = execution.RunStatusCancelled
	}
	if err := r.advance(ctx, &status, target); err != nil {
		return Result{Status: status, Outcomes: outcomes, PostProcessErrs: postErrs}, err
	}

	succeeded, failed, cancelled := execution.CountOutcomes(outcomes)
	span.SetAttributes(
		attribute.Int("units_succeeded", succeeded),
		attribute.Int("units_failed", failed),
		attribute.Int("units_cancelled", cancelled),
		attribute.String("status", status.String()),
	)
	r.logger.Info(ctx, "Batch finished",
		"status", status.String(),
		"units_succeeded", succeeded,
		"units_failed", failed,
		"units_cancelled", cancelled,
	)
	r.metrics.ObserveBatchDuration(ctx, status.String(), time.Since(started))

	return Result{Status: status, Outcomes: outcomes, PostProcessErrs: postErrs}, nil
}

// workerLoop drains the unit channel until it closes. Each unit is executed
// with panic isolation so one misbehaving unit cannot abort the batch.
func (r *Runner) workerLoop(ctx context.Context, workerID int, unitCh <-chan execution.WorkUnit, outcomeCh chan<- execution.Outcome, flag *execution.CancelFlag) {
	workerLogger := logger.NewLoggerContext(r.logger.With("worker_id", workerID))

	for unit := range unitCh {
		outcome := r.executeUnit(ctx, unit, flag)
		if outcome.Err != nil {
			workerLogger.Error(ctx, "Work unit failed", "unit", outcome.Unit, "error", outcome.Err)
		}
		outcomeCh <- outcome
	}
}

// executeUnit runs one work unit, recovering panics into per-unit failures.
// A unit that has not started when the flag is already set is skipped and
// recorded as cancelled; a unit already running is left to observe the flag
// at its own safe points.
func (r *Runner) executeUnit(ctx context.Context, unit execution.WorkUnit, flag *execution.CancelFlag) (outcome execution.Outcome) {
	outcome = execution.Outcome{Unit: unit.Describe()}
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			outcome.Err = fmt.Errorf("work unit panic: %v", rec)
		}
		outcome.Duration = time.Since(start)
		r.metrics.IncUnitsProcessed(ctx)
		r.metrics.ObserveUnitDuration(ctx, outcome.Duration)
		if outcome.Err != nil {
			r.metrics.IncUnitErrors(ctx)
		}
	}()

	if flag.IsCancelled() {
		outcome.Cancelled = true
		return outcome
	}

	outcome.Err = unit.Execute(ctx, flag)
	return outcome
}

// postProcess invokes the optional post-processing hook of each unit, in
// batch order, with the same panic isolation as execution.
func (r *Runner) postProcess(ctx context.Context, units []execution.WorkUnit) []error {
	var errs []error
	for _, unit := range units {
		pp, ok := unit.(execution.PostProcessor)
		if !ok {
			continue
		}
		if err := r.runPostProcessor(ctx, unit.Describe(), pp); err != nil {
			r.logger.Error(ctx, "Post-processing failed", "unit", unit.Describe(), "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

func (r *Runner) runPostProcessor(ctx context.Context, unit string, pp execution.PostProcessor) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("post-processing panic in %s: %v", unit, rec)
		}
	}()
	return pp.PostProcess(ctx)
}

// advance moves the batch through its lifecycle, enforcing the status state
// machine.
func (r *Runner) advance(ctx context.Context, status *execution.RunStatus, target execution.RunStatus) error {
	if err := (*status).ValidateTransition(target); err != nil {
		r.logger.Error(ctx, "Invalid run status transition", "from", status.String(), "to", target.String())
		return err
	}
	*status = target
	return nil
}
