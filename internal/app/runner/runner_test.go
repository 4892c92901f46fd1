package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/pathmorph/pathmorph/internal/domain/execution"
	"github.com/pathmorph/pathmorph/pkg/common/logger"
)

// testUnit is a scriptable work unit for exercising the runner.
type testUnit struct {
	name    string
	execFn  func(ctx context.Context, flag *execution.CancelFlag) error
	postFn  func(ctx context.Context) error
	ranPost atomic.Int32
}

func (u *testUnit) Describe() string { return u.name }

func (u *testUnit) Execute(ctx context.Context, flag *execution.CancelFlag) error {
	if u.execFn != nil {
		return u.execFn(ctx, flag)
	}
	return nil
}

func (u *testUnit) PostProcess(ctx context.Context) error {
	u.ranPost.Add(1)
	if u.postFn != nil {
		return u.postFn(ctx)
	}
	return nil
}

// plainUnit has no post-processing hook.
type plainUnit struct {
	name   string
	execFn func(ctx context.Context, flag *execution.CancelFlag) error
}

func (u *plainUnit) Describe() string { return u.name }

func (u *plainUnit) Execute(ctx context.Context, flag *execution.CancelFlag) error {
	if u.execFn != nil {
		return u.execFn(ctx, flag)
	}
	return nil
}

func newTestRunner(t *testing.T, workers int) *Runner {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelDebug, "runner-test", nil)
	m, err := NewMetrics(metricnoop.NewMeterProvider())
	require.NoError(t, err)
	tracer := noop.NewTracerProvider().Tracer("test")
	return New(workers, log, m, tracer)
}

func TestRunner_AllUnitsSucceed(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, 4)

	var executed atomic.Int32
	units := make([]execution.WorkUnit, 0, 16)
	for i := 0; i < 16; i++ {
		units = append(units, &plainUnit{
			name: fmt.Sprintf("unit-%d", i),
			execFn: func(context.Context, *execution.CancelFlag) error {
				executed.Add(1)
				return nil
			},
		})
	}

	res, err := r.RunTasks(context.Background(), Batch{
		Units:        units,
		Flag:         execution.NewCancelFlag(),
		RequireUnits: true,
	})
	require.NoError(t, err)

	assert.Equal(t, execution.RunStatusCompleted, res.Status)
	assert.Equal(t, int32(16), executed.Load(), "barrier must not release before every unit returned")

	succeeded, failed, cancelled := execution.CountOutcomes(res.Outcomes)
	assert.Equal(t, 16, succeeded)
	assert.Zero(t, failed)
	assert.Zero(t, cancelled)
}

func TestRunner_OutcomeMultisetIsOrderIndependent(t *testing.T) {
	t.Parallel()

	// Running the same independent batch with different worker counts must
	// produce the same multiset of per-unit outcomes even though completion
	// order is unspecified.
	collect := func(workers int) []string {
		r := newTestRunner(t, workers)

		units := make([]execution.WorkUnit, 0, 9)
		for i := 0; i < 9; i++ {
			i := i
			units = append(units, &plainUnit{
				name: fmt.Sprintf("unit-%d", i),
				execFn: func(context.Context, *execution.CancelFlag) error {
					if i%3 == 0 {
						return errors.New("boom")
					}
					return nil
				},
			})
		}

		res, err := r.RunTasks(context.Background(), Batch{
			Units: units,
			Flag:  execution.NewCancelFlag(),
		})
		require.NoError(t, err)

		out := make([]string, 0, len(res.Outcomes))
		for _, o := range res.Outcomes {
			out = append(out, fmt.Sprintf("%s ok=%t", o.Unit, o.Succeeded()))
		}
		sort.Strings(out)
		return out
	}

	assert.Equal(t, collect(1), collect(8))
}

func TestRunner_SingleFailureDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, 2)

	units := make([]execution.WorkUnit, 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		units = append(units, &plainUnit{
			name: fmt.Sprintf("unit-%d", i),
			execFn: func(context.Context, *execution.CancelFlag) error {
				if i == 2 {
					return errors.New("unit exploded")
				}
				return nil
			},
		})
	}

	res, err := r.RunTasks(context.Background(), Batch{
		Units: units,
		Flag:  execution.NewCancelFlag(),
	})
	require.NoError(t, err)

	assert.Equal(t, execution.RunStatusCompleted, res.Status)
	succeeded, failed, _ := execution.CountOutcomes(res.Outcomes)
	assert.Equal(t, 4, succeeded)
	assert.Equal(t, 1, failed)
}

func TestRunner_PanicIsRecoveredPerUnit(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, 2)

	units := []execution.WorkUnit{
		&plainUnit{name: "healthy"},
		&plainUnit{name: "panicky", execFn: func(context.Context, *execution.CancelFlag) error {
			panic("unexpected geometry")
		}},
	}

	res, err := r.RunTasks(context.Background(), Batch{
		Units: units,
		Flag:  execution.NewCancelFlag(),
	})
	require.NoError(t, err)

	assert.Equal(t, execution.RunStatusCompleted, res.Status)
	require.Len(t, res.Outcomes, 2)
	for _, o := range res.Outcomes {
		if o.Unit == "panicky" {
			require.Error(t, o.Err)
			assert.Contains(t, o.Err.Error(), "work unit panic")
		} else {
			assert.NoError(t, o.Err)
		}
	}
}

func TestRunner_EmptyBatch(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, 2)

	// Operand-bound contracts reject an empty batch outright.
	res, err := r.RunTasks(context.Background(), Batch{
		Flag:         execution.NewCancelFlag(),
		RequireUnits: true,
	})
	assert.ErrorIs(t, err, ErrEmptyBatch)
	assert.Equal(t, execution.RunStatusFailed, res.Status)

	// Parameter-only operations transition straight to Completed.
	res, err = r.RunTasks(context.Background(), Batch{Flag: execution.NewCancelFlag()})
	require.NoError(t, err)
	assert.Equal(t, execution.RunStatusCompleted, res.Status)
	assert.Empty(t, res.Outcomes)
}

func TestRunner_CancellationIsDistinctFromFailure(t *testing.T) {
	t.Parallel()

	// One worker makes ordering deterministic: the first unit cancels the
	// flag, so the remaining units are skipped at their pre-start check.
	r := newTestRunner(t, 1)
	flag := execution.NewCancelFlag()

	units := []execution.WorkUnit{
		&plainUnit{name: "canceller", execFn: func(_ context.Context, f *execution.CancelFlag) error {
			f.Cancel()
			return nil
		}},
		&plainUnit{name: "skipped-1"},
		&plainUnit{name: "skipped-2"},
	}

	res, err := r.RunTasks(context.Background(), Batch{Units: units, Flag: flag})
	require.NoError(t, err)

	assert.Equal(t, execution.RunStatusCancelled, res.Status,
		"a set flag at drain time must yield Cancelled, never Completed")

	succeeded, failed, cancelled := execution.CountOutcomes(res.Outcomes)
	assert.Equal(t, 1, succeeded, "the unit that completed before cancelling still counts")
	assert.Zero(t, failed)
	assert.Equal(t, 2, cancelled)
}

func TestRunner_PostProcessRunsOnceAfterBarrier(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, 4)

	var completed atomic.Int32
	var observedAtPost atomic.Int32

	units := make([]execution.WorkUnit, 0, 8)
	var ppUnit *testUnit
	for i := 0; i < 8; i++ {
		u := &testUnit{
			name: fmt.Sprintf("unit-%d", i),
			execFn: func(context.Context, *execution.CancelFlag) error {
				completed.Add(1)
				return nil
			},
		}
		if i == 0 {
			u.postFn = func(context.Context) error {
				observedAtPost.Store(completed.Load())
				return nil
			}
			ppUnit = u
		}
		units = append(units, u)
	}

	res, err := r.RunTasks(context.Background(), Batch{
		Units: units,
		Flag:  execution.NewCancelFlag(),
	})
	require.NoError(t, err)

	assert.Equal(t, execution.RunStatusCompleted, res.Status)
	assert.Equal(t, int32(8), observedAtPost.Load(),
		"post-processing must only start after every unit returned")

	// Each implementing unit's hook runs exactly once.
	assert.Equal(t, int32(1), ppUnit.ranPost.Load())
	for _, u := range units {
		tu := u.(*testUnit)
		assert.Equal(t, int32(1), tu.ranPost.Load())
	}
}

func TestRunner_PostProcessFailureDoesNotFailUnits(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, 2)

	u := &testUnit{
		name:   "aggregator",
		postFn: func(context.Context) error { return errors.New("summary recompute failed") },
	}

	res, err := r.RunTasks(context.Background(), Batch{
		Units: []execution.WorkUnit{u},
		Flag:  execution.NewCancelFlag(),
	})
	require.NoError(t, err)

	assert.Equal(t, execution.RunStatusCompleted, res.Status)
	require.Len(t, res.PostProcessErrs, 1)

	succeeded, failed, _ := execution.CountOutcomes(res.Outcomes)
	assert.Equal(t, 1, succeeded)
	assert.Zero(t, failed)
}

func TestRunner_DeadContextFatalToSubmission(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, 1)

	ctx, cancel := context.WithCancel(context.Background())

	// The first unit cancels the invoking context and then holds the only
	// worker long enough for the submission loop to observe the dead
	// context, so later submissions have nowhere to go.
	release := make(chan struct{})
	go func() {
		<-ctx.Done()
		time.Sleep(100 * time.Millisecond)
		close(release)
	}()

	units := make([]execution.WorkUnit, 0, 4)
	units = append(units, &plainUnit{name: "blocker", execFn: func(context.Context, *execution.CancelFlag) error {
		cancel()
		<-release
		return nil
	}})
	for i := 1; i < 4; i++ {
		units = append(units, &plainUnit{name: fmt.Sprintf("unit-%d", i)})
	}

	res, err := r.RunTasks(ctx, Batch{Units: units, Flag: execution.NewCancelFlag()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, execution.RunStatusFailed, res.Status)
}
