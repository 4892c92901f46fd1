package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatus_ValidateTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    RunStatus
		to      RunStatus
		wantErr bool
	}{
		{name: "idle to dispatching", from: RunStatusIdle, to: RunStatusDispatching},
		{name: "idle straight to completed for empty batch", from: RunStatusIdle, to: RunStatusCompleted},
		{name: "idle to failed", from: RunStatusIdle, to: RunStatusFailed},
		{name: "dispatching to running", from: RunStatusDispatching, to: RunStatusRunning},
		{name: "dispatching to failed on pool exhaustion", from: RunStatusDispatching, to: RunStatusFailed},
		{name: "running to draining", from: RunStatusRunning, to: RunStatusDraining},
		{name: "draining to completed", from: RunStatusDraining, to: RunStatusCompleted},
		{name: "draining to cancelled", from: RunStatusDraining, to: RunStatusCancelled},
		{name: "draining to failed", from: RunStatusDraining, to: RunStatusFailed},
		{name: "idle cannot skip to running", from: RunStatusIdle, to: RunStatusRunning, wantErr: true},
		{name: "running cannot complete without draining", from: RunStatusRunning, to: RunStatusCompleted, wantErr: true},
		{name: "running cannot cancel without draining", from: RunStatusRunning, to: RunStatusCancelled, wantErr: true},
		{name: "completed is terminal", from: RunStatusCompleted, to: RunStatusDispatching, wantErr: true},
		{name: "cancelled is terminal", from: RunStatusCancelled, to: RunStatusRunning, wantErr: true},
		{name: "failed is terminal", from: RunStatusFailed, to: RunStatusIdle, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.from.ValidateTransition(tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRunStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, RunStatusCompleted.IsTerminal())
	assert.True(t, RunStatusCancelled.IsTerminal())
	assert.True(t, RunStatusFailed.IsTerminal())
	assert.False(t, RunStatusIdle.IsTerminal())
	assert.False(t, RunStatusDraining.IsTerminal())
}

func TestCountOutcomes(t *testing.T) {
	t.Parallel()

	outcomes := []Outcome{
		{Unit: "u1"},
		{Unit: "u2", Err: assert.AnError},
		{Unit: "u3", Cancelled: true},
		{Unit: "u4"},
	}

	succeeded, failed, cancelled := CountOutcomes(outcomes)
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, cancelled)

	assert.True(t, outcomes[0].Succeeded())
	assert.False(t, outcomes[1].Succeeded())
	assert.False(t, outcomes[2].Succeeded())
}

type fakeTimeProvider struct {
	now time.Time
}

func (f *fakeTimeProvider) Now() time.Time { return f.now }

func TestTimeline(t *testing.T) {
	t.Parallel()

	tp := &fakeTimeProvider{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tl := NewTimeline(tp)
	require.False(t, tl.IsCompleted())

	tp.now = tp.now.Add(3 * time.Second)
	tl.MarkCompleted()

	assert.True(t, tl.IsCompleted())
	assert.Equal(t, 3*time.Second, tl.Duration())
}

func TestCancelFlag(t *testing.T) {
	t.Parallel()

	f := NewCancelFlag()
	assert.False(t, f.IsCancelled())

	f.Cancel()
	f.Cancel() // setting twice is fine
	assert.True(t, f.IsCancelled())
}
