package execution

import "time"

// TimeProvider is an interface that provides a Now method to get the current time.
type TimeProvider interface {
	Now() time.Time
}

// Real implementation for production.
type realTimeProvider struct{}

func (r *realTimeProvider) Now() time.Time { return time.Now() }

// NewRealTimeProvider returns a TimeProvider backed by the system clock.
func NewRealTimeProvider() TimeProvider { return &realTimeProvider{} }

// Timeline tracks temporal aspects of one plugin invocation.
type Timeline struct {
	startedAt    time.Time
	completedAt  time.Time
	timeProvider TimeProvider
}

// NewTimeline creates a new Timeline instance.
func NewTimeline(timeProvider TimeProvider) *Timeline {
	return &Timeline{
		startedAt:    timeProvider.Now(),
		timeProvider: timeProvider,
	}
}

// StartedAt returns the time the invocation started.
func (t *Timeline) StartedAt() time.Time { return t.startedAt }

// CompletedAt returns the time the invocation reached a terminal state.
func (t *Timeline) CompletedAt() time.Time { return t.completedAt }

// MarkCompleted records completion time.
func (t *Timeline) MarkCompleted() {
	t.completedAt = t.timeProvider.Now()
}

// Duration returns how long the invocation has been running, or its total
// runtime once completed.
func (t *Timeline) Duration() time.Duration {
	if t.completedAt.IsZero() {
		return t.timeProvider.Now().Sub(t.startedAt)
	}
	return t.completedAt.Sub(t.startedAt)
}

// IsCompleted checks if the timeline has been marked as completed.
func (t *Timeline) IsCompleted() bool { return !t.completedAt.IsZero() }
