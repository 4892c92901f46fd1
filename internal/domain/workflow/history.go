package workflow

import "sync"

// History is the ordered, append-only log of executed operations for one
// analysis session. Append is the only mutator and the orchestration layer is
// the sole writer; entries are never removed or reordered during normal
// operation.
type History struct {
	mu    sync.RWMutex
	steps []*Step
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds a step to the end of the history.
func (h *History) Append(step *Step) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steps = append(h.steps, step)
}

// LastStep returns the most recently appended step, or nil if the history is
// empty. Callers compare the returned pointer across a run to detect whether
// the tail changed.
func (h *History) LastStep() *Step {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.steps) == 0 {
		return nil
	}
	return h.steps[len(h.steps)-1]
}

// Len returns the number of recorded steps.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.steps)
}

// Steps returns a copy of the recorded steps in append order.
func (h *History) Steps() []*Step {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Step, len(h.steps))
	copy(out, h.steps)
	return out
}
