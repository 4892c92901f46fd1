package execution

import "sync/atomic"

// CancelFlag is the shared cancellation signal for one invocation: one
// external writer, many unit readers. Cancellation is cooperative; units
// observe the flag at safe points of their own choosing, and effects already
// applied are not rolled back. The flag is reset before the next invocation
// by constructing a fresh one.
type CancelFlag struct {
	set atomic.Bool
}

// NewCancelFlag creates an unset flag.
func NewCancelFlag() *CancelFlag { return &CancelFlag{} }

// Cancel sets the flag. Safe to call from any goroutine, more than once.
func (f *CancelFlag) Cancel() { f.set.Store(true) }

// IsCancelled reports whether the flag has been set.
func (f *CancelFlag) IsCancelled() bool { return f.set.Load() }
