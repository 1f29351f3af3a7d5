package refine

import "time"

// TimerHandle identifies one armed idle timer. Only the most recently armed
// handle can fire.
type TimerHandle uint64

// IdleTimer is a single-shot debounce timer. It does not own a clock: the
// caller schedules the returned handle (tea.Tick in the TUI) and reports it
// back through Fire.
type IdleTimer struct {
	delay   time.Duration
	seq     uint64
	pending bool
}

func NewIdleTimer(delay time.Duration) *IdleTimer {
	return &IdleTimer{delay: delay}
}

func (t *IdleTimer) Delay() time.Duration {
	return t.delay
}

// Arm invalidates any pending handle and returns a fresh one.
func (t *IdleTimer) Arm() TimerHandle {
	t.seq++
	t.pending = true
	return TimerHandle(t.seq)
}

// CancelAll invalidates the pending handle, if any.
func (t *IdleTimer) CancelAll() {
	if !t.pending {
		return
	}
	t.seq++
	t.pending = false
}

// Fire consumes h and reports whether it was still the live handle.
func (t *IdleTimer) Fire(h TimerHandle) bool {
	if !t.pending || uint64(h) != t.seq {
		return false
	}
	t.pending = false
	return true
}
