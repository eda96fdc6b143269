package syncer

import (
	"sync"
	"time"
)

// DebounceWindow is how long a burst of database change notifications may
// grow before it collapses into one invalidation.
const DebounceWindow = 300 * time.Millisecond

// Debouncer coalesces rapid triggers into a single trailing call of fn.
type Debouncer struct {
	window time.Duration
	fn     func()

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Trigger arms (or re-arms) the window. fn runs once, after the window has
// been quiet.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
