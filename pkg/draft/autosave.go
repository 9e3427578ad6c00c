package draft

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period after the last edit before a draft is
// written.
const DefaultDelay = time.Second

// Autosaver debounces draft writes for one form. Every Schedule restarts the
// quiet period; only the latest values are written.
type Autosaver struct {
	drafts *Drafts
	formID string
	delay  time.Duration
	onSave func(map[string]any)

	// saveMu is held across a write so Cancel and Stop return only once
	// no write can land after them. Acquired before mu.
	saveMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]any
	gen     uint64
	stopped bool
}

// AutosaveOption configures an Autosaver.
type AutosaveOption func(*Autosaver)

// WithDelay overrides DefaultDelay.
func WithDelay(delay time.Duration) AutosaveOption {
	return func(a *Autosaver) {
		if delay > 0 {
			a.delay = delay
		}
	}
}

// WithSaveHook is invoked after each write attempt with the values written.
func WithSaveHook(fn func(map[string]any)) AutosaveOption {
	return func(a *Autosaver) {
		a.onSave = fn
	}
}

// NewAutosaver binds drafts to a form id.
func NewAutosaver(drafts *Drafts, formID string, opts ...AutosaveOption) *Autosaver {
	a := &Autosaver{drafts: drafts, formID: formID, delay: DefaultDelay}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Schedule queues values to be written once no further Schedule call arrives
// within the delay.
func (a *Autosaver) Schedule(values map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending = values
	a.gen++
	gen := a.gen
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, func() { a.fire(gen) })
}

// Pending reports whether a write is queued.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Flush writes queued values immediately.
func (a *Autosaver) Flush() {
	a.saveMu.Lock()
	a.mu.Lock()
	values := a.take()
	a.mu.Unlock()
	a.write(values)
}

// Cancel drops queued values without writing them. A write already under
// way finishes before Cancel returns.
func (a *Autosaver) Cancel() {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.take()
}

// Stop cancels queued work; later Schedule calls are ignored.
func (a *Autosaver) Stop() {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.take()
	a.stopped = true
}

func (a *Autosaver) fire(gen uint64) {
	a.saveMu.Lock()
	a.mu.Lock()
	if gen != a.gen || a.stopped {
		a.mu.Unlock()
		a.saveMu.Unlock()
		return
	}
	values := a.take()
	a.mu.Unlock()
	a.write(values)
}

// take must be called with mu held.
func (a *Autosaver) take() map[string]any {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
	values := a.pending
	a.pending = nil
	return values
}

// write must be called with saveMu held and releases it before the hook
// runs.
func (a *Autosaver) write(values map[string]any) {
	if values == nil {
		a.saveMu.Unlock()
		return
	}
	a.drafts.Save(a.formID, values)
	a.saveMu.Unlock()
	if a.onSave != nil {
		a.onSave(values)
	}
}
