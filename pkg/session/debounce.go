package session

import (
	"sync"
	"time"
)

// Debouncer is the post-roll timer: a single outstanding cancelable
// delayed action. Schedule replaces any previous action; Cancel is a
// no-op when nothing is scheduled.
//
// Each schedule gets a generation number that is passed to the callback.
// A callback that races Cancel or a replacement can still fire, so the
// consumer must compare the delivered generation against the one it got
// from Schedule before acting; a stale generation is a no-op.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates an idle debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{}
}

// Schedule arms the timer, replacing any previously scheduled action, and
// returns the generation the callback will carry.
func (d *Debouncer) Schedule(delay time.Duration, fn func(gen uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(delay, func() { fn(gen) })
	return gen
}

// Cancel stops the pending action. Any callback already in flight carries
// a now-stale generation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Current returns the latest generation. A callback generation below this
// value is stale.
func (d *Debouncer) Current() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}
