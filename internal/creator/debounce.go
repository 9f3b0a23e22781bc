package creator

import (
	"sync"
	"time"
)

// Debouncer coalesces calls per key: only the last fn pushed within delay
// of the previous push runs.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*debounced
}

type debounced struct {
	timer *time.Timer
	fn    func()
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, pending: make(map[string]*debounced)}
}

// Push schedules fn for key, replacing anything already scheduled for it.
func (d *Debouncer) Push(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	p := &debounced{fn: fn}
	p.timer = time.AfterFunc(d.delay, func() { d.fire(key, p) })
	d.pending[key] = p
}

func (d *Debouncer) fire(key string, p *debounced) {
	d.mu.Lock()
	if d.pending[key] != p {
		// superseded after the timer already fired
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()
	p.fn()
}

// Cancel drops whatever is scheduled for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
}

// Flush runs everything scheduled now.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.pending))
	for key, p := range d.pending {
		if p.timer.Stop() {
			fns = append(fns, p.fn)
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
