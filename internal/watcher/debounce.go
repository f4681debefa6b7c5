package watcher

import (
	"sync"
	"time"
)

// Debounced wraps a Watcher and coalesces rapid changes to the same
// path into one event. Operations observed within the window are
// merged into a combined Op bitmask.
type Debounced struct {
	inner Watcher
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	closed  bool

	events  chan Event
	errs    chan error
	closeCh chan struct{}
	loopWg  sync.WaitGroup
}

// pendingEvent tracks a path inside its debounce window.
type pendingEvent struct {
	event Event
	ops   Op
	timer *time.Timer
}

// NewDebounced creates a debouncing wrapper around inner.
// A non-positive delay falls back to the default window.
func NewDebounced(inner Watcher, delay time.Duration) *Debounced {
	if delay <= 0 {
		delay = DefaultConfig().DebounceDelay
	}

	d := &Debounced{
		inner:   inner,
		delay:   delay,
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, 100),
		errs:    make(chan error, 100),
		closeCh: make(chan struct{}),
	}

	d.loopWg.Add(1)
	go d.processLoop()

	return d
}

// Watch starts watching a path.
func (d *Debounced) Watch(path string) error {
	return d.inner.Watch(path)
}

// WatchRecursive starts watching a directory tree.
func (d *Debounced) WatchRecursive(path string) error {
	return d.inner.WatchRecursive(path)
}

// Unwatch stops watching a path.
func (d *Debounced) Unwatch(path string) error {
	return d.inner.Unwatch(path)
}

// IsWatching reports whether the path is registered with the inner
// watcher.
func (d *Debounced) IsWatching(path string) bool {
	return d.inner.IsWatching(path)
}

// Events returns the debounced event channel.
func (d *Debounced) Events() <-chan Event {
	return d.events
}

// Errors returns the error channel.
func (d *Debounced) Errors() <-chan error {
	return d.errs
}

// Close stops the wrapper and the inner watcher.
func (d *Debounced) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, p := range d.pending {
		p.timer.Stop()
	}
	d.pending = nil
	d.mu.Unlock()

	close(d.closeCh)
	err := d.inner.Close()
	d.loopWg.Wait()
	close(d.events)
	close(d.errs)
	return err
}

// processLoop consumes the inner watcher until Close.
func (d *Debounced) processLoop() {
	defer d.loopWg.Done()

	for {
		select {
		case <-d.closeCh:
			return

		case ev, ok := <-d.inner.Events():
			if !ok {
				return
			}
			d.debounce(ev)

		case err, ok := <-d.inner.Errors():
			if !ok {
				return
			}
			select {
			case d.errs <- err:
			case <-d.closeCh:
			default:
			}
		}
	}
}

// debounce merges ev into its path's pending window, opening one if
// needed.
func (d *Debounced) debounce(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	if p, ok := d.pending[ev.Path]; ok {
		p.ops |= ev.Op
		p.event.Timestamp = ev.Timestamp
		p.timer.Reset(d.delay)
		return
	}

	p := &pendingEvent{event: ev, ops: ev.Op}
	p.timer = time.AfterFunc(d.delay, func() {
		d.fire(ev.Path)
	})
	d.pending[ev.Path] = p
}

// fire delivers the merged event for path after its window closes.
// The non-blocking send happens under the lock so Close can never
// close the channel while a send is in flight.
func (d *Debounced) fire(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[path]
	if !ok || d.closed {
		return
	}
	delete(d.pending, path)
	ev := p.event
	ev.Op = p.ops

	select {
	case d.events <- ev:
	default:
	}
}
