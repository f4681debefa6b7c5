package event

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Handler receives values delivered by an Emitter.
type Handler[T any] func(T)

// defaultQueueSize is the per-subscriber queue capacity when unset.
const defaultQueueSize = 16

// Option configures an Emitter.
type Option func(*settings)

type settings struct {
	queueSize int
	logger    *log.Logger
}

// WithQueueSize sets the per-subscriber queue capacity.
// Values below 1 are ignored.
func WithQueueSize(n int) Option {
	return func(s *settings) {
		if n >= 1 {
			s.queueSize = n
		}
	}
}

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Emitter delivers values of type T to registered subscribers.
//
// Values are enqueued to subscribers in registration order; each
// subscriber runs its handler on a dedicated goroutine in FIFO order.
// Emit never blocks on a slow subscriber: when a subscriber's queue is
// full the oldest queued value is discarded to make room for the
// newest.
//
// Emitter is safe for concurrent use.
type Emitter[T any] struct {
	mu     sync.Mutex
	subs   []*Subscription[T]
	closed bool

	queueSize int
	logger    *log.Logger

	emitted atomic.Uint64
	dropped atomic.Uint64
}

// Stats reports emitter activity counters.
type Stats struct {
	Subscribers int
	Emitted     uint64
	Dropped     uint64
}

// NewEmitter creates an emitter with the given options.
func NewEmitter[T any](opts ...Option) *Emitter[T] {
	s := settings{
		queueSize: defaultQueueSize,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Emitter[T]{
		queueSize: s.queueSize,
		logger:    s.logger,
	}
}

// Subscribe registers a handler and starts its delivery goroutine.
//
// Returns ErrNilHandler for a nil handler and ErrEmitterClosed after
// Close.
func (e *Emitter[T]) Subscribe(fn Handler[T]) (*Subscription[T], error) {
	if fn == nil {
		return nil, ErrNilHandler
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEmitterClosed
	}

	sub := &Subscription[T]{
		id:    uuid.NewString(),
		fn:    fn,
		queue: make(chan T, e.queueSize),
		done:  make(chan struct{}),
	}
	sub.unsub = func() { e.remove(sub.id) }
	e.subs = append(e.subs, sub)

	go sub.dispatch()
	return sub, nil
}

// Emit enqueues v to every active subscriber in registration order.
// Emit on a closed emitter is a no-op.
func (e *Emitter[T]) Emit(v T) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	subs := make([]*Subscription[T], len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	e.emitted.Add(1)
	for _, sub := range subs {
		if !sub.Active() {
			continue
		}
		select {
		case sub.queue <- v:
			continue
		default:
		}

		// Queue full: discard the oldest value to make room.
		select {
		case <-sub.queue:
			e.dropped.Add(1)
			e.logger.Debug("subscriber lagging, dropped oldest value", "subscription", sub.id)
		default:
		}
		select {
		case sub.queue <- v:
		default:
			e.dropped.Add(1)
		}
	}
}

// Close cancels every subscription and rejects new ones.
// Close is idempotent.
func (e *Emitter[T]) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	subs := e.subs
	e.subs = nil
	e.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

// Stats returns activity counters for the emitter.
func (e *Emitter[T]) Stats() Stats {
	e.mu.Lock()
	n := len(e.subs)
	e.mu.Unlock()
	return Stats{
		Subscribers: n,
		Emitted:     e.emitted.Load(),
		Dropped:     e.dropped.Load(),
	}
}

// remove deletes a subscription from the registration list.
func (e *Emitter[T]) remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, sub := range e.subs {
		if sub.id == id {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			return
		}
	}
}
