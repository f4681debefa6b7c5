package event

import (
	"sync/atomic"
)

// SubscriptionState represents the lifecycle state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionActive means the subscription is receiving values.
	SubscriptionActive SubscriptionState = iota

	// SubscriptionCancelled means the subscription has been permanently cancelled.
	SubscriptionCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionActive:
		return "active"
	case SubscriptionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Subscription represents an active registration with an Emitter.
// Cancelling a subscription stops delivery permanently; values already
// executing in the handler run to completion.
type Subscription[T any] struct {
	id    string
	fn    Handler[T]
	queue chan T
	done  chan struct{}
	state atomic.Int32
	unsub func()
}

// ID returns the unique subscription identifier.
func (s *Subscription[T]) ID() string {
	return s.id
}

// State returns the current subscription state.
func (s *Subscription[T]) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// Active returns true if the subscription can receive values.
func (s *Subscription[T]) Active() bool {
	return s.State() == SubscriptionActive
}

// Cancel permanently stops delivery to this subscription and removes it
// from its emitter. Cancel is idempotent and safe to call from any
// goroutine, including the handler itself.
func (s *Subscription[T]) Cancel() {
	if !s.state.CompareAndSwap(int32(SubscriptionActive), int32(SubscriptionCancelled)) {
		return
	}
	close(s.done)
	if s.unsub != nil {
		s.unsub()
	}
}

// dispatch drains the queue until the subscription is cancelled.
func (s *Subscription[T]) dispatch() {
	for {
		select {
		case <-s.done:
			return
		case v := <-s.queue:
			if !s.Active() {
				return
			}
			s.fn(v)
		}
	}
}
