package event

import (
	"errors"
	"testing"
	"time"
)

func waitRecv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		panic("unreachable")
	}
}

func TestEmitterDeliversInOrder(t *testing.T) {
	em := NewEmitter[int]()
	defer em.Close()

	got := make(chan int, 8)
	if _, err := em.Subscribe(func(v int) { got <- v }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	for i := 1; i <= 3; i++ {
		em.Emit(i)
	}

	for i := 1; i <= 3; i++ {
		if v := waitRecv(t, got); v != i {
			t.Errorf("expected %d, got %d", i, v)
		}
	}

	if stats := em.Stats(); stats.Emitted != 3 {
		t.Errorf("expected 3 emitted, got %d", stats.Emitted)
	}
}

func TestEmitterMultipleSubscribers(t *testing.T) {
	em := NewEmitter[string]()
	defer em.Close()

	first := make(chan string, 1)
	second := make(chan string, 1)
	if _, err := em.Subscribe(func(v string) { first <- v }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := em.Subscribe(func(v string) { second <- v }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	em.Emit("hello")

	if v := waitRecv(t, first); v != "hello" {
		t.Errorf("expected hello, got %q", v)
	}
	if v := waitRecv(t, second); v != "hello" {
		t.Errorf("expected hello, got %q", v)
	}
}

func TestEmitterNilHandler(t *testing.T) {
	em := NewEmitter[int]()
	defer em.Close()

	if _, err := em.Subscribe(nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("expected ErrNilHandler, got %v", err)
	}
}

func TestEmitterSubscribeAfterClose(t *testing.T) {
	em := NewEmitter[int]()
	em.Close()

	if _, err := em.Subscribe(func(int) {}); !errors.Is(err, ErrEmitterClosed) {
		t.Errorf("expected ErrEmitterClosed, got %v", err)
	}

	// Emit after close is a silent no-op.
	em.Emit(1)
}

func TestSubscriptionCancel(t *testing.T) {
	em := NewEmitter[int]()
	defer em.Close()

	got := make(chan int, 8)
	sub, err := em.Subscribe(func(v int) { got <- v })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	em.Emit(1)
	if v := waitRecv(t, got); v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}

	sub.Cancel()
	sub.Cancel() // idempotent

	if sub.State() != SubscriptionCancelled {
		t.Errorf("expected cancelled state, got %v", sub.State())
	}
	if stats := em.Stats(); stats.Subscribers != 0 {
		t.Errorf("expected 0 subscribers, got %d", stats.Subscribers)
	}

	em.Emit(2)
	select {
	case v := <-got:
		t.Errorf("expected no delivery after cancel, got %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmitterDropsOldestWhenLagging(t *testing.T) {
	em := NewEmitter[int](WithQueueSize(1))
	defer em.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	got := make(chan int, 8)
	if _, err := em.Subscribe(func(v int) {
		if v == 1 {
			close(started)
			<-release
		}
		got <- v
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	em.Emit(1)
	<-started
	em.Emit(2) // queued
	em.Emit(3) // queue full: 2 is discarded
	close(release)

	if v := waitRecv(t, got); v != 1 {
		t.Errorf("expected 1, got %d", v)
	}
	if v := waitRecv(t, got); v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
	if stats := em.Stats(); stats.Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", stats.Dropped)
	}
}

func TestSubscriptionStateString(t *testing.T) {
	tests := []struct {
		state SubscriptionState
		want  string
	}{
		{SubscriptionActive, "active"},
		{SubscriptionCancelled, "cancelled"},
		{SubscriptionState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d): expected %q, got %q", int32(tt.state), tt.want, got)
		}
	}
}
