package git

import (
	"context"
	"sync"
)

// serializer orders operations against one working copy: any number of
// concurrent readers, writers exclusive. Writers are preferred; once
// one is waiting, new readers queue behind it, so a stream of queries
// cannot starve a mutation. Acquisition is context-aware, so a caller
// abandoning an operation also abandons its place in line.
//
// sync.RWMutex cannot serve here: a goroutine blocked in RLock/Lock
// cannot be cancelled.
type serializer struct {
	mu             sync.Mutex
	readers        int
	writing        bool
	pendingWriters int
	// turn is closed and replaced on every release, waking all
	// waiters to re-check their predicate.
	turn chan struct{}
}

func newSerializer() *serializer {
	return &serializer{turn: make(chan struct{})}
}

// acquireRead blocks until no writer holds or awaits the slot.
func (s *serializer) acquireRead(ctx context.Context) error {
	s.mu.Lock()
	for s.writing || s.pendingWriters > 0 {
		turn := s.turn
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-turn:
		}
		s.mu.Lock()
	}
	s.readers++
	s.mu.Unlock()
	return nil
}

func (s *serializer) releaseRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readers == 0 {
		panic("git: releaseRead of unheld serializer")
	}
	s.readers--
	s.advance()
}

// acquireWrite blocks until the slot is exclusive.
func (s *serializer) acquireWrite(ctx context.Context) error {
	s.mu.Lock()
	s.pendingWriters++
	for s.writing || s.readers > 0 {
		turn := s.turn
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.pendingWriters--
			// Readers held back by this writer can go again.
			s.advance()
			s.mu.Unlock()
			return ctx.Err()
		case <-turn:
		}
		s.mu.Lock()
	}
	s.pendingWriters--
	s.writing = true
	s.mu.Unlock()
	return nil
}

func (s *serializer) releaseWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.writing {
		panic("git: releaseWrite of unheld serializer")
	}
	s.writing = false
	s.advance()
}

// advance wakes every waiter. Callers hold mu.
func (s *serializer) advance() {
	close(s.turn)
	s.turn = make(chan struct{})
}
