// Package stop implements a stop request shared between a controlling
// goroutine and any number of workers. The controller calls Stop, which
// raises the request and blocks until every Token handed out has been
// released; workers poll StopRequested on their hot path.
package stop

import (
	"sync"
	"sync/atomic"
)

const stopBit = uint32(1) << 31

type EventSource struct {
	// stopBit | number of live tokens
	state atomic.Uint32

	mu   sync.Mutex
	cond *sync.Cond
}

func NewEventSource() *EventSource {
	s := &EventSource{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Token registers a new observer. A token taken after Stop was requested
// reports the request immediately.
func (s *EventSource) Token() *Token {
	s.state.Add(1)
	t := &Token{}
	t.src.Store(s)
	return t
}

func (s *EventSource) StopRequested() bool {
	return s.state.Load()&stopBit != 0
}

// Stop raises the stop request and waits until all tokens are released.
// Everything a token holder wrote before Release happens before Stop
// returns.
func (s *EventSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Or(stopBit)
	for s.state.Load()&^stopBit != 0 {
		s.cond.Wait()
	}
}

// Reset clears a previous stop request so the source can be reused.
func (s *EventSource) Reset() {
	s.mu.Lock()
	s.state.And(^stopBit)
	s.mu.Unlock()
}

func (s *EventSource) release() {
	if s.state.Add(^uint32(0))&^stopBit == 0 {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

type Token struct {
	src atomic.Pointer[EventSource]
}

func (t *Token) StopRequested() bool {
	s := t.src.Load()
	return s == nil || s.StopRequested()
}

// Release detaches the token. Calling it more than once is a no-op.
func (t *Token) Release() {
	if s := t.src.Swap(nil); s != nil {
		s.release()
	}
}
