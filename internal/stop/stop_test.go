package stop

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStopWithoutTokensReturns(t *testing.T) {
	t.Parallel()

	s := NewEventSource()
	s.Stop()
	if !s.StopRequested() {
		t.Fatal("StopRequested = false after Stop")
	}
}

func TestStopWaitsForRelease(t *testing.T) {
	t.Parallel()

	s := NewEventSource()
	tok := s.Token()

	var released atomic.Bool
	go func() {
		for !tok.StopRequested() {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(10 * time.Millisecond)
		released.Store(true)
		tok.Release()
	}()

	s.Stop()
	if !released.Load() {
		t.Fatal("Stop returned before the token was released")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewEventSource()
	a := s.Token()
	b := s.Token()
	a.Release()
	a.Release()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Stop returned while a token was still live")
	case <-time.After(20 * time.Millisecond):
	}

	b.Release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the last release")
	}
}

func TestTokenAfterStopSeesRequest(t *testing.T) {
	t.Parallel()

	s := NewEventSource()
	s.Stop()
	tok := s.Token()
	if !tok.StopRequested() {
		t.Fatal("token taken after Stop does not see the request")
	}
	tok.Release()
}

func TestResetRearms(t *testing.T) {
	t.Parallel()

	s := NewEventSource()
	s.Stop()
	s.Reset()
	tok := s.Token()
	if tok.StopRequested() {
		t.Fatal("StopRequested = true after Reset")
	}
	tok.Release()
}

func TestStopManyTokens(t *testing.T) {
	t.Parallel()

	s := NewEventSource()
	var counter atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		tok := s.Token()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !tok.StopRequested() {
				counter.Add(1)
				time.Sleep(100 * time.Microsecond)
			}
			tok.Release()
		}()
	}

	time.Sleep(5 * time.Millisecond)
	s.Stop()
	after := counter.Load()
	time.Sleep(5 * time.Millisecond)
	if counter.Load() != after {
		t.Fatal("workers kept running after Stop returned")
	}
	wg.Wait()
}
