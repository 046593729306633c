package executor

import (
	"sync"
	"time"
)

// symbolLocks serializes executions per instrument. Each symbol gets a
// buffered channel of size one acting as a semaphore; acquire waits a
// bounded time and reports failure instead of queueing indefinitely.
type symbolLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newSymbolLocks() *symbolLocks {
	return &symbolLocks{locks: make(map[string]chan struct{})}
}

func (s *symbolLocks) lock(symbol string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.locks[symbol]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[symbol] = ch
	}
	return ch
}

// acquire takes the lock for symbol, waiting at most wait. It reports
// whether the lock was obtained.
func (s *symbolLocks) acquire(symbol string, wait time.Duration) bool {
	ch := s.lock(symbol)

	select {
	case ch <- struct{}{}:
		return true
	default:
	}

	if wait <= 0 {
		return false
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

func (s *symbolLocks) release(symbol string) {
	<-s.lock(symbol)
}
