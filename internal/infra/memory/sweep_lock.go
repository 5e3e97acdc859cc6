package memory

import (
	"context"
	"sync"
	"time"
)

// SweepLock is a process-local lock for single-instance deployments.
type SweepLock struct {
	mu sync.Mutex
}

func NewSweepLock() *SweepLock {
	return &SweepLock{}
}

// TryAcquire never blocks; the ttl is ignored since the holder always releases.
func (l *SweepLock) TryAcquire(_ context.Context, _ time.Duration) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}
