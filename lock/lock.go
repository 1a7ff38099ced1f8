// Package lock provides the per-(user, date) exclusion used by settlement.
// It is advisory: the daily_earnings guard index is what finally rejects a
// duplicate posting.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker hands out exclusive, expiring locks keyed by string.
type Locker interface {
	// TryLock does not wait. The returned release func is safe to call
	// more than once.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Memory is an in-process Locker for single-node deployments and tests.
type Memory struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewMemory() *Memory {
	return &Memory{held: map[string]time.Time{}, clock: time.Now}
}

func (m *Memory) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if exp, ok := m.held[key]; ok && now.Before(exp) {
		return nil, ErrNotAcquired
	}
	exp := now.Add(ttl)
	m.held[key] = exp

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			// an expired lock may have been taken over by someone else
			if cur, ok := m.held[key]; ok && cur.Equal(exp) {
				delete(m.held, key)
			}
		})
	}, nil
}
