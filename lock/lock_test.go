package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExclusive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	release, err := m.TryLock(ctx, "settle:1:2026-01-02", time.Minute)
	require.NoError(t, err)

	_, err = m.TryLock(ctx, "settle:1:2026-01-02", time.Minute)
	require.ErrorIs(t, err, ErrNotAcquired)

	_, err = m.TryLock(ctx, "settle:2:2026-01-02", time.Minute)
	require.NoError(t, err, "different keys must not contend")

	release()
	release()

	again, err := m.TryLock(ctx, "settle:1:2026-01-02", time.Minute)
	require.NoError(t, err)
	again()
}

func TestMemoryExpiredLockIsTakenOver(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.clock = func() time.Time { return now }

	stale, err := m.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := m.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)

	// the stale holder must not free the new owner's lock
	stale()
	_, err = m.TryLock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)
	fresh()
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().TryLock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
