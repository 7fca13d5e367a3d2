package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterExhaustsBucket(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemoryLimiter()
	m.now = func() time.Time { return now }
	key := Key{Principal: "ip:1.2.3.4", Class: ClassAuth}

	for i := 0; i < 100; i++ {
		d, err := m.Allow(context.Background(), key)
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 100, d.Limit)
	}
	d, err := m.Allow(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.InDelta(t, 36*time.Second, d.RetryAfter, float64(time.Second))

	other, err := m.Allow(context.Background(), Key{Principal: "ip:5.6.7.8", Class: ClassAuth})
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestMemoryLimiterRefills(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemoryLimiter()
	m.now = func() time.Time { return now }
	key := Key{Principal: "ip:1.2.3.4", Class: ClassAuth}
	for i := 0; i < 100; i++ {
		_, _ = m.Allow(context.Background(), key)
	}
	now = now.Add(time.Minute)
	d, err := m.Allow(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterPrune(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemoryLimiter()
	m.now = func() time.Time { return now }
	_, _ = m.Allow(context.Background(), Key{Principal: "old", Class: ClassAPI})
	now = now.Add(3 * time.Hour)
	_, _ = m.Allow(context.Background(), Key{Principal: "new", Class: ClassAPI})

	n, err := m.Prune(context.Background(), now.Add(-Retention))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, m.visitors, 1)
}
