package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory. It is
// meant for development and single-instance deployments.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[Key]*visitor
	now      func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[Key]*visitor),
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Allow(ctx context.Context, key Key) (Decision, error) {
	limit := key.limit()
	now := m.now()

	m.mu.Lock()
	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(Window/time.Duration(limit)), limit)}
		m.visitors[key] = v
	}
	v.lastSeen = now
	m.mu.Unlock()

	if v.limiter.AllowN(now, 1) {
		return Decision{Allowed: true, Limit: limit, Remaining: int(v.limiter.TokensAt(now))}, nil
	}
	r := v.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return Decision{Allowed: false, Limit: limit, RetryAfter: delay}, nil
}

// Prune removes buckets idle since before.
func (m *MemoryLimiter) Prune(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, v := range m.visitors {
		if v.lastSeen.Before(before) {
			delete(m.visitors, key)
			n++
		}
	}
	return n, nil
}
