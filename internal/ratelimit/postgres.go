package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rasaeel/rasaeel/internal/db/sqlc"
)

type rateLimitQueries interface {
	IncrementRateLimit(ctx context.Context, arg sqlc.IncrementRateLimitParams) (int32, error)
	DeleteRateLimitsBefore(ctx context.Context, windowStart pgtype.Timestamptz) (int64, error)
}

// PostgresLimiter counts requests per fixed hourly window in the
// rate_limits table, shared by every instance.
type PostgresLimiter struct {
	queries rateLimitQueries
	now     func() time.Time
}

func NewPostgresLimiter(queries rateLimitQueries) *PostgresLimiter {
	return &PostgresLimiter{queries: queries, now: time.Now}
}

func (p *PostgresLimiter) Allow(ctx context.Context, key Key) (Decision, error) {
	limit := key.limit()
	now := p.now().UTC()
	window := now.Truncate(Window)
	count, err := p.queries.IncrementRateLimit(ctx, sqlc.IncrementRateLimitParams{
		Principal:   key.Principal,
		Endpoint:    string(key.Class),
		WindowStart: pgtype.Timestamptz{Time: window, Valid: true},
	})
	if err != nil {
		return Decision{}, fmt.Errorf("increment rate limit: %w", err)
	}
	if int(count) > limit {
		return Decision{Allowed: false, Limit: limit, RetryAfter: window.Add(Window).Sub(now)}, nil
	}
	return Decision{Allowed: true, Limit: limit, Remaining: limit - int(count)}, nil
}

func (p *PostgresLimiter) Prune(ctx context.Context, before time.Time) (int64, error) {
	return p.queries.DeleteRateLimitsBefore(ctx, pgtype.Timestamptz{Time: before.UTC(), Valid: true})
}
