package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and consumes one bucket atomically.
// KEYS[1] = bucket key
// ARGV[1] = refill rate (tokens per second)
// ARGV[2] = capacity
// ARGV[3] = cost
// ARGV[4] = now (unix seconds, microsecond precision)
// ARGV[5] = ttl seconds
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local now = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    last_refill = now
end

local allowed = 0
if tokens >= cost then
    tokens = tokens - cost
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, ttl)

return {allowed, tostring(tokens)}
`)

// RedisLimiter shares token buckets between instances through Redis.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
}

// NewRedisClient builds the client used by RedisLimiter.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisLimiter(client redis.Scripter) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "ratelimit"}
}

func (r *RedisLimiter) Allow(ctx context.Context, key Key) (Decision, error) {
	limit := key.limit()
	perSecond := float64(limit) / Window.Seconds()
	now := float64(time.Now().UnixMicro()) / 1e6
	redisKey := fmt.Sprintf("%s:%s:%s", r.prefix, key.Class, key.Principal)

	res, err := tokenBucketScript.Run(ctx, r.client, []string{redisKey},
		perSecond, limit, 1, now, int(Window.Seconds())).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis limiter: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("redis limiter: unexpected script reply %v", res)
	}
	allowed, _ := res[0].(int64)
	var tokens float64
	if s, ok := res[1].(string); ok {
		_, _ = fmt.Sscan(s, &tokens)
	}
	if allowed == 1 {
		return Decision{Allowed: true, Limit: limit, Remaining: int(tokens)}, nil
	}
	wait := time.Duration(math.Ceil((1-tokens)/perSecond)) * time.Second
	return Decision{Allowed: false, Limit: limit, RetryAfter: wait}, nil
}
