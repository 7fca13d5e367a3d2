// Package ratelimit enforces hourly request ceilings per principal and
// endpoint class.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Class groups endpoints that share a ceiling.
type Class string

const (
	ClassAuth    Class = "auth"
	ClassAI      Class = "ai"
	ClassAPI     Class = "api"
	ClassWebhook Class = "webhook"
	ClassUpload  Class = "upload"
)

// Window is the accounting period of every ceiling.
const Window = time.Hour

// HourlyLimits are the per-principal ceilings for each class.
var HourlyLimits = map[Class]int{
	ClassAuth:    100,
	ClassAI:      1000,
	ClassAPI:     5000,
	ClassWebhook: 10000,
	ClassUpload:  200,
}

// ClassForPath maps a request path to its class.
func ClassForPath(path string) Class {
	switch {
	case strings.HasPrefix(path, "/webhooks/"):
		return ClassWebhook
	case strings.HasPrefix(path, "/auth/"):
		return ClassAuth
	case strings.HasPrefix(path, "/api/pipeline/"):
		return ClassAI
	case strings.HasPrefix(path, "/api/uploads"):
		return ClassUpload
	default:
		return ClassAPI
	}
}

// Key identifies one bucket.
type Key struct {
	Principal string
	Class     Class
}

func (k Key) limit() int {
	if n, ok := HourlyLimits[k.Class]; ok {
		return n
	}
	return HourlyLimits[ClassAPI]
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter consumes one request from a bucket.
type Limiter interface {
	Allow(ctx context.Context, key Key) (Decision, error)
}

// Pruner drops accounting state older than before.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}
