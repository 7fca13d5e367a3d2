package dbchecker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasaeel/rasaeel/internal/healthcheck"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestChecker(t *testing.T) {
	t.Parallel()

	ok := NewChecker(nil, pingerFunc(func(context.Context) error { return nil })).ListChecks(context.Background())
	require.Len(t, ok, 1)
	assert.Equal(t, healthcheck.StatusOK, ok[0].Status)
	assert.Contains(t, ok[0].Metadata, "latency_ms")

	down := NewChecker(nil, pingerFunc(func(context.Context) error { return errors.New("connection refused") })).ListChecks(context.Background())
	require.Len(t, down, 1)
	assert.Equal(t, healthcheck.StatusError, down[0].Status)
	assert.Equal(t, "connection refused", down[0].Detail)

	missing := NewChecker(nil, nil).ListChecks(context.Background())
	assert.Equal(t, healthcheck.StatusError, missing[0].Status)
}
