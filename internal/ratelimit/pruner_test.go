package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	before time.Time
	err    error
}

func (f *fakePruner) Prune(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return 4, f.err
}

func TestSchedulerRunOnce(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := &fakePruner{}
	s := NewScheduler(nil, p)
	s.now = func() time.Time { return now }

	assert.Equal(t, int64(4), s.RunOnce(context.Background()))
	assert.Equal(t, now.Add(-2*time.Hour), p.before)

	p.err = errors.New("boom")
	assert.Equal(t, int64(0), s.RunOnce(context.Background()))
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()
	s := NewScheduler(nil, &fakePruner{})
	require.Error(t, s.Start("not a schedule"))

	s = NewScheduler(nil, &fakePruner{})
	require.NoError(t, s.Start(""))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	idle := NewScheduler(nil, nil)
	require.NoError(t, idle.Start(""))
	assert.Equal(t, int64(0), idle.RunOnce(context.Background()))
}
