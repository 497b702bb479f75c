package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

type countFunc func(ctx context.Context) (int, error)

func (f countFunc) Tick(ctx context.Context) (int, error)     { return f(ctx) }
func (f countFunc) FlushAll(ctx context.Context) (int, error) { return f(ctx) }

type pruneFunc func(ctx context.Context, now time.Time) (int, error)

func (f pruneFunc) PruneNotifications(ctx context.Context, now time.Time) (int, error) {
	return f(ctx, now)
}

type invalidateFunc func(ctx context.Context) error

func (f invalidateFunc) Invalidate(ctx context.Context) error { return f(ctx) }

func TestReminderTickJob(t *testing.T) {
	job := NewReminderTickJob(countFunc(func(context.Context) (int, error) { return 2, nil }), nil)
	assert.Equal(t, "reminder_tick", job.Name())

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int64(4), job.Fired())
}

func TestFlushPendingJob_WrapsErrors(t *testing.T) {
	boom := errors.New("store down")
	job := NewFlushPendingJob(countFunc(func(context.Context) (int, error) { return 1, boom }), nil)

	err := job.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "flush_pending", job.Name())
}

func TestNotificationRetentionJob_UsesClock(t *testing.T) {
	at := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	var got time.Time
	job := NewNotificationRetentionJob(pruneFunc(func(_ context.Context, now time.Time) (int, error) {
		got = now
		return 3, nil
	}), timeutil.NewManualClock(at), nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, at, got)
	assert.Equal(t, "notification_retention", job.Name())
}

func TestRefreshLeaderboardJob(t *testing.T) {
	var steps []string
	job := NewRefreshLeaderboardJob(
		invalidateFunc(func(context.Context) error { steps = append(steps, "invalidate"); return nil }),
		func(context.Context) error { steps = append(steps, "warm"); return nil },
		nil,
	)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"invalidate", "warm"}, steps)

	failing := NewRefreshLeaderboardJob(
		invalidateFunc(func(context.Context) error { return errors.New("redis down") }),
		func(context.Context) error { t.Fatal("warm must not run"); return nil },
		nil,
	)
	assert.Error(t, failing.Run(context.Background()))
}
