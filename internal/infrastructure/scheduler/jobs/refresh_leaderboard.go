package jobs

import (
	"context"
	"fmt"

	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
)

// SnapshotInvalidator drops cached leaderboard snapshots.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context) error
}

// RefreshLeaderboardJob drops cached snapshots and warms the default one.
type RefreshLeaderboardJob struct {
	cache SnapshotInvalidator
	warm  func(ctx context.Context) error
	log   *logger.Logger
}

// NewRefreshLeaderboardJob creates the job. warm may be nil.
func NewRefreshLeaderboardJob(cache SnapshotInvalidator, warm func(ctx context.Context) error, log *logger.Logger) *RefreshLeaderboardJob {
	if log == nil {
		log = logger.Nop()
	}
	return &RefreshLeaderboardJob{cache: cache, warm: warm, log: log}
}

func (j *RefreshLeaderboardJob) Name() string        { return "refresh_leaderboard" }
func (j *RefreshLeaderboardJob) Description() string { return "Rebuilds the cached leaderboard snapshot" }

func (j *RefreshLeaderboardJob) Run(ctx context.Context) error {
	if err := j.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate leaderboard cache: %w", err)
	}
	if j.warm == nil {
		return nil
	}
	if err := j.warm(ctx); err != nil {
		return fmt.Errorf("warm leaderboard cache: %w", err)
	}
	j.log.Debug("leaderboard snapshot refreshed")
	return nil
}
