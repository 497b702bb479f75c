// Package jobs contains the periodic jobs of LearnSphere.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER TICK
// ══════════════════════════════════════════════════════════════════════════════

// ReminderTicker delivers reminder ticks to open sessions.
type ReminderTicker interface {
	Tick(ctx context.Context) (int, error)
}

// ReminderTickJob fires due study-plan reminders.
type ReminderTickJob struct {
	ticker ReminderTicker
	log    *logger.Logger
	fired  atomic.Int64
}

func NewReminderTickJob(ticker ReminderTicker, log *logger.Logger) *ReminderTickJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ReminderTickJob{ticker: ticker, log: log}
}

func (j *ReminderTickJob) Name() string        { return "reminder_tick" }
func (j *ReminderTickJob) Description() string { return "Fires due study plan reminders in open sessions" }

func (j *ReminderTickJob) Run(ctx context.Context) error {
	n, err := j.ticker.Tick(ctx)
	if n > 0 {
		j.fired.Add(int64(n))
		j.log.Info("reminders delivered", logger.Int("count", n))
	}
	return err
}

// Fired returns the total number of reminders delivered by this job.
func (j *ReminderTickJob) Fired() int64 {
	return j.fired.Load()
}

// ══════════════════════════════════════════════════════════════════════════════
// FLUSH PENDING
// ══════════════════════════════════════════════════════════════════════════════

// Flusher retries saves of sessions whose last save failed.
type Flusher interface {
	FlushAll(ctx context.Context) (int, error)
}

// FlushPendingJob persists sessions left dirty by a failed save.
type FlushPendingJob struct {
	flusher Flusher
	log     *logger.Logger
}

func NewFlushPendingJob(flusher Flusher, log *logger.Logger) *FlushPendingJob {
	if log == nil {
		log = logger.Nop()
	}
	return &FlushPendingJob{flusher: flusher, log: log}
}

func (j *FlushPendingJob) Name() string        { return "flush_pending" }
func (j *FlushPendingJob) Description() string { return "Retries saving progress of sessions with failed saves" }

func (j *FlushPendingJob) Run(ctx context.Context) error {
	n, err := j.flusher.FlushAll(ctx)
	if n > 0 {
		j.log.Info("pending progress flushed", logger.Int("sessions", n))
	}
	if err != nil {
		return fmt.Errorf("flush pending: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION RETENTION
// ══════════════════════════════════════════════════════════════════════════════

// Pruner applies the notification retention policy.
type Pruner interface {
	PruneNotifications(ctx context.Context, now time.Time) (int, error)
}

// NotificationRetentionJob trims notification logs and the notification store.
type NotificationRetentionJob struct {
	pruner Pruner
	clock  timeutil.Clock
	log    *logger.Logger
}

func NewNotificationRetentionJob(pruner Pruner, clock timeutil.Clock, log *logger.Logger) *NotificationRetentionJob {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationRetentionJob{pruner: pruner, clock: clock, log: log}
}

func (j *NotificationRetentionJob) Name() string { return "notification_retention" }
func (j *NotificationRetentionJob) Description() string {
	return "Drops notifications beyond the retention cap or age"
}

func (j *NotificationRetentionJob) Run(ctx context.Context) error {
	n, err := j.pruner.PruneNotifications(ctx, j.clock.Now())
	if n > 0 {
		j.log.Info("notifications pruned", logger.Int("count", n))
	}
	return err
}
