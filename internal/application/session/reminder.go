package session

import (
	"context"
	"errors"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
)

// ReminderTicker delivers ReminderTick to every open session that still has
// reminders pending. Closed sessions are no longer in the registry and
// never receive ticks.
type ReminderTicker struct {
	registry *Registry
	log      *logger.Logger
}

// NewReminderTicker creates a ticker over registry.
func NewReminderTicker(registry *Registry, log *logger.Logger) *ReminderTicker {
	if log == nil {
		log = logger.Nop()
	}
	return &ReminderTicker{
		registry: registry,
		log:      log.With(logger.Component("reminder_ticker")),
	}
}

// Tick runs one pass and returns the number of reminders fired.
// It stops early when ctx is cancelled.
func (t *ReminderTicker) Tick(ctx context.Context) (int, error) {
	var (
		fired int
		errs  []error
	)

	for _, sess := range t.registry.Sessions() {
		if err := ctx.Err(); err != nil {
			return fired, err
		}
		if !sess.hasPendingReminders() {
			continue
		}

		res, err := sess.Dispatch(ctx, progress.ReminderTick{})
		fired += len(res.Notifications)
		if err != nil && !errors.Is(err, ErrSessionClosed) {
			t.log.Warn("reminder tick failed", logger.Username(sess.Username()), logger.Err(err))
			errs = append(errs, err)
		}
	}

	if fired > 0 {
		t.log.Debug("reminders fired", logger.Int("count", fired))
	}
	return fired, errors.Join(errs...)
}
