package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION
// ══════════════════════════════════════════════════════════════════════════════

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = shared.NewDomainError("session", "Dispatch", shared.ErrInvalidState, "session is closed")

// Session is the single logical thread of one student's progress.
// All transitions go through Dispatch and are applied one at a time.
type Session struct {
	mu sync.Mutex

	engine  *progress.Engine
	store   ProgressStore
	notes   NotificationStore
	retrier *retry.Retrier
	log     *logger.Logger

	state  progress.State
	inbox  *notification.Log
	dirty  bool
	closed bool
}

func newSession(
	engine *progress.Engine,
	store ProgressStore,
	notes NotificationStore,
	retrier *retry.Retrier,
	log *logger.Logger,
	state progress.State,
	inbox *notification.Log,
) *Session {
	return &Session{
		engine:  engine,
		store:   store,
		notes:   notes,
		retrier: retrier,
		log:     log.With(logger.Username(state.Username)),
		state:   state,
		inbox:   inbox,
	}
}

// Username returns the student this session belongs to.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Username
}

// State returns a copy of the current state.
func (s *Session) State() progress.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dirty reports whether the in-memory state has not been persisted yet.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Dispatch applies ev and persists the new state with exactly one Save when
// it changed. If Save fails, the new state stays authoritative in memory,
// the session is marked dirty and the error is returned with the result.
func (s *Session) Dispatch(ctx context.Context, ev progress.Event) (progress.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return progress.Result{State: s.state.Clone()}, ErrSessionClosed
	}

	res, err := s.engine.Apply(s.state, ev)
	if err != nil {
		return res, err
	}
	s.state = res.State

	if len(res.Notifications) > 0 {
		s.inbox.Add(res.Notifications...)
		if s.notes != nil {
			if err := s.notes.Append(ctx, res.Notifications...); err != nil {
				s.log.Warn("notification history not stored", logger.Err(err))
			}
		}
	}

	if !res.Changed && !s.dirty {
		return res, nil
	}

	if err := s.store.Save(ctx, s.state); err != nil {
		s.dirty = true
		s.log.Error("progress save failed, keeping state in memory",
			logger.EventKind(ev.Kind().String()),
			logger.Err(err),
		)
		return res, shared.WrapError("session", "Save", shared.ErrServiceUnavailable, "progress was not saved", err)
	}
	s.dirty = false
	return res, nil
}

// Flush retries persisting a dirty state.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Session) flushLocked(ctx context.Context) error {
	if !s.dirty {
		return nil
	}

	state := s.state
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.store.Save(ctx, state)
	})
	if err != nil {
		return shared.WrapError("session", "Flush", shared.ErrServiceUnavailable, "progress was not saved", err)
	}

	s.dirty = false
	s.log.Info("pending progress flushed")
	return nil
}

// Notifications returns the in-memory notification log, newest first.
func (s *Session) Notifications() []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inbox.Entries()
}

// UnreadCount returns the number of unread notifications.
func (s *Session) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inbox.UnreadCount()
}

// MarkAllRead marks every notification as read.
func (s *Session) MarkAllRead(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.inbox.MarkAllRead()
	if s.notes == nil {
		return n, nil
	}
	if _, err := s.notes.MarkAllRead(ctx, s.state.Username); err != nil {
		return n, shared.WrapError("session", "MarkAllRead", shared.ErrServiceUnavailable, "notifications not updated", err)
	}
	return n, nil
}

// PruneNotifications drops expired notifications from the in-memory log.
func (s *Session) PruneNotifications(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inbox.Prune(now)
}

// hasPendingReminders avoids dispatching ticks to sessions with nothing to fire.
func (s *Session) hasPendingReminders() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && progress.HasPendingReminders(s.state)
}

// Close flushes pending state and rejects further events.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	err := s.flushLocked(ctx)
	s.closed = true
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("session closed with unsaved progress", logger.Err(err))
	}
	return err
}
