package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// ErrMissingUsername is returned when a session is opened without a username.
var ErrMissingUsername = shared.NewDomainError("session", "Open", shared.ErrValidation, "Please enter your username.")

// Config holds registry settings.
type Config struct {
	// Retention bounds every session's notification log.
	Retention notification.RetentionPolicy

	// SaveAttempts and SaveBackoff configure Flush retries.
	SaveAttempts int
	SaveBackoff  time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Retention:    notification.DefaultRetention(),
		SaveAttempts: 3,
		SaveBackoff:  200 * time.Millisecond,
	}
}

// Registry tracks the open sessions of the process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	loads    singleflight.Group

	engine  *progress.Engine
	store   ProgressStore
	notes   NotificationStore
	config  Config
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewRegistry creates a registry. notes may be nil.
func NewRegistry(engine *progress.Engine, store ProgressStore, notes NotificationStore, config Config, log *logger.Logger) *Registry {
	if config.Retention.MaxEntries <= 0 {
		config.Retention = notification.DefaultRetention()
	}
	if config.SaveAttempts <= 0 {
		config.SaveAttempts = 3
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Registry{
		sessions: make(map[string]*Session),
		engine:   engine,
		store:    store,
		notes:    notes,
		config:   config,
		retrier:  retry.StoreRetrier(config.SaveAttempts, config.SaveBackoff),
		log:      log.With(logger.Component("session_registry")),
	}
}

// Open returns the session of username, loading or seeding its state, and
// records a login for today. A save failure still returns the live session.
func (r *Registry) Open(ctx context.Context, username, name string) (*Session, progress.Result, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, progress.Result{}, ErrMissingUsername
	}

	sess, err := r.lookupOrLoad(ctx, username, strings.TrimSpace(name))
	if err != nil {
		return nil, progress.Result{}, err
	}

	res, err := sess.Dispatch(ctx, progress.LoginTick{})
	if errors.Is(err, ErrSessionClosed) {
		// закрыта между Get и Dispatch, открываем заново
		return r.Open(ctx, username, name)
	}
	return sess, res, err
}

// lookupOrLoad загружает состояние вне r.mu: медленное хранилище не блокирует
// Get, Sessions и тики напоминаний. Параллельные Open одного студента
// делят одну загрузку.
func (r *Registry) lookupOrLoad(ctx context.Context, username, name string) (*Session, error) {
	if sess, ok := r.Get(username); ok {
		return sess, nil
	}

	v, err, _ := r.loads.Do(username, func() (any, error) {
		if sess, ok := r.Get(username); ok {
			return sess, nil
		}
		loaded, err := r.load(ctx, username, name)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if existing, ok := r.sessions[username]; ok {
			return existing, nil
		}
		r.sessions[username] = loaded
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (r *Registry) load(ctx context.Context, username, name string) (*Session, error) {
	state, err := r.store.Load(ctx, username)
	switch {
	case err == nil:
	case shared.IsNotFound(err):
		state = progress.NewState(username, name, r.engine.Now())
		r.log.Info("new student progress seeded", logger.Username(username))
	default:
		return nil, shared.WrapError("session", "Open", shared.ErrServiceUnavailable, "progress could not be loaded", err)
	}

	var history []notification.Notification
	if r.notes != nil {
		history, err = r.notes.List(ctx, username, r.config.Retention.MaxEntries)
		if err != nil {
			r.log.Warn("notification history unavailable", logger.Username(username), logger.Err(err))
			history = nil
		}
	}

	inbox := notification.NewLog(r.config.Retention, history...)
	return newSession(r.engine, r.store, r.notes, r.retrier, r.log, state, inbox), nil
}

// Get returns an open session.
func (r *Registry) Get(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[username]
	return sess, ok
}

// Close flushes and removes a session. Reminder ticks stop reaching it.
func (r *Registry) Close(ctx context.Context, username string) error {
	r.mu.Lock()
	sess, ok := r.sessions[username]
	delete(r.sessions, username)
	r.mu.Unlock()

	if !ok {
		return shared.WrapError("session", "Close", shared.ErrNotFound, "session not found", nil)
	}
	return sess.Close(ctx)
}

// Sessions returns the open sessions ordered by username.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, r.sessions[name])
	}
	r.mu.RUnlock()
	return out
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// FlushAll retries every dirty session and returns the number flushed.
func (r *Registry) FlushAll(ctx context.Context) (int, error) {
	var (
		flushed int
		errs    []error
	)
	for _, sess := range r.Sessions() {
		if !sess.Dirty() {
			continue
		}
		if err := sess.Flush(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		flushed++
	}
	return flushed, errors.Join(errs...)
}

// PruneNotifications applies the retention policy to every open session and the store.
func (r *Registry) PruneNotifications(ctx context.Context, now time.Time) (int, error) {
	pruned := 0
	for _, sess := range r.Sessions() {
		pruned += sess.PruneNotifications(now)
	}

	if r.notes == nil {
		return pruned, nil
	}
	var before time.Time
	if r.config.Retention.MaxAge > 0 {
		before = now.Add(-r.config.Retention.MaxAge)
	}
	n, err := r.notes.Prune(ctx, before, r.config.Retention.MaxEntries)
	if err != nil {
		return pruned, shared.WrapError("session", "PruneNotifications", shared.ErrServiceUnavailable, "notification store not pruned", err)
	}
	return pruned + n, nil
}

// CloseAll closes every session, used on shutdown.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var errs []error
	for _, sess := range sessions {
		if err := sess.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
