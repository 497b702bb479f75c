// Package session owns the live progress of connected students.
// A Session serializes every transition for one student and persists the
// result; a Registry tracks open sessions and drives background work
// (reminders, flushing, notification retention) across them.
package session

import (
	"context"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
)

// ProgressStore persists progress documents keyed by username.
type ProgressStore interface {
	// Load returns the stored state. A missing student yields shared.ErrNotFound.
	Load(ctx context.Context, username string) (progress.State, error)

	// Save replaces the stored state of state.Username.
	Save(ctx context.Context, state progress.State) error

	// List returns every stored state.
	List(ctx context.Context) ([]progress.State, error)
}

// NotificationStore persists the notification history.
type NotificationStore interface {
	// Append stores notifications. Duplicate IDs are ignored.
	Append(ctx context.Context, ns ...notification.Notification) error

	// List returns up to limit notifications of a student, newest first.
	List(ctx context.Context, username string, limit int) ([]notification.Notification, error)

	// MarkAllRead marks every notification of a student as read.
	MarkAllRead(ctx context.Context, username string) (int, error)

	// Prune removes notifications older than before and keeps at most keep per student.
	Prune(ctx context.Context, before time.Time, keep int) (int, error)
}
