package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/persistence/sqlite"
)

// NewTestDB creates an in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	require.NoError(t, sqlite.Migrate(context.Background(), db))
	return db
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// State returns a fresh progress document created at the given time.
func State(username string, at time.Time) progress.State {
	return progress.NewState(username, "", at)
}

// Notification builds a valid notification for username.
func Notification(t *testing.T, username, message string, at time.Time) notification.Notification {
	n, err := notification.New(notification.NewParams{
		Type:      notification.TypeAchievement,
		Recipient: username,
		Title:     "Test",
		Message:   message,
		At:        at,
	})
	require.NoError(t, err)
	return n
}
