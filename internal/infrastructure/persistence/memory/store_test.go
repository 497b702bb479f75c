package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
)

var now = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func note(t *testing.T, username, msg string, at time.Time) notification.Notification {
	t.Helper()
	n, err := notification.New(notification.NewParams{
		Type:      notification.TypeReminder,
		Recipient: username,
		Message:   msg,
		At:        at,
	})
	require.NoError(t, err)
	return n
}

func TestProgressStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	_, err := store.Load(ctx, "amy")
	assert.ErrorIs(t, err, shared.ErrStateNotFound)

	state := progress.NewState("amy", "Amy", now)
	require.NoError(t, store.Save(ctx, state))

	// изменения после Save не видны хранилищу
	state.Bookmarks = append(state.Bookmarks, "Geometry")

	loaded, err := store.Load(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, "Amy", loaded.Name)
	assert.Empty(t, loaded.Bookmarks)
	assert.Equal(t, 1, store.Len())
}

func TestProgressStore_SaveErr(t *testing.T) {
	store := NewProgressStore()
	store.SaveErr = errors.New("disk full")

	err := store.Save(context.Background(), progress.NewState("amy", "", now))
	assert.EqualError(t, err, "disk full")
	assert.Zero(t, store.Len())
}

func TestProgressStore_ListSorted(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()
	for _, name := range []string{"carol", "amy", "bob"} {
		require.NoError(t, store.Save(ctx, progress.NewState(name, "", now)))
	}

	states, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.Equal(t, "amy", states[0].Username)
	assert.Equal(t, "bob", states[1].Username)
	assert.Equal(t, "carol", states[2].Username)
}

func TestNotificationStore(t *testing.T) {
	ctx := context.Background()
	store := NewNotificationStore()

	first := note(t, "amy", "first", now)
	second := note(t, "amy", "second", now.Add(time.Minute))
	require.NoError(t, store.Append(ctx, first, second, first))

	list, err := store.List(ctx, "amy", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Message)

	limited, err := store.List(ctx, "amy", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	marked, err := store.MarkAllRead(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	marked, err = store.MarkAllRead(ctx, "amy")
	require.NoError(t, err)
	assert.Zero(t, marked)

	empty, err := store.List(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNotificationStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := NewNotificationStore()

	old := note(t, "amy", "old", now.AddDate(0, 0, -40))
	require.NoError(t, store.Append(ctx, old))
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Append(ctx, note(t, "amy", "recent", now.Add(time.Duration(i)*time.Minute))))
	}

	removed, err := store.Prune(ctx, now.AddDate(0, 0, -30), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	list, err := store.List(ctx, "amy", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[2].Timestamp.Equal(now.Add(time.Minute)))

	// удалённый ID можно вставить снова
	require.NoError(t, store.Append(ctx, old))
	list, err = store.List(ctx, "amy", 0)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}
