package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/quiz"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/internal/testutil/mocks"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

var start = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func newTestRegistry(t *testing.T, store ProgressStore, notes NotificationStore) (*Registry, *timeutil.ManualClock) {
	t.Helper()
	clock := timeutil.NewManualClock(start)
	engine := progress.NewEngine(quiz.SeedBank(), clock, progress.DefaultOptions(), nil)
	cfg := DefaultConfig()
	cfg.SaveBackoff = time.Millisecond
	return NewRegistry(engine, store, notes, cfg, nil), clock
}

func notFoundStore() *mocks.MockProgressStore {
	store := new(mocks.MockProgressStore)
	store.On("Load", mock.Anything, mock.Anything).Return(progress.State{}, shared.ErrStateNotFound)
	return store
}

func TestRegistry_OpenSeedsAndSavesOnce(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.MatchedBy(func(s progress.State) bool {
		return s.Username == "amy" && s.Streak == 1
	})).Return(nil)

	reg, _ := newTestRegistry(t, store, nil)
	ctx := context.Background()

	sess, res, err := reg.Open(ctx, "amy", "Amy")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "Amy", sess.State().Name)
	assert.Equal(t, "2024-01-10", sess.State().LastLoginDate)
	store.AssertNumberOfCalls(t, "Save", 1)

	again, res, err := reg.Open(ctx, "amy", "Amy")
	require.NoError(t, err)
	assert.Same(t, sess, again)
	assert.False(t, res.Changed)
	store.AssertNumberOfCalls(t, "Save", 1)
	store.AssertNumberOfCalls(t, "Load", 1)
}

func TestRegistry_OpenRejectsEmptyUsername(t *testing.T) {
	reg, _ := newTestRegistry(t, new(mocks.MockProgressStore), nil)

	_, _, err := reg.Open(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrMissingUsername)
	assert.True(t, shared.IsValidation(err))
}

func TestRegistry_OpenLoadFailure(t *testing.T) {
	store := new(mocks.MockProgressStore)
	store.On("Load", mock.Anything, "amy").Return(progress.State{}, errors.New("connection refused"))

	reg, _ := newTestRegistry(t, store, nil)

	_, _, err := reg.Open(context.Background(), "amy", "")
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_SlowLoadDoesNotBlockRegistry(t *testing.T) {
	var (
		loading = make(chan struct{})
		gate    = make(chan struct{})
		once    sync.Once
	)
	store := new(mocks.MockProgressStore)
	store.On("Load", mock.Anything, "amy").Return(progress.State{}, shared.ErrStateNotFound)
	store.On("Load", mock.Anything, "bob").Run(func(mock.Arguments) {
		once.Do(func() { close(loading) })
		<-gate
	}).Return(progress.State{}, shared.ErrStateNotFound)
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	reg, _ := newTestRegistry(t, store, nil)
	ctx := context.Background()

	amy, _, err := reg.Open(ctx, "amy", "Amy")
	require.NoError(t, err)

	var wg sync.WaitGroup
	opened := make([]*Session, 2)
	for i := range opened {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, _, err := reg.Open(ctx, "bob", "Bob")
			assert.NoError(t, err)
			opened[i] = sess
		}(i)
	}
	<-loading

	done := make(chan struct{})
	go func() {
		defer close(done)
		got, ok := reg.Get("amy")
		assert.True(t, ok)
		assert.Same(t, amy, got)
		assert.Len(t, reg.Sessions(), 1)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("registry blocked while a session was loading")
	}

	close(gate)
	wg.Wait()
	require.NotNil(t, opened[0])
	assert.Same(t, opened[0], opened[1])
	assert.Equal(t, 2, reg.Len())
	store.AssertNumberOfCalls(t, "Load", 2)
}

func TestSession_SaveFailureKeepsStateAndFlushRetries(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	reg, _ := newTestRegistry(t, store, nil)
	ctx := context.Background()

	sess, _, err := reg.Open(ctx, "amy", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	require.NotNil(t, sess)
	assert.True(t, sess.Dirty())
	assert.Equal(t, 1, sess.State().Streak)

	require.NoError(t, sess.Flush(ctx))
	assert.False(t, sess.Dirty())
	store.AssertNumberOfCalls(t, "Save", 2)

	// повторный Flush без изменений ничего не сохраняет
	require.NoError(t, sess.Flush(ctx))
	store.AssertNumberOfCalls(t, "Save", 2)
}

func TestSession_ValidationErrorDoesNotSave(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	reg, _ := newTestRegistry(t, store, nil)
	ctx := context.Background()

	sess, _, err := reg.Open(ctx, "amy", "")
	require.NoError(t, err)

	_, err = sess.Dispatch(ctx, progress.AddNote{Topic: "Algebra"})
	assert.ErrorIs(t, err, shared.ErrEmptyNoteContent)
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestSession_ConcurrentDispatchIsSerialized(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	reg, _ := newTestRegistry(t, store, nil)
	ctx := context.Background()

	sess, _, err := reg.Open(ctx, "amy", "")
	require.NoError(t, err)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := sess.Dispatch(ctx, progress.AddNote{Topic: "Algebra", Content: fmt.Sprintf("note %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, sess.State().Notes["Algebra"], n)
	store.AssertNumberOfCalls(t, "Save", n+1)
}

func TestSession_ClosedRejectsEvents(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	reg, _ := newTestRegistry(t, store, nil)
	ctx := context.Background()

	sess, _, err := reg.Open(ctx, "amy", "")
	require.NoError(t, err)
	require.NoError(t, reg.Close(ctx, "amy"))

	_, err = sess.Dispatch(ctx, progress.StartTimer{})
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, ok := reg.Get("amy")
	assert.False(t, ok)
	assert.True(t, shared.IsNotFound(reg.Close(ctx, "amy")))
}

func TestReminderTicker(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	reg, clock := newTestRegistry(t, store, nil)
	ticker := NewReminderTicker(reg, nil)
	ctx := context.Background()

	sess, _, err := reg.Open(ctx, "amy", "")
	require.NoError(t, err)
	_, err = sess.Dispatch(ctx, progress.AddEvent{Date: "2024-01-10", Time: "09:00", Title: "Limits", Reminder: true})
	require.NoError(t, err)

	fired, err := ticker.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, fired)

	clock.Set(start.Add(59*time.Minute + 30*time.Second))
	fired, err = ticker.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, sess.Notifications(), 1)
	assert.Equal(t, notification.TypeReminder, sess.Notifications()[0].Type)
	assert.Equal(t, 1, sess.UnreadCount())

	clock.Advance(15 * time.Second)
	fired, err = ticker.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, fired)
}

func TestReminderTicker_ClosedSessionGetsNoTicks(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	reg, clock := newTestRegistry(t, store, nil)
	ticker := NewReminderTicker(reg, nil)
	ctx := context.Background()

	sess, _, err := reg.Open(ctx, "amy", "")
	require.NoError(t, err)
	_, err = sess.Dispatch(ctx, progress.AddEvent{Date: "2024-01-10", Time: "09:00", Title: "Limits", Reminder: true})
	require.NoError(t, err)
	require.NoError(t, reg.Close(ctx, "amy"))

	clock.Set(start.Add(time.Hour))
	fired, err := ticker.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, fired)
	assert.False(t, sess.State().StudyPlan[0].Notified)
}

func TestReminderTicker_StopsOnCancel(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	reg, _ := newTestRegistry(t, store, nil)
	_, _, err := reg.Open(context.Background(), "amy", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewReminderTicker(reg, nil).Tick(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_NotificationStore(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	old, err := notification.New(notification.NewParams{
		Type:      notification.TypeSystem,
		Recipient: "amy",
		Message:   "Welcome back",
		At:        start.Add(-time.Hour),
	})
	require.NoError(t, err)

	notes := new(mocks.MockNotificationStore)
	notes.On("List", mock.Anything, "amy", notification.DefaultMaxEntries).Return([]notification.Notification{old}, nil)
	notes.On("Append", mock.Anything, mock.Anything).Return(nil)
	notes.On("MarkAllRead", mock.Anything, "amy").Return(2, nil)

	reg, _ := newTestRegistry(t, store, notes)
	ctx := context.Background()

	sess, _, err := reg.Open(ctx, "amy", "")
	require.NoError(t, err)
	require.Len(t, sess.Notifications(), 1)

	_, err = sess.Dispatch(ctx, progress.MarkModuleComplete{Topic: "Algebra"})
	require.NoError(t, err)
	notes.AssertNumberOfCalls(t, "Append", 1)

	entries := sess.Notifications()
	require.Len(t, entries, 2)
	assert.Equal(t, notification.TypeAchievement, entries[0].Type)

	n, err := sess.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, sess.UnreadCount())
}

func TestRegistry_PruneNotifications(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	notes := new(mocks.MockNotificationStore)
	notes.On("List", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	notes.On("Prune", mock.Anything, start.Add(-notification.DefaultMaxAge), notification.DefaultMaxEntries).Return(3, nil)

	reg, _ := newTestRegistry(t, store, notes)
	_, _, err := reg.Open(context.Background(), "amy", "")
	require.NoError(t, err)

	pruned, err := reg.PruneNotifications(context.Background(), start)
	require.NoError(t, err)
	assert.Equal(t, 3, pruned)
	notes.AssertExpectations(t)
}

func TestRegistry_FlushAllAndCloseAll(t *testing.T) {
	store := notFoundStore()
	store.On("Save", mock.Anything, mock.MatchedBy(func(s progress.State) bool { return s.Username == "bob" })).
		Return(errors.New("db down")).Once()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	reg, _ := newTestRegistry(t, store, nil)
	ctx := context.Background()

	_, _, err := reg.Open(ctx, "amy", "")
	require.NoError(t, err)
	_, _, err = reg.Open(ctx, "bob", "")
	require.Error(t, err)

	names := []string{}
	for _, s := range reg.Sessions() {
		names = append(names, s.Username())
	}
	assert.Equal(t, []string{"amy", "bob"}, names)

	flushed, err := reg.FlushAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, flushed)

	require.NoError(t, reg.CloseAll(ctx))
	assert.Zero(t, reg.Len())
}
