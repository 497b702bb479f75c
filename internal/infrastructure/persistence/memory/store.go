// Package memory provides map-backed stores for development and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
)

// ProgressStore keeps encoded documents, so callers never share memory with it.
type ProgressStore struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// SaveErr, если задан, возвращается из Save (для тестов отказов хранилища).
	SaveErr error
}

// NewProgressStore creates an empty store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{docs: make(map[string][]byte)}
}

func (s *ProgressStore) Load(_ context.Context, username string) (progress.State, error) {
	s.mu.RLock()
	doc, ok := s.docs[username]
	s.mu.RUnlock()

	if !ok {
		return progress.State{}, shared.ErrStateNotFound
	}
	state, _, err := progress.Decode(doc)
	return state, err
}

func (s *ProgressStore) Save(_ context.Context, state progress.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	doc, err := progress.Encode(state)
	if err != nil {
		return err
	}
	s.docs[state.Username] = doc
	return nil
}

func (s *ProgressStore) List(_ context.Context) ([]progress.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)

	states := make([]progress.State, 0, len(names))
	for _, name := range names {
		state, _, err := progress.Decode(s.docs[name])
		if err != nil {
			continue
		}
		states = append(states, state)
	}
	return states, nil
}

// Len returns the number of stored documents.
func (s *ProgressStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationStore keeps per-student history in insertion order.
type NotificationStore struct {
	mu   sync.Mutex
	byID map[notification.ID]struct{}
	logs map[string][]notification.Notification
}

// NewNotificationStore creates an empty store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		byID: make(map[notification.ID]struct{}),
		logs: make(map[string][]notification.Notification),
	}
}

func (s *NotificationStore) Append(_ context.Context, ns ...notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range ns {
		if _, dup := s.byID[n.ID]; dup {
			continue
		}
		s.byID[n.ID] = struct{}{}
		s.logs[n.Recipient] = append(s.logs[n.Recipient], n)
	}
	return nil
}

// List returns newest first.
func (s *NotificationStore) List(_ context.Context, username string, limit int) ([]notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.logs[username])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *NotificationStore) MarkAllRead(_ context.Context, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for i := range s.logs[username] {
		if !s.logs[username][i].Read {
			s.logs[username][i].Read = true
			marked++
		}
	}
	return marked, nil
}

func (s *NotificationStore) Prune(_ context.Context, before time.Time, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for username, entries := range s.logs {
		kept := entries[:0:0]
		for _, n := range entries {
			if !before.IsZero() && n.Timestamp.Before(before) {
				delete(s.byID, n.ID)
				removed++
				continue
			}
			kept = append(kept, n)
		}

		if keep > 0 && len(kept) > keep {
			sort.SliceStable(kept, func(i, j int) bool {
				return kept[i].Timestamp.Before(kept[j].Timestamp)
			})
			for _, n := range kept[:len(kept)-keep] {
				delete(s.byID, n.ID)
			}
			removed += len(kept) - keep
			kept = kept[len(kept)-keep:]
		}

		if len(kept) == 0 {
			delete(s.logs, username)
			continue
		}
		s.logs[username] = kept
	}
	return removed, nil
}
