package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
)

// MockNotificationStore is a mock implementation of session.NotificationStore
type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Append(ctx context.Context, ns ...notification.Notification) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

func (m *MockNotificationStore) List(ctx context.Context, username string, limit int) ([]notification.Notification, error) {
	args := m.Called(ctx, username, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Notification), args.Error(1)
}

func (m *MockNotificationStore) MarkAllRead(ctx context.Context, username string) (int, error) {
	args := m.Called(ctx, username)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationStore) Prune(ctx context.Context, before time.Time, keep int) (int, error) {
	args := m.Called(ctx, before, keep)
	return args.Int(0), args.Error(1)
}
