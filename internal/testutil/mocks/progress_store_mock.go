package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
)

// MockProgressStore is a mock implementation of session.ProgressStore
type MockProgressStore struct {
	mock.Mock
}

func (m *MockProgressStore) Load(ctx context.Context, username string) (progress.State, error) {
	args := m.Called(ctx, username)
	state, _ := args.Get(0).(progress.State)
	return state, args.Error(1)
}

func (m *MockProgressStore) Save(ctx context.Context, state progress.State) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockProgressStore) List(ctx context.Context) ([]progress.State, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]progress.State), args.Error(1)
}
