package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/masilia/consent-bundle/internal/models"
)

// MockConsentLogDAO is a mock implementation of ConsentLogWriter and
// ConsentLogReader.
type MockConsentLogDAO struct {
	mock.Mock
}

func (m *MockConsentLogDAO) Save(ctx context.Context, log *models.ConsentLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockConsentLogDAO) FindBySessionID(ctx context.Context, sessionID string) (*models.ConsentLog, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConsentLog), args.Error(1)
}

func (m *MockConsentLogDAO) FindByUserID(ctx context.Context, userID string) ([]models.ConsentLog, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConsentLog), args.Error(1)
}

func (m *MockConsentLogDAO) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	args := m.Called(ctx, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockConsentLogDAO) SnapshotCounts(ctx context.Context, from, to time.Time) ([]models.PreferenceSnapshotCount, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PreferenceSnapshotCount), args.Error(1)
}
