package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/masilia/consent-bundle/internal/models"
)

// MockPolicyDAO is a mock implementation of PolicyRepository
type MockPolicyDAO struct {
	mock.Mock
}

func (m *MockPolicyDAO) GetActive(ctx context.Context) (*models.CookiePolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CookiePolicy), args.Error(1)
}

func (m *MockPolicyDAO) GetByVersion(ctx context.Context, version string) (*models.CookiePolicy, error) {
	args := m.Called(ctx, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CookiePolicy), args.Error(1)
}

func (m *MockPolicyDAO) ListVersions(ctx context.Context) ([]models.PolicyVersionInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PolicyVersionInfo), args.Error(1)
}

func (m *MockPolicyDAO) Create(ctx context.Context, policy *models.CookiePolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *MockPolicyDAO) Activate(ctx context.Context, version string) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockPolicyDAO) Delete(ctx context.Context, version string) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}
