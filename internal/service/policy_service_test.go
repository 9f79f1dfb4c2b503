package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/masilia/consent-bundle/internal/models"
	"github.com/masilia/consent-bundle/internal/service/mocks"
)

func newTestPolicyService(policyDAO *mocks.MockPolicyDAO) *PolicyService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewPolicyService(policyDAO, logger)
}

func exportFixture(version string) *models.PolicyExportFile {
	return &models.PolicyExportFile{
		CookiePolicy: models.PolicyExport{
			Version:        version,
			LastUpdated:    "2024-06-01",
			ExpirationDays: 365,
			Categories: []models.CategoryExport{
				{ID: "essential", Name: "Essential", Required: true},
			},
		},
	}
}

// TestGetPolicyByVersion_NotFound tests that an unknown version maps to
// ErrPolicyNotFound.
func TestGetPolicyByVersion_NotFound(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	policyDAO.On("GetByVersion", mock.Anything, "9.9.9").Return(nil, nil)

	service := newTestPolicyService(policyDAO)

	_, err := service.GetPolicyByVersion(context.Background(), "9.9.9")
	assert.ErrorIs(t, err, ErrPolicyNotFound)
}

// TestActivate_UnknownVersion tests that activating an unknown version maps
// to ErrPolicyNotFound without touching the active flag.
func TestActivate_UnknownVersion(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	policyDAO.On("GetByVersion", mock.Anything, "9.9.9").Return(nil, nil)

	service := newTestPolicyService(policyDAO)

	err := service.Activate(context.Background(), "9.9.9")
	assert.ErrorIs(t, err, ErrPolicyNotFound)
	policyDAO.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything)
}

// TestActivate_KnownVersion tests the happy path of activation.
func TestActivate_KnownVersion(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	policyDAO.On("GetByVersion", mock.Anything, "2.0.0").Return(&models.CookiePolicy{Version: "2.0.0"}, nil)
	policyDAO.On("Activate", mock.Anything, "2.0.0").Return(nil)

	service := newTestPolicyService(policyDAO)

	assert.NoError(t, service.Activate(context.Background(), "2.0.0"))
	policyDAO.AssertCalled(t, "Activate", mock.Anything, "2.0.0")
}

// TestDelete_ActivePolicyRejected tests that the active policy cannot be
// deleted.
func TestDelete_ActivePolicyRejected(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	policyDAO.On("GetByVersion", mock.Anything, "2.0.0").
		Return(&models.CookiePolicy{Version: "2.0.0", IsActive: true}, nil)

	service := newTestPolicyService(policyDAO)

	err := service.Delete(context.Background(), "2.0.0")
	assert.ErrorIs(t, err, ErrPolicyActive)
	policyDAO.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// TestImport_ExistingVersionWithoutForce tests that importing a version that
// already exists fails unless force is set.
func TestImport_ExistingVersionWithoutForce(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	policyDAO.On("GetByVersion", mock.Anything, "2.0.0").
		Return(&models.CookiePolicy{Version: "2.0.0"}, nil)

	service := newTestPolicyService(policyDAO)

	_, err := service.Import(context.Background(), exportFixture("2.0.0"), false, false)
	assert.ErrorIs(t, err, ErrPolicyVersionExists)
	policyDAO.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestImport_ForceReplacesExisting tests that force deletes the existing
// version before storing the imported one.
func TestImport_ForceReplacesExisting(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	policyDAO.On("GetByVersion", mock.Anything, "2.0.0").
		Return(&models.CookiePolicy{PolicyID: "old-id", Version: "2.0.0"}, nil)
	policyDAO.On("Delete", mock.Anything, "2.0.0").Return(nil)
	policyDAO.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := newTestPolicyService(policyDAO)

	policy, err := service.Import(context.Background(), exportFixture("2.0.0"), true, false)
	require.NoError(t, err)

	assert.False(t, policy.IsActive)
	policyDAO.AssertCalled(t, "Delete", mock.Anything, "2.0.0")
	policyDAO.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestImport_ActivateFlag tests that the activate flag marks the imported
// policy active before it is stored.
func TestImport_ActivateFlag(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	policyDAO.On("GetByVersion", mock.Anything, "3.0.0").Return(nil, nil)

	var created *models.CookiePolicy
	policyDAO.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*models.CookiePolicy)
	}).Return(nil)

	service := newTestPolicyService(policyDAO)

	policy, err := service.Import(context.Background(), exportFixture("3.0.0"), false, true)
	require.NoError(t, err)

	assert.True(t, policy.IsActive)
	require.NotNil(t, created)
	assert.True(t, created.IsActive)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), created.LastUpdated)
}

// TestExport_DefaultsToActivePolicy tests that exporting without a version
// exports the active policy.
func TestExport_DefaultsToActivePolicy(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	policyDAO.On("GetActive", mock.Anything).
		Return(&models.CookiePolicy{Version: "2.0.0", LastUpdated: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}, nil)

	service := newTestPolicyService(policyDAO)

	file, err := service.Export(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", file.CookiePolicy.Version)
}

// TestExport_NoActivePolicy tests that exporting without a version fails
// when nothing is active.
func TestExport_NoActivePolicy(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	policyDAO.On("GetActive", mock.Anything).Return(nil, nil)

	service := newTestPolicyService(policyDAO)

	_, err := service.Export(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoActivePolicy)
}
