package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/masilia/consent-bundle/internal/config"
	"github.com/masilia/consent-bundle/internal/events"
	"github.com/masilia/consent-bundle/internal/models"
	"github.com/masilia/consent-bundle/internal/service/mocks"
)

// fakeCarrier is an in-memory ConsentCarrier for service tests.
type fakeCarrier struct {
	stored   *models.ConsentPreferences
	writeErr error
}

func (f *fakeCarrier) ReadConsent() *models.ConsentPreferences { return f.stored }

func (f *fakeCarrier) WriteConsent(preferences *models.ConsentPreferences) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.stored = preferences
	return nil
}

func (f *fakeCarrier) ClearConsent() { f.stored = nil }

func testActivePolicy() *models.CookiePolicy {
	return &models.CookiePolicy{
		PolicyID: "policy-1",
		Version:  "2.0.0",
		IsActive: true,
		Categories: []models.CookieCategory{
			{Identifier: "essential", Name: "Essential", Required: true, DefaultEnabled: true},
			{Identifier: "analytics", Name: "Analytics"},
			{Identifier: "marketing", Name: "Marketing"},
		},
	}
}

func newTestConsentService(policyDAO *mocks.MockPolicyDAO, logDAO *mocks.MockConsentLogDAO) *ConsentService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	auditCfg := config.AuditConfig{Enabled: true, LogIPAddress: true, LogUserAgent: true}
	return NewConsentService(policyDAO, logDAO, events.NewDispatcher(logger), nil, auditCfg, logger)
}

func testMeta() RequestMeta {
	return RequestMeta{
		SessionID: "session-1",
		IPAddress: "203.0.113.42",
		UserAgent: "test-agent",
	}
}

// TestAcceptAll_ConsentsToEveryCategory tests that accept-all consents to
// every category of the active policy and persists the decision.
func TestAcceptAll_ConsentsToEveryCategory(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)
	logDAO.On("Save", mock.Anything, mock.Anything).Return(nil)

	service := newTestConsentService(policyDAO, logDAO)
	carrier := &fakeCarrier{}

	preferences, err := service.AcceptAll(context.Background(), carrier, testMeta())
	require.NoError(t, err)

	assert.True(t, preferences.HasConsent("essential"))
	assert.True(t, preferences.HasConsent("analytics"))
	assert.True(t, preferences.HasConsent("marketing"))
	assert.Equal(t, "2.0.0", preferences.Version())
	require.NotNil(t, carrier.stored)
	assert.True(t, carrier.stored.HasConsent("marketing"))
	logDAO.AssertCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestAcceptAll_NoActivePolicy tests that transitions fail when no policy
// is active.
func TestAcceptAll_NoActivePolicy(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(nil, nil)

	service := newTestConsentService(policyDAO, logDAO)

	_, err := service.AcceptAll(context.Background(), &fakeCarrier{}, testMeta())
	assert.ErrorIs(t, err, ErrNoActivePolicy)
	logDAO.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestRejectNonEssential_KeepsRequiredCategories tests that rejecting
// keeps required categories consented and declines the rest.
func TestRejectNonEssential_KeepsRequiredCategories(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)
	logDAO.On("Save", mock.Anything, mock.Anything).Return(nil)

	service := newTestConsentService(policyDAO, logDAO)

	preferences, err := service.RejectNonEssential(context.Background(), &fakeCarrier{}, testMeta())
	require.NoError(t, err)

	assert.True(t, preferences.HasConsent("essential"))
	assert.False(t, preferences.HasConsent("analytics"))
	assert.False(t, preferences.HasConsent("marketing"))
}

// TestUpdatePreferences_ForcesRequiredCategories tests that a custom save
// cannot decline a required category.
func TestUpdatePreferences_ForcesRequiredCategories(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)
	logDAO.On("Save", mock.Anything, mock.Anything).Return(nil)

	service := newTestConsentService(policyDAO, logDAO)

	preferences, err := service.UpdatePreferences(context.Background(), &fakeCarrier{}, testMeta(),
		map[string]bool{"essential": false, "analytics": true})
	require.NoError(t, err)

	assert.True(t, preferences.HasConsent("essential"))
	assert.True(t, preferences.HasConsent("analytics"))
}

// TestUpdatePreferences_PreservesUnknownIdentifiers tests that identifiers
// not present in the active policy survive the save untouched.
func TestUpdatePreferences_PreservesUnknownIdentifiers(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)
	logDAO.On("Save", mock.Anything, mock.Anything).Return(nil)

	service := newTestConsentService(policyDAO, logDAO)

	preferences, err := service.UpdatePreferences(context.Background(), &fakeCarrier{}, testMeta(),
		map[string]bool{"personalization": true, "analytics": false})
	require.NoError(t, err)

	assert.True(t, preferences.HasConsent("personalization"))
	assert.False(t, preferences.HasConsent("analytics"))
}

// TestSaveConsent_AuditFailureDoesNotFailTransition tests that a failing
// audit log write never surfaces to the caller.
func TestSaveConsent_AuditFailureDoesNotFailTransition(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)
	logDAO.On("Save", mock.Anything, mock.Anything).Return(errors.New("database is down"))

	service := newTestConsentService(policyDAO, logDAO)
	carrier := &fakeCarrier{}

	_, err := service.AcceptAll(context.Background(), carrier, testMeta())
	assert.NoError(t, err)
	assert.NotNil(t, carrier.stored)
}

// TestSaveConsent_WriteFailureFailsTransition tests that a failing cookie
// write aborts the transition before any audit entry is recorded.
func TestSaveConsent_WriteFailureFailsTransition(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)

	service := newTestConsentService(policyDAO, logDAO)
	carrier := &fakeCarrier{writeErr: errors.New("headers already sent")}

	_, err := service.AcceptAll(context.Background(), carrier, testMeta())
	assert.Error(t, err)
	logDAO.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestRevoke_ClearsStoredPreferences tests that revoking clears the stored
// decision and records the revocation.
func TestRevoke_ClearsStoredPreferences(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	logDAO.On("Save", mock.Anything, mock.Anything).Return(nil)

	service := newTestConsentService(policyDAO, logDAO)
	carrier := &fakeCarrier{
		stored: models.NewConsentPreferences(map[string]bool{"analytics": true}, "2.0.0"),
	}

	err := service.Revoke(context.Background(), carrier, testMeta())
	require.NoError(t, err)

	assert.Nil(t, carrier.stored)
	logDAO.AssertCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestRevoke_NothingStored tests that revoking without a stored decision is
// a no-op and records nothing.
func TestRevoke_NothingStored(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)

	service := newTestConsentService(policyDAO, logDAO)

	err := service.Revoke(context.Background(), &fakeCarrier{}, testMeta())
	assert.NoError(t, err)
	logDAO.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestLogConsent_AnonymizesIP tests that the audit entry holds the
// anonymized address when anonymization is configured.
func TestLogConsent_AnonymizesIP(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)

	var captured *models.ConsentLog
	logDAO.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*models.ConsentLog)
	}).Return(nil)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	auditCfg := config.AuditConfig{Enabled: true, LogIPAddress: true, AnonymizeIP: true}
	service := NewConsentService(policyDAO, logDAO, events.NewDispatcher(logger), nil, auditCfg, logger)

	_, err := service.AcceptAll(context.Background(), &fakeCarrier{}, testMeta())
	require.NoError(t, err)

	require.NotNil(t, captured)
	require.NotNil(t, captured.IPAddress)
	assert.Equal(t, "203.0.113.0", *captured.IPAddress)
	assert.Equal(t, "session-1", captured.SessionID)
	assert.Equal(t, "2.0.0", captured.PolicyVersion)
}

// TestLogConsent_DisabledAuditRecordsNothing tests that no audit entry is
// written when the audit trail is disabled.
func TestLogConsent_DisabledAuditRecordsNothing(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	service := NewConsentService(policyDAO, logDAO, events.NewDispatcher(logger), nil, config.AuditConfig{}, logger)

	_, err := service.AcceptAll(context.Background(), &fakeCarrier{}, testMeta())
	require.NoError(t, err)
	logDAO.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestDispatch_ListenerSeesOldAndNewPreferences tests that listeners are
// notified synchronously with both sides of the transition.
func TestDispatch_ListenerSeesOldAndNewPreferences(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)
	logDAO.On("Save", mock.Anything, mock.Anything).Return(nil)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	dispatcher := events.NewDispatcher(logger)

	var received events.ConsentChangedEvent
	dispatcher.Subscribe(events.ListenerFunc(func(_ context.Context, event events.ConsentChangedEvent) error {
		received = event
		return nil
	}))

	auditCfg := config.AuditConfig{Enabled: true}
	service := NewConsentService(policyDAO, logDAO, dispatcher, nil, auditCfg, logger)

	old := models.NewConsentPreferences(map[string]bool{"analytics": false}, "1.0.0")
	carrier := &fakeCarrier{stored: old}

	_, err := service.AcceptAll(context.Background(), carrier, testMeta())
	require.NoError(t, err)

	assert.Equal(t, events.ConsentChanged, received.Name)
	assert.Same(t, old, received.Old)
	require.NotNil(t, received.New)
	assert.True(t, received.New.HasConsent("analytics"))
}

// TestStatus_NoStoredPreferences tests the status projection before any
// decision was made.
func TestStatus_NoStoredPreferences(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)

	service := newTestConsentService(policyDAO, logDAO)

	status, err := service.Status(context.Background(), &fakeCarrier{})
	require.NoError(t, err)

	assert.False(t, status.HasConsent)
	assert.Nil(t, status.Preferences)
	assert.Equal(t, "2.0.0", status.PolicyVersion)
	assert.Nil(t, status.NeedsUpdate)
}

// TestStatus_StalePreferencesNeedUpdate tests that a decision made under an
// older policy version stays effective but is flagged for renewal.
func TestStatus_StalePreferencesNeedUpdate(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)

	service := newTestConsentService(policyDAO, logDAO)
	carrier := &fakeCarrier{
		stored: models.NewConsentPreferences(map[string]bool{"analytics": true}, "1.0.0"),
	}

	status, err := service.Status(context.Background(), carrier)
	require.NoError(t, err)

	assert.True(t, status.HasConsent)
	require.NotNil(t, status.NeedsUpdate)
	assert.True(t, *status.NeedsUpdate)
	assert.True(t, service.HasConsent(carrier, "analytics"))
}

// TestStatus_CurrentPreferences tests the status projection for a decision
// made under the active policy version.
func TestStatus_CurrentPreferences(t *testing.T) {
	policyDAO := new(mocks.MockPolicyDAO)
	logDAO := new(mocks.MockConsentLogDAO)
	policyDAO.On("GetActive", mock.Anything).Return(testActivePolicy(), nil)

	service := newTestConsentService(policyDAO, logDAO)
	carrier := &fakeCarrier{
		stored: models.NewConsentPreferences(map[string]bool{"analytics": true}, "2.0.0"),
	}

	status, err := service.Status(context.Background(), carrier)
	require.NoError(t, err)

	assert.True(t, status.HasConsent)
	require.NotNil(t, status.NeedsUpdate)
	assert.False(t, *status.NeedsUpdate)
}
