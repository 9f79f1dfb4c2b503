package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/masilia/consent-bundle/internal/config"
	"github.com/masilia/consent-bundle/internal/events"
	"github.com/masilia/consent-bundle/internal/metrics"
	"github.com/masilia/consent-bundle/internal/models"
	"github.com/masilia/consent-bundle/internal/storage"
	"github.com/masilia/consent-bundle/pkg/utils"
)

// ErrNoActivePolicy is returned by consent transitions when no policy is
// active: there is nothing to consent to.
var ErrNoActivePolicy = errors.New("no active cookie policy found")

// ActivePolicyReader is the policy lookup the consent engine depends on.
type ActivePolicyReader interface {
	GetActive(ctx context.Context) (*models.CookiePolicy, error)
}

// ConsentLogWriter appends consent decisions to the audit trail.
type ConsentLogWriter interface {
	Save(ctx context.Context, log *models.ConsentLog) error
}

// RequestMeta carries the request attributes recorded in the audit trail.
type RequestMeta struct {
	SessionID string
	UserID    string
	IPAddress string
	UserAgent string
}

// ConsentService implements the consent state machine. Every mutating
// transition captures the old preferences, computes the new ones, persists
// them through the request's carrier, then appends an audit entry and
// notifies listeners. Audit and notification are best-effort and never
// fail the transition.
type ConsentService struct {
	policyDAO  ActivePolicyReader
	logDAO     ConsentLogWriter
	dispatcher *events.Dispatcher
	metrics    *metrics.Metrics
	auditCfg   config.AuditConfig
	logger     *logrus.Logger
}

// NewConsentService creates a new consent service instance
func NewConsentService(
	policyDAO ActivePolicyReader,
	logDAO ConsentLogWriter,
	dispatcher *events.Dispatcher,
	m *metrics.Metrics,
	auditCfg config.AuditConfig,
	logger *logrus.Logger,
) *ConsentService {
	return &ConsentService{
		policyDAO:  policyDAO,
		logDAO:     logDAO,
		dispatcher: dispatcher,
		metrics:    m,
		auditCfg:   auditCfg,
		logger:     logger,
	}
}

// GetActivePolicy returns the active policy, or nil when none is active
func (s *ConsentService) GetActivePolicy(ctx context.Context) (*models.CookiePolicy, error) {
	return s.policyDAO.GetActive(ctx)
}

// AcceptAll consents to every category of the active policy
func (s *ConsentService) AcceptAll(ctx context.Context, carrier storage.ConsentCarrier, meta RequestMeta) (*models.ConsentPreferences, error) {
	policy, err := s.policyDAO.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, ErrNoActivePolicy
	}

	categories := make(map[string]bool, len(policy.Categories))
	for _, category := range policy.Categories {
		categories[category.Identifier] = true
	}

	preferences := models.NewConsentPreferences(categories, policy.Version)
	if err := s.saveConsent(ctx, carrier, meta, preferences); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AcceptAll.Inc()
	}
	return preferences, nil
}

// RejectNonEssential consents only to the required categories of the active
// policy; everything else is declined.
func (s *ConsentService) RejectNonEssential(ctx context.Context, carrier storage.ConsentCarrier, meta RequestMeta) (*models.ConsentPreferences, error) {
	policy, err := s.policyDAO.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, ErrNoActivePolicy
	}

	categories := make(map[string]bool, len(policy.Categories))
	for _, category := range policy.Categories {
		categories[category.Identifier] = category.Required
	}

	preferences := models.NewConsentPreferences(categories, policy.Version)
	if err := s.saveConsent(ctx, carrier, meta, preferences); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RejectNonEssential.Inc()
	}
	return preferences, nil
}

// UpdatePreferences saves a custom per-category decision. Required
// categories are forced on regardless of the request. Identifiers that do
// not match any category in the active policy are preserved as requested:
// a decision made under an earlier policy version must survive a save made
// under a later one.
func (s *ConsentService) UpdatePreferences(ctx context.Context, carrier storage.ConsentCarrier, meta RequestMeta, requested map[string]bool) (*models.ConsentPreferences, error) {
	policy, err := s.policyDAO.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, ErrNoActivePolicy
	}

	categories := make(map[string]bool, len(requested))
	for id, consented := range requested {
		categories[id] = consented
	}
	for _, category := range policy.Categories {
		if category.Required {
			categories[category.Identifier] = true
		}
	}

	preferences := models.NewConsentPreferences(categories, policy.Version)
	if err := s.saveConsent(ctx, carrier, meta, preferences); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PreferencesUpdated.Inc()
	}
	return preferences, nil
}

// Revoke clears the stored preference entirely, returning the user to the
// no-consent state. Revoking without a stored preference is a no-op, not an
// error.
func (s *ConsentService) Revoke(ctx context.Context, carrier storage.ConsentCarrier, meta RequestMeta) error {
	old := carrier.ReadConsent()
	if old == nil {
		return nil
	}

	carrier.ClearConsent()
	s.logConsent(ctx, meta, old.Version(), map[string]bool{})
	s.dispatcher.Dispatch(ctx, events.ConsentChangedEvent{
		Name: events.ConsentRevoked,
		Old:  old,
		New:  nil,
	})

	if s.metrics != nil {
		s.metrics.ConsentRevoked.Inc()
	}
	return nil
}

// HasConsent reports whether the request's stored preference consents to the
// given category. Absent preferences and unknown identifiers read as false.
func (s *ConsentService) HasConsent(carrier storage.ConsentCarrier, category string) bool {
	preferences := carrier.ReadConsent()
	if preferences == nil {
		return false
	}
	return preferences.HasConsent(category)
}

// Status derives the caller's consent state from the stored preference and
// the active policy. NeedsUpdate is set when the stored decision was made
// under a different policy version than the one currently active.
func (s *ConsentService) Status(ctx context.Context, carrier storage.ConsentCarrier) (*models.StatusResponse, error) {
	preferences := carrier.ReadConsent()

	policy, err := s.policyDAO.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	response := &models.StatusResponse{}
	if policy != nil {
		response.PolicyVersion = policy.Version
	}

	if preferences == nil || policy == nil {
		return response, nil
	}

	needsUpdate := preferences.Version() != policy.Version
	response.HasConsent = true
	response.Preferences = preferences
	response.NeedsUpdate = &needsUpdate
	return response, nil
}

// saveConsent persists the new preferences and runs the post-transition
// steps in order: audit log first, change notification second.
func (s *ConsentService) saveConsent(ctx context.Context, carrier storage.ConsentCarrier, meta RequestMeta, preferences *models.ConsentPreferences) error {
	old := carrier.ReadConsent()

	if err := carrier.WriteConsent(preferences); err != nil {
		return err
	}

	s.logConsent(ctx, meta, preferences.Version(), preferences.Categories())
	s.dispatcher.Dispatch(ctx, events.ConsentChangedEvent{
		Name: events.ConsentChanged,
		Old:  old,
		New:  preferences,
	})

	return nil
}

// logConsent appends an audit entry. Failures are logged and counted but
// never surfaced: the audit trail is outside the transition's consistency
// boundary.
func (s *ConsentService) logConsent(ctx context.Context, meta RequestMeta, policyVersion string, categories map[string]bool) {
	if !s.auditCfg.Enabled {
		return
	}

	snapshot, err := json.Marshal(categories)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to marshal consent snapshot")
		return
	}

	entry := &models.ConsentLog{
		LogID:         utils.GenerateLogID(),
		SessionID:     meta.SessionID,
		PolicyVersion: policyVersion,
		Preferences:   models.JSON(snapshot),
		CreatedAt:     time.Now().UTC(),
	}

	if meta.UserID != "" {
		userID := meta.UserID
		entry.UserID = &userID
	}
	if s.auditCfg.LogIPAddress && meta.IPAddress != "" {
		ip := meta.IPAddress
		if s.auditCfg.AnonymizeIP {
			ip = utils.AnonymizeIP(ip)
		}
		entry.IPAddress = &ip
	}
	if s.auditCfg.LogUserAgent && meta.UserAgent != "" {
		userAgent := meta.UserAgent
		entry.UserAgent = &userAgent
	}

	if err := s.logDAO.Save(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"session_id":     meta.SessionID,
			"policy_version": policyVersion,
		}).Warn("Failed to write consent log entry")
		if s.metrics != nil {
			s.metrics.LogFailures.Inc()
		}
	}
}
