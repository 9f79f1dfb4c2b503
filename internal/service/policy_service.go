package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/masilia/consent-bundle/internal/models"
)

var (
	// ErrPolicyNotFound is returned when the requested policy version does
	// not exist.
	ErrPolicyNotFound = errors.New("cookie policy not found")
	// ErrPolicyVersionExists is returned by Import when the version already
	// exists and force was not set.
	ErrPolicyVersionExists = errors.New("cookie policy version already exists")
	// ErrPolicyActive is returned when deleting the active policy.
	ErrPolicyActive = errors.New("cookie policy is active")
)

// PolicyRepository is the persistence contract for policy management.
type PolicyRepository interface {
	GetActive(ctx context.Context) (*models.CookiePolicy, error)
	GetByVersion(ctx context.Context, version string) (*models.CookiePolicy, error)
	ListVersions(ctx context.Context) ([]models.PolicyVersionInfo, error)
	Create(ctx context.Context, policy *models.CookiePolicy) error
	Activate(ctx context.Context, version string) error
	Delete(ctx context.Context, version string) error
}

// PolicyService handles cookie policy management operations
type PolicyService struct {
	policyDAO PolicyRepository
	logger    *logrus.Logger
}

// NewPolicyService creates a new policy service instance
func NewPolicyService(policyDAO PolicyRepository, logger *logrus.Logger) *PolicyService {
	return &PolicyService{
		policyDAO: policyDAO,
		logger:    logger,
	}
}

// GetActivePolicy returns the active policy, or nil when none is active
func (s *PolicyService) GetActivePolicy(ctx context.Context) (*models.CookiePolicy, error) {
	return s.policyDAO.GetActive(ctx)
}

// GetPolicyByVersion returns the policy with the given version
func (s *PolicyService) GetPolicyByVersion(ctx context.Context, version string) (*models.CookiePolicy, error) {
	policy, err := s.policyDAO.GetByVersion(ctx, version)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: version %s", ErrPolicyNotFound, version)
	}
	return policy, nil
}

// ListVersions returns summaries of all stored policy versions
func (s *PolicyService) ListVersions(ctx context.Context) ([]models.PolicyVersionInfo, error) {
	return s.policyDAO.ListVersions(ctx)
}

// Activate makes the given version the single active policy
func (s *PolicyService) Activate(ctx context.Context, version string) error {
	policy, err := s.policyDAO.GetByVersion(ctx, version)
	if err != nil {
		return err
	}
	if policy == nil {
		return fmt.Errorf("%w: version %s", ErrPolicyNotFound, version)
	}

	if err := s.policyDAO.Activate(ctx, version); err != nil {
		return err
	}
	s.logger.WithField("version", version).Info("Cookie policy activated")
	return nil
}

// Delete removes a stored policy version and its categories, cookies and
// services. The active policy cannot be deleted; activate another version
// first.
func (s *PolicyService) Delete(ctx context.Context, version string) error {
	policy, err := s.policyDAO.GetByVersion(ctx, version)
	if err != nil {
		return err
	}
	if policy == nil {
		return fmt.Errorf("%w: version %s", ErrPolicyNotFound, version)
	}
	if policy.IsActive {
		return fmt.Errorf("%w: version %s", ErrPolicyActive, version)
	}

	if err := s.policyDAO.Delete(ctx, version); err != nil {
		return err
	}
	s.logger.WithField("version", version).Info("Cookie policy deleted")
	return nil
}

// Export serializes a policy into the portable export format. An empty
// version exports the active policy.
func (s *PolicyService) Export(ctx context.Context, version string) (*models.PolicyExportFile, error) {
	var policy *models.CookiePolicy
	var err error

	if version == "" {
		policy, err = s.policyDAO.GetActive(ctx)
		if err != nil {
			return nil, err
		}
		if policy == nil {
			return nil, ErrNoActivePolicy
		}
	} else {
		policy, err = s.GetPolicyByVersion(ctx, version)
		if err != nil {
			return nil, err
		}
	}

	return &models.PolicyExportFile{CookiePolicy: policy.ToExport()}, nil
}

// Import stores a policy from the portable export format. When a policy
// with the same version already exists the import fails unless force is
// set, in which case the existing policy is replaced. When activate is set
// the imported policy becomes the active one.
func (s *PolicyService) Import(ctx context.Context, file *models.PolicyExportFile, force, activate bool) (*models.CookiePolicy, error) {
	policy, err := models.FromExport(file.CookiePolicy)
	if err != nil {
		return nil, err
	}

	existing, err := s.policyDAO.GetByVersion(ctx, policy.Version)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !force {
			return nil, fmt.Errorf("%w: version %s", ErrPolicyVersionExists, policy.Version)
		}
		if err := s.policyDAO.Delete(ctx, existing.Version); err != nil {
			return nil, fmt.Errorf("failed to replace existing policy: %w", err)
		}
	}

	policy.IsActive = activate
	if err := s.policyDAO.Create(ctx, policy); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"version":  policy.Version,
		"active":   activate,
		"replaced": existing != nil,
	}).Info("Cookie policy imported")
	return policy, nil
}
