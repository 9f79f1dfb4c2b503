package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/masilia/consent-bundle/internal/database"
	"github.com/masilia/consent-bundle/internal/models"
	"github.com/masilia/consent-bundle/pkg/utils"
)

// PolicyDAO handles database operations for cookie policies
type PolicyDAO struct {
	db *database.DB
}

// NewPolicyDAO creates a new PolicyDAO instance
func NewPolicyDAO(db *database.DB) *PolicyDAO {
	return &PolicyDAO{db: db}
}

const selectPolicyColumns = `
	POLICY_ID, VERSION, LAST_UPDATED, EXPIRATION_DAYS, COOKIE_PREFIX,
	IS_ACTIVE, CREATED_AT, UPDATED_AT
`

// GetActive retrieves the active policy with its categories, cookies and
// third-party services. Returns nil without error when no policy is active.
func (dao *PolicyDAO) GetActive(ctx context.Context) (*models.CookiePolicy, error) {
	query := "SELECT" + selectPolicyColumns + "FROM COOKIE_POLICY WHERE IS_ACTIVE = 1"

	var policy models.CookiePolicy
	if err := dao.db.GetContext(ctx, &policy, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active policy: %w", err)
	}

	if err := dao.loadAggregate(ctx, &policy); err != nil {
		return nil, err
	}

	return &policy, nil
}

// GetByVersion retrieves a policy by version. Returns nil without error when
// the version is unknown.
func (dao *PolicyDAO) GetByVersion(ctx context.Context, version string) (*models.CookiePolicy, error) {
	query := "SELECT" + selectPolicyColumns + "FROM COOKIE_POLICY WHERE VERSION = ?"

	var policy models.CookiePolicy
	if err := dao.db.GetContext(ctx, &policy, query, version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get policy by version: %w", err)
	}

	if err := dao.loadAggregate(ctx, &policy); err != nil {
		return nil, err
	}

	return &policy, nil
}

// ListVersions retrieves all known policy versions, newest first.
func (dao *PolicyDAO) ListVersions(ctx context.Context) ([]models.PolicyVersionInfo, error) {
	query := `
		SELECT p.VERSION, p.IS_ACTIVE, p.LAST_UPDATED,
		       (SELECT COUNT(*) FROM COOKIE_CATEGORY c WHERE c.POLICY_ID = p.POLICY_ID) AS CATEGORY_COUNT
		FROM COOKIE_POLICY p
		ORDER BY p.CREATED_AT DESC
	`

	var versions []models.PolicyVersionInfo
	if err := dao.db.SelectContext(ctx, &versions, query); err != nil {
		return nil, fmt.Errorf("failed to list policy versions: %w", err)
	}

	return versions, nil
}

// Create inserts a policy aggregate in a single transaction. When the policy
// is marked active, all other policies are deactivated in the same
// transaction so the single-active invariant is never observable as broken.
func (dao *PolicyDAO) Create(ctx context.Context, policy *models.CookiePolicy) error {
	tx, err := dao.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if policy.PolicyID == "" {
		policy.PolicyID = utils.GenerateID()
	}

	if policy.IsActive {
		if _, err := tx.ExecContext(ctx, "UPDATE COOKIE_POLICY SET IS_ACTIVE = 0"); err != nil {
			return fmt.Errorf("failed to deactivate existing policies: %w", err)
		}
	}

	insertPolicy := `
		INSERT INTO COOKIE_POLICY (
			POLICY_ID, VERSION, LAST_UPDATED, EXPIRATION_DAYS, COOKIE_PREFIX,
			IS_ACTIVE, CREATED_AT, UPDATED_AT
		) VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())
	`
	if _, err := tx.ExecContext(ctx, insertPolicy,
		policy.PolicyID,
		policy.Version,
		policy.LastUpdated,
		policy.ExpirationDays,
		policy.CookiePrefix,
		policy.IsActive,
	); err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}

	insertCategory := `
		INSERT INTO COOKIE_CATEGORY (
			CATEGORY_ID, POLICY_ID, IDENTIFIER, NAME, DESCRIPTION,
			REQUIRED, DEFAULT_ENABLED, POSITION
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	insertCookie := `
		INSERT INTO COOKIE (
			COOKIE_ID, CATEGORY_ID, NAME, PURPOSE, PROVIDER, EXPIRY,
			SCRIPT_SRC, SCRIPT_ASYNC, INIT_CODE, POSITION
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range policy.Categories {
		category := &policy.Categories[i]
		if category.CategoryID == "" {
			category.CategoryID = utils.GenerateID()
		}
		category.PolicyID = policy.PolicyID

		if _, err := tx.ExecContext(ctx, insertCategory,
			category.CategoryID,
			category.PolicyID,
			category.Identifier,
			category.Name,
			category.Description,
			category.Required,
			category.DefaultEnabled,
			category.Position,
		); err != nil {
			return fmt.Errorf("failed to create category %q: %w", category.Identifier, err)
		}

		for j := range category.Cookies {
			cookie := &category.Cookies[j]
			if cookie.CookieID == "" {
				cookie.CookieID = utils.GenerateID()
			}
			cookie.CategoryID = category.CategoryID

			if _, err := tx.ExecContext(ctx, insertCookie,
				cookie.CookieID,
				cookie.CategoryID,
				cookie.Name,
				cookie.Purpose,
				cookie.Provider,
				cookie.Expiry,
				cookie.ScriptSrc,
				cookie.ScriptAsync,
				cookie.InitCode,
				cookie.Position,
			); err != nil {
				return fmt.Errorf("failed to create cookie %q: %w", cookie.Name, err)
			}
		}
	}

	insertService := `
		INSERT INTO THIRD_PARTY_SERVICE (
			SERVICE_ID, POLICY_ID, IDENTIFIER, NAME, CATEGORY, DESCRIPTION,
			PRIVACY_POLICY_URL, CONFIG_KEY, CONFIG_VALUE, ENABLED, POSITION
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range policy.ThirdPartyServices {
		service := &policy.ThirdPartyServices[i]
		if service.ServiceID == "" {
			service.ServiceID = utils.GenerateID()
		}
		service.PolicyID = policy.PolicyID

		if _, err := tx.ExecContext(ctx, insertService,
			service.ServiceID,
			service.PolicyID,
			service.Identifier,
			service.Name,
			service.Category,
			service.Description,
			service.PrivacyPolicyURL,
			service.ConfigKey,
			service.ConfigValue,
			service.Enabled,
			service.Position,
		); err != nil {
			return fmt.Errorf("failed to create third-party service %q: %w", service.Identifier, err)
		}
	}

	return tx.Commit()
}

// Activate sets exactly one policy active. Deactivation of all policies and
// activation of the target run in a single transaction; a concurrent reader
// never observes two active policies.
func (dao *PolicyDAO) Activate(ctx context.Context, version string) error {
	tx, err := dao.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE COOKIE_POLICY SET IS_ACTIVE = 0"); err != nil {
		return fmt.Errorf("failed to deactivate policies: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE COOKIE_POLICY SET IS_ACTIVE = 1, UPDATED_AT = NOW() WHERE VERSION = ?",
		version,
	)
	if err != nil {
		return fmt.Errorf("failed to activate policy %q: %w", version, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read activation result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("policy version %q not found", version)
	}

	return tx.Commit()
}

// Delete removes a policy and its owned rows. The service layer guards
// against deleting the active policy; child rows cascade via foreign keys.
func (dao *PolicyDAO) Delete(ctx context.Context, version string) error {
	result, err := dao.db.ExecContext(ctx, "DELETE FROM COOKIE_POLICY WHERE VERSION = ?", version)
	if err != nil {
		return fmt.Errorf("failed to delete policy %q: %w", version, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("policy version %q not found", version)
	}

	return nil
}

// loadAggregate populates the categories, cookies and third-party services
// owned by the policy, ordered by position.
func (dao *PolicyDAO) loadAggregate(ctx context.Context, policy *models.CookiePolicy) error {
	categoryQuery := `
		SELECT CATEGORY_ID, POLICY_ID, IDENTIFIER, NAME, DESCRIPTION,
		       REQUIRED, DEFAULT_ENABLED, POSITION
		FROM COOKIE_CATEGORY
		WHERE POLICY_ID = ?
		ORDER BY POSITION ASC
	`
	if err := dao.db.SelectContext(ctx, &policy.Categories, categoryQuery, policy.PolicyID); err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	cookieQuery := `
		SELECT COOKIE_ID, CATEGORY_ID, NAME, PURPOSE, PROVIDER, EXPIRY,
		       SCRIPT_SRC, SCRIPT_ASYNC, INIT_CODE, POSITION
		FROM COOKIE
		WHERE CATEGORY_ID = ?
		ORDER BY POSITION ASC
	`
	for i := range policy.Categories {
		category := &policy.Categories[i]
		if err := dao.db.SelectContext(ctx, &category.Cookies, cookieQuery, category.CategoryID); err != nil {
			return fmt.Errorf("failed to load cookies for category %q: %w", category.Identifier, err)
		}
	}

	serviceQuery := `
		SELECT SERVICE_ID, POLICY_ID, IDENTIFIER, NAME, CATEGORY, DESCRIPTION,
		       PRIVACY_POLICY_URL, CONFIG_KEY, CONFIG_VALUE, ENABLED, POSITION
		FROM THIRD_PARTY_SERVICE
		WHERE POLICY_ID = ?
		ORDER BY POSITION ASC
	`
	if err := dao.db.SelectContext(ctx, &policy.ThirdPartyServices, serviceQuery, policy.PolicyID); err != nil {
		return fmt.Errorf("failed to load third-party services: %w", err)
	}

	return nil
}
