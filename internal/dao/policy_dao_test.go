package dao

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masilia/consent-bundle/internal/database"
)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return database.New(sqlx.NewDb(mockDB, "sqlmock"), logger), mock
}

func policyRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"POLICY_ID", "VERSION", "LAST_UPDATED", "EXPIRATION_DAYS", "COOKIE_PREFIX",
		"IS_ACTIVE", "CREATED_AT", "UPDATED_AT",
	}).AddRow("policy-1", "2.0.0", now, 365, "site_", true, now, now)
}

// TestGetActive_NoActivePolicy tests that no matching row maps to (nil, nil).
func TestGetActive_NoActivePolicy(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM COOKIE_POLICY WHERE IS_ACTIVE = 1").
		WillReturnRows(sqlmock.NewRows([]string{"POLICY_ID"}))

	policy, err := NewPolicyDAO(db).GetActive(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, policy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGetActive_LoadsAggregate tests that the active policy comes back with
// its categories, cookies and services attached.
func TestGetActive_LoadsAggregate(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM COOKIE_POLICY WHERE IS_ACTIVE = 1").WillReturnRows(policyRows())
	mock.ExpectQuery("FROM COOKIE_CATEGORY").WithArgs("policy-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"CATEGORY_ID", "POLICY_ID", "IDENTIFIER", "NAME", "DESCRIPTION",
			"REQUIRED", "DEFAULT_ENABLED", "POSITION",
		}).
			AddRow("cat-1", "policy-1", "essential", "Essential", "Required cookies", true, true, 0).
			AddRow("cat-2", "policy-1", "analytics", "Analytics", "Traffic measurement", false, false, 1))
	mock.ExpectQuery("FROM COOKIE").WithArgs("cat-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"COOKIE_ID", "CATEGORY_ID", "NAME", "PURPOSE", "PROVIDER", "EXPIRY",
			"SCRIPT_SRC", "SCRIPT_ASYNC", "INIT_CODE", "POSITION",
		}).AddRow("ck-1", "cat-1", "PHPSESSID", "Session", "site", "Session", nil, false, nil, 0))
	mock.ExpectQuery("FROM COOKIE").WithArgs("cat-2").
		WillReturnRows(sqlmock.NewRows([]string{
			"COOKIE_ID", "CATEGORY_ID", "NAME", "PURPOSE", "PROVIDER", "EXPIRY",
			"SCRIPT_SRC", "SCRIPT_ASYNC", "INIT_CODE", "POSITION",
		}).AddRow("ck-2", "cat-2", "_ga", "Statistics", "Google", "2 years",
			"https://example.com/ga.js", true, nil, 0))
	mock.ExpectQuery("FROM THIRD_PARTY_SERVICE").WithArgs("policy-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"SERVICE_ID", "POLICY_ID", "IDENTIFIER", "NAME", "CATEGORY", "DESCRIPTION",
			"PRIVACY_POLICY_URL", "CONFIG_KEY", "CONFIG_VALUE", "ENABLED", "POSITION",
		}))

	policy, err := NewPolicyDAO(db).GetActive(context.Background())

	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, "2.0.0", policy.Version)
	require.Len(t, policy.Categories, 2)
	assert.Equal(t, "essential", policy.Categories[0].Identifier)
	require.Len(t, policy.Categories[1].Cookies, 1)
	require.NotNil(t, policy.Categories[1].Cookies[0].ScriptSrc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestActivate_SingleTransaction tests that deactivating all policies and
// activating the target run inside one transaction.
func TestActivate_SingleTransaction(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE COOKIE_POLICY SET IS_ACTIVE = 0").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE COOKIE_POLICY SET IS_ACTIVE = 1").
		WithArgs("2.0.0").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewPolicyDAO(db).Activate(context.Background(), "2.0.0")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestActivate_UnknownVersionRollsBack tests that activating a version that
// matches no row fails and rolls the transaction back, leaving nothing
// active only inside the aborted transaction.
func TestActivate_UnknownVersionRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE COOKIE_POLICY SET IS_ACTIVE = 0").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE COOKIE_POLICY SET IS_ACTIVE = 1").
		WithArgs("9.9.9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewPolicyDAO(db).Activate(context.Background(), "9.9.9")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDelete_UnknownVersion tests that deleting a version that matches no
// row fails.
func TestDelete_UnknownVersion(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM COOKIE_POLICY").
		WithArgs("9.9.9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewPolicyDAO(db).Delete(context.Background(), "9.9.9")

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
