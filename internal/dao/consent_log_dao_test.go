package dao

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masilia/consent-bundle/internal/models"
)

// TestSave_InsertsAllColumns tests the append of a full audit entry.
func TestSave_InsertsAllColumns(t *testing.T) {
	db, mock := newMockDB(t)

	ip := "203.0.113.0"
	userAgent := "test-agent"
	entry := &models.ConsentLog{
		LogID:         "LOG-1",
		SessionID:     "session-1",
		PolicyVersion: "2.0.0",
		Preferences:   models.JSON(`{"analytics":true}`),
		IPAddress:     &ip,
		UserAgent:     &userAgent,
		CreatedAt:     time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO CONSENT_LOG").
		WithArgs(entry.LogID, entry.SessionID, entry.PolicyVersion, entry.Preferences,
			nil, &ip, &userAgent, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := NewConsentLogDAO(db).Save(context.Background(), entry)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestFindBySessionID_NoEntry tests that an unknown session maps to
// (nil, nil).
func TestFindBySessionID_NoEntry(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM CONSENT_LOG").
		WithArgs("session-unknown").
		WillReturnRows(sqlmock.NewRows([]string{"LOG_ID"}))

	log, err := NewConsentLogDAO(db).FindBySessionID(context.Background(), "session-unknown")

	assert.NoError(t, err)
	assert.Nil(t, log)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestFindBySessionID_ReturnsNewest tests that the newest entry comes back.
func TestFindBySessionID_ReturnsNewest(t *testing.T) {
	db, mock := newMockDB(t)

	now := time.Now().UTC()
	mock.ExpectQuery("FROM CONSENT_LOG").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"LOG_ID", "SESSION_ID", "POLICY_VERSION", "PREFERENCES",
			"USER_ID", "IP_ADDRESS", "USER_AGENT", "CREATED_AT",
		}).AddRow("LOG-2", "session-1", "2.0.0", `{"analytics":false}`, nil, nil, nil, now))

	log, err := NewConsentLogDAO(db).FindBySessionID(context.Background(), "session-1")

	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, "LOG-2", log.LogID)
	assert.Equal(t, "2.0.0", log.PolicyVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCountBetween tests the window count query.
func TestCountBetween(t *testing.T) {
	db, mock := newMockDB(t)

	from := time.Now().Add(-24 * time.Hour)
	to := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM CONSENT_LOG`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(42))

	count, err := NewConsentLogDAO(db).CountBetween(context.Background(), from, to)

	assert.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
