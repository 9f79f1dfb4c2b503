package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/masilia/consent-bundle/internal/database"
	"github.com/masilia/consent-bundle/internal/models"
)

// ConsentLogDAO handles database operations for the consent audit trail.
// The table is append-only: there are no update or delete operations.
type ConsentLogDAO struct {
	db *database.DB
}

// NewConsentLogDAO creates a new ConsentLogDAO instance
func NewConsentLogDAO(db *database.DB) *ConsentLogDAO {
	return &ConsentLogDAO{db: db}
}

// Save appends a consent log entry
func (dao *ConsentLogDAO) Save(ctx context.Context, log *models.ConsentLog) error {
	query := `
		INSERT INTO CONSENT_LOG (
			LOG_ID, SESSION_ID, POLICY_VERSION, PREFERENCES,
			USER_ID, IP_ADDRESS, USER_AGENT, CREATED_AT
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		log.LogID,
		log.SessionID,
		log.PolicyVersion,
		log.Preferences,
		log.UserID,
		log.IPAddress,
		log.UserAgent,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save consent log: %w", err)
	}

	return nil
}

// FindBySessionID retrieves the most recent log entry for a session
func (dao *ConsentLogDAO) FindBySessionID(ctx context.Context, sessionID string) (*models.ConsentLog, error) {
	query := `
		SELECT LOG_ID, SESSION_ID, POLICY_VERSION, PREFERENCES,
		       USER_ID, IP_ADDRESS, USER_AGENT, CREATED_AT
		FROM CONSENT_LOG
		WHERE SESSION_ID = ?
		ORDER BY CREATED_AT DESC
		LIMIT 1
	`

	var logs []models.ConsentLog
	if err := dao.db.SelectContext(ctx, &logs, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to find consent log by session: %w", err)
	}
	if len(logs) == 0 {
		return nil, nil
	}

	return &logs[0], nil
}

// FindByUserID retrieves all log entries for a user, newest first
func (dao *ConsentLogDAO) FindByUserID(ctx context.Context, userID string) ([]models.ConsentLog, error) {
	query := `
		SELECT LOG_ID, SESSION_ID, POLICY_VERSION, PREFERENCES,
		       USER_ID, IP_ADDRESS, USER_AGENT, CREATED_AT
		FROM CONSENT_LOG
		WHERE USER_ID = ?
		ORDER BY CREATED_AT DESC
	`

	var logs []models.ConsentLog
	if err := dao.db.SelectContext(ctx, &logs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to find consent logs by user: %w", err)
	}

	return logs, nil
}

// CountBetween returns the number of consent decisions in a time window
func (dao *ConsentLogDAO) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	query := "SELECT COUNT(*) FROM CONSENT_LOG WHERE CREATED_AT BETWEEN ? AND ?"

	var count int
	if err := dao.db.GetContext(ctx, &count, query, from, to); err != nil {
		return 0, fmt.Errorf("failed to count consent logs: %w", err)
	}

	return count, nil
}

// SnapshotCounts groups consent decisions in a time window by their
// preference snapshot
func (dao *ConsentLogDAO) SnapshotCounts(ctx context.Context, from, to time.Time) ([]models.PreferenceSnapshotCount, error) {
	query := `
		SELECT PREFERENCES, COUNT(*) AS COUNT
		FROM CONSENT_LOG
		WHERE CREATED_AT BETWEEN ? AND ?
		GROUP BY PREFERENCES
		ORDER BY COUNT DESC
	`

	var counts []models.PreferenceSnapshotCount
	if err := dao.db.SelectContext(ctx, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to group consent snapshots: %w", err)
	}

	return counts, nil
}
