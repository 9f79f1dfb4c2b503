package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/masilia/consent-bundle/internal/models"
)

// ConsentLogReader is the query side of the audit trail.
type ConsentLogReader interface {
	FindBySessionID(ctx context.Context, sessionID string) (*models.ConsentLog, error)
	FindByUserID(ctx context.Context, userID string) ([]models.ConsentLog, error)
	CountBetween(ctx context.Context, from, to time.Time) (int, error)
	SnapshotCounts(ctx context.Context, from, to time.Time) ([]models.PreferenceSnapshotCount, error)
}

// AuditService exposes read access to the consent audit trail
type AuditService struct {
	logDAO ConsentLogReader
	logger *logrus.Logger
}

// NewAuditService creates a new audit service instance
func NewAuditService(logDAO ConsentLogReader, logger *logrus.Logger) *AuditService {
	return &AuditService{
		logDAO: logDAO,
		logger: logger,
	}
}

// LatestForSession returns the newest consent decision recorded for the
// session, or nil when none exists.
func (s *AuditService) LatestForSession(ctx context.Context, sessionID string) (*models.ConsentLog, error) {
	return s.logDAO.FindBySessionID(ctx, sessionID)
}

// HistoryForUser returns all consent decisions recorded for the user,
// newest first.
func (s *AuditService) HistoryForUser(ctx context.Context, userID string) ([]models.ConsentLog, error) {
	return s.logDAO.FindByUserID(ctx, userID)
}

// Statistics aggregates consent decisions in the given window
func (s *AuditService) Statistics(ctx context.Context, from, to time.Time) (*models.ConsentStatistics, error) {
	total, err := s.logDAO.CountBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.logDAO.SnapshotCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &models.ConsentStatistics{
		From:      from,
		To:        to,
		Total:     total,
		Snapshots: snapshots,
	}, nil
}
