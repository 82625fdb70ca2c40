package services

import (
	"context"

	"hvac-backend/internal/logger"
	"hvac-backend/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	defaultActionLogLimit = 100
	maxActionLogLimit     = 500
)

// AdminActionLogService keeps the audit trail of dashboard actions.
type AdminActionLogService struct {
	Repo ActionLogStore
	log  *logrus.Entry
}

func NewAdminActionLogService(repo ActionLogStore) *AdminActionLogService {
	return &AdminActionLogService{Repo: repo, log: logger.For("audit")}
}

// Record stores entry. The action it describes has already happened, so a
// failure here is logged and never returned.
func (s *AdminActionLogService) Record(ctx context.Context, entry *models.AdminActionLog) {
	if s == nil || s.Repo == nil {
		return
	}
	if err := s.Repo.CreateActionLog(ctx, entry); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"action":    entry.ActionType,
			"target":    entry.TargetType,
			"target_id": entry.TargetID,
		}).Error("failed to record admin action")
	}
}

func (s *AdminActionLogService) List(ctx context.Context, filter models.ActionLogFilter) ([]models.AdminActionLog, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultActionLogLimit
	}
	if filter.Limit > maxActionLogLimit {
		filter.Limit = maxActionLogLimit
	}
	return s.Repo.ListActionLogs(ctx, filter)
}
