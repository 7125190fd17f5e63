package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type activityRepository interface {
	Create(ctx context.Context, activity *models.UserActivity) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.UserActivity, error)
}

// ActivityService records and lists the per-user activity trail.
type ActivityService struct {
	activities activityRepository
	logger     *zap.Logger
}

// NewActivityService constructs an ActivityService instance.
func NewActivityService(activities activityRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{activities: activities, logger: logger}
}

// Record appends one activity entry. Failures are logged, never surfaced;
// the trail must not break the operation it describes.
func (s *ActivityService) Record(ctx context.Context, activity *models.UserActivity) {
	if err := s.activities.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to record activity", zap.Error(err))
	}
}

// ListForUser returns the most recent entries for a user.
func (s *ActivityService) ListForUser(ctx context.Context, userID string, limit int) ([]models.UserActivity, error) {
	entries, err := s.activities.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity")
	}
	return entries, nil
}
