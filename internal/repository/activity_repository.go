package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-portal-api/internal/models"
)

// ActivityRepository persists the per-user activity trail.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new repository instance.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts one activity record.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.UserActivity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO user_activities (id, user_id, action, resource, resource_id, detail, ip_address, user_agent, created_at)
        VALUES (:id, :user_id, :action, :resource, :resource_id, :detail, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("insert user activity: %w", err)
	}
	return nil
}

// ListByUser returns the most recent activity for a user.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.UserActivity, error) {
	if limit < 1 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, user_id, action, resource, resource_id, detail, ip_address, user_agent, created_at
        FROM user_activities WHERE user_id = $1 ORDER BY created_at DESC LIMIT %d`, limit)
	var activities []models.UserActivity
	if err := r.db.SelectContext(ctx, &activities, query, userID); err != nil {
		return nil, fmt.Errorf("list user activities: %w", err)
	}
	return activities, nil
}
