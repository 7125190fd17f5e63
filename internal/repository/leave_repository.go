package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-portal-api/internal/models"
)

const leaveColumns = `id, school_id, teacher_id, from_date, to_date, reason, status, decided_by, decided_at, created_at`

// LeaveRepository manages leave application persistence.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates a new repository instance.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create inserts a leave application in PENDING state.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveApplication) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	leave.Status = models.LeavePending
	leave.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO leave_applications (` + leaveColumns + `)
        VALUES (:id, :school_id, :teacher_id, :from_date, :to_date, :reason, :status, :decided_by, :decided_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("insert leave application: %w", err)
	}
	return nil
}

// FindByID returns one leave application.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveApplication, error) {
	const query = `SELECT ` + leaveColumns + ` FROM leave_applications WHERE id = $1`
	var leave models.LeaveApplication
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// List returns leave applications matching the filter with total count.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveApplication, int, error) {
	where := " WHERE school_id = $1"
	args := []interface{}{filter.SchoolID}
	if filter.TeacherID != "" {
		where += fmt.Sprintf(" AND teacher_id = $%d", len(args)+1)
		args = append(args, filter.TeacherID)
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := `SELECT ` + leaveColumns + ` FROM leave_applications` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	var leaves []models.LeaveApplication
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leave applications: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM leave_applications"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count leave applications: %w", err)
	}
	return leaves, total, nil
}

// Decide records the admin's decision on a pending application.
func (r *LeaveRepository) Decide(ctx context.Context, id string, status models.LeaveStatus, decidedBy string, decidedAt time.Time) error {
	const query = `UPDATE leave_applications SET status = $2, decided_by = $3, decided_at = $4 WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, status, decidedBy, decidedAt, models.LeavePending)
	if err != nil {
		return fmt.Errorf("decide leave application: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decide leave result: %w", err)
	}
	if rows == 0 {
		return ErrVersionConflict
	}
	return nil
}
