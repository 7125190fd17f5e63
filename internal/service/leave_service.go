package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/repository"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type leaveRepository interface {
	Create(ctx context.Context, leave *models.LeaveApplication) error
	FindByID(ctx context.Context, id string) (*models.LeaveApplication, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveApplication, int, error)
	Decide(ctx context.Context, id string, status models.LeaveStatus, decidedBy string, decidedAt time.Time) error
}

// ApplyLeaveRequest is a teacher's leave application.
type ApplyLeaveRequest struct {
	FromDate time.Time `json:"from_date" validate:"required"`
	ToDate   time.Time `json:"to_date" validate:"required"`
	Reason   string    `json:"reason" validate:"required"`
}

// DecideLeaveRequest records the admin's verdict.
type DecideLeaveRequest struct {
	Approve bool `json:"approve"`
}

// LeaveService manages teacher leave applications.
type LeaveService struct {
	leaves    leaveRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService constructs a LeaveService instance.
func NewLeaveService(leaves leaveRepository, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LeaveService{leaves: leaves, validator: validate, logger: logger}
}

// Apply files a leave application.
func (s *LeaveService) Apply(ctx context.Context, schoolID, teacherID string, req ApplyLeaveRequest) (*models.LeaveApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	if req.ToDate.Before(req.FromDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to_date is before from_date")
	}
	leave := &models.LeaveApplication{
		SchoolID:  schoolID,
		TeacherID: teacherID,
		FromDate:  req.FromDate,
		ToDate:    req.ToDate,
		Reason:    req.Reason,
		Status:    models.LeavePending,
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave application")
	}
	s.logger.Info("leave applied",
		zap.String("leave_id", leave.ID),
		zap.String("teacher_id", teacherID))
	return leave, nil
}

// List returns leave applications matching the filter.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveApplication, int, error) {
	leaves, total, err := s.leaves.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave applications")
	}
	return leaves, total, nil
}

// Decide approves or rejects a pending application. Deciding an already
// decided application fails; the guard lives in the UPDATE's status check.
func (s *LeaveService) Decide(ctx context.Context, schoolID, adminID, leaveID string, req DecideLeaveRequest) (*models.LeaveApplication, error) {
	leave, err := s.leaves.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave application")
	}
	if leave.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application belongs to another school")
	}

	status := models.LeaveRejected
	if req.Approve {
		status = models.LeaveApproved
	}
	now := time.Now().UTC()
	if err := s.leaves.Decide(ctx, leaveID, status, adminID, now); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "application is already decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	leave.Status = status
	leave.DecidedBy = &adminID
	leave.DecidedAt = &now
	return leave, nil
}
