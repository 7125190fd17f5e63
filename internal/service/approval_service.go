package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/repository"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type approvalRepository interface {
	SubmitForApproval(ctx context.Context, paper *models.Paper, req *models.ExamRequest) error
	ListByApprover(ctx context.Context, approverID string, status models.ExamRequestStatus) ([]models.ExamRequest, error)
	ListBySchool(ctx context.Context, schoolID string, status models.ExamRequestStatus) ([]models.ExamRequest, error)
	FindByPaper(ctx context.Context, paperID string) (*models.ExamRequest, error)
	Decide(ctx context.Context, paperID string, status models.ExamRequestStatus, paperStatus models.PaperStatus) error
}

type approvalPaperReader interface {
	FindByID(ctx context.Context, id string) (*models.Paper, error)
}

// SendForApprovalRequest submits a paper to an approver.
type SendForApprovalRequest struct {
	Version    int    `json:"version" validate:"gte=1"`
	ApproverID string `json:"approver_id" validate:"required"`
	Message    string `json:"message"`
}

// DecideApprovalRequest records an approver's verdict.
type DecideApprovalRequest struct {
	Approve bool   `json:"approve"`
	Message string `json:"message"`
}

// ApprovalService runs the exam approval workflow: submission fans out to the
// approver-scoped and school-scoped request tables together with the paper
// status change, in one transaction.
type ApprovalService struct {
	approvals approvalRepository
	papers    approvalPaperReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApprovalService constructs an ApprovalService instance.
func NewApprovalService(approvals approvalRepository, papers approvalPaperReader, validate *validator.Validate, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ApprovalService{approvals: approvals, papers: papers, validator: validate, logger: logger}
}

// Submit sends a paper for approval.
func (s *ApprovalService) Submit(ctx context.Context, schoolID, teacherID, paperID string, req SendForApprovalRequest) (*models.ExamRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	paper, err := s.papers.FindByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}
	if paper.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "paper belongs to another school")
	}
	if paper.Status == models.PaperStatusPendingApproval {
		return nil, appErrors.Clone(appErrors.ErrConflict, "paper is already pending approval")
	}

	paper.Version = req.Version
	request := &models.ExamRequest{
		TeacherID:  teacherID,
		ApproverID: req.ApproverID,
		Message:    req.Message,
	}
	if err := s.approvals.SubmitForApproval(ctx, paper, request); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, appErrors.Clone(appErrors.ErrVersionConflict, "paper was modified, reload and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit for approval")
	}

	s.logger.Info("paper submitted for approval",
		zap.String("paper_id", paperID),
		zap.String("approver_id", req.ApproverID))
	return request, nil
}

// PendingForApprover lists requests awaiting the given approver.
func (s *ApprovalService) PendingForApprover(ctx context.Context, approverID string) ([]models.ExamRequest, error) {
	requests, err := s.approvals.ListByApprover(ctx, approverID, models.ExamRequestPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approvals")
	}
	return requests, nil
}

// ListForSchool lists a school's requests, optionally filtered by status.
func (s *ApprovalService) ListForSchool(ctx context.Context, schoolID string, status models.ExamRequestStatus) ([]models.ExamRequest, error) {
	requests, err := s.approvals.ListBySchool(ctx, schoolID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approvals")
	}
	return requests, nil
}

// Decide approves or rejects a pending request. Approval advances the paper
// to APPROVED; rejection returns it to DRAFT for further editing.
func (s *ApprovalService) Decide(ctx context.Context, approverID, paperID string, req DecideApprovalRequest) (*models.ExamRequest, error) {
	request, err := s.approvals.FindByPaper(ctx, paperID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval request")
	}
	if request.ApproverID != approverID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "request is assigned to another approver")
	}
	if request.Status != models.ExamRequestPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request is already decided")
	}

	status := models.ExamRequestRejected
	paperStatus := models.PaperStatusDraft
	if req.Approve {
		status = models.ExamRequestApproved
		paperStatus = models.PaperStatusApproved
	}
	if err := s.approvals.Decide(ctx, paperID, status, paperStatus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	request.Status = status
	s.logger.Info("approval decided",
		zap.String("paper_id", paperID),
		zap.String("status", string(status)))
	return request, nil
}
