package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-portal-api/internal/models"
)

// ApprovalRepository manages the exam approval fan-out. The approver-scoped
// and school-scoped request rows plus the paper status change are committed
// in one transaction so the three views never disagree.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository creates a new repository instance.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

const examRequestColumns = `id, paper_id, school_id, teacher_id, approver_id, status, message, decided_at, created_at`

// SubmitForApproval overwrites the paper record with PENDING_APPROVAL status
// (version-checked) and fans the request out to both request tables.
func (r *ApprovalRepository) SubmitForApproval(ctx context.Context, paper *models.Paper, req *models.ExamRequest) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	paper.Status = models.PaperStatusPendingApproval
	paper.UpdatedAt = time.Now().UTC()
	const updatePaper = `UPDATE question_papers
        SET class = :class, subject = :subject, exam_type = :exam_type, duration = :duration,
            declared_total_marks = :declared_total_marks, status = :status, sections = :sections,
            version = version + 1, updated_at = :updated_at
        WHERE id = :id AND version = :version`
	res, err := tx.NamedExecContext(ctx, updatePaper, paper)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update paper for approval: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil || rows == 0 {
		tx.Rollback() //nolint:errcheck
		if err != nil {
			return fmt.Errorf("update paper result: %w", err)
		}
		return ErrVersionConflict
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.PaperID = paper.ID
	req.SchoolID = paper.SchoolID
	req.Status = models.ExamRequestPending
	req.CreatedAt = time.Now().UTC()

	for _, table := range []string{"teacher_exam_requests", "school_exam_requests"} {
		query := `INSERT INTO ` + table + ` (` + examRequestColumns + `)
            VALUES (:id, :paper_id, :school_id, :teacher_id, :approver_id, :status, :message, :decided_at, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approval fan-out: %w", err)
	}
	paper.Version++
	return nil
}

// ListByApprover returns pending requests from the approver-scoped table.
func (r *ApprovalRepository) ListByApprover(ctx context.Context, approverID string, status models.ExamRequestStatus) ([]models.ExamRequest, error) {
	query := `SELECT ` + examRequestColumns + ` FROM teacher_exam_requests WHERE approver_id = $1`
	args := []interface{}{approverID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"
	var requests []models.ExamRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list approver requests: %w", err)
	}
	return requests, nil
}

// ListBySchool returns requests from the school-scoped table.
func (r *ApprovalRepository) ListBySchool(ctx context.Context, schoolID string, status models.ExamRequestStatus) ([]models.ExamRequest, error) {
	query := `SELECT ` + examRequestColumns + ` FROM school_exam_requests WHERE school_id = $1`
	args := []interface{}{schoolID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"
	var requests []models.ExamRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list school requests: %w", err)
	}
	return requests, nil
}

// FindByPaper returns the approver-scoped request for a paper.
func (r *ApprovalRepository) FindByPaper(ctx context.Context, paperID string) (*models.ExamRequest, error) {
	const query = `SELECT ` + examRequestColumns + ` FROM teacher_exam_requests WHERE paper_id = $1 ORDER BY created_at DESC LIMIT 1`
	var req models.ExamRequest
	if err := r.db.GetContext(ctx, &req, query, paperID); err != nil {
		return nil, err
	}
	return &req, nil
}

// Decide records the outcome on both request tables and advances the paper
// status, all in one transaction.
func (r *ApprovalRepository) Decide(ctx context.Context, paperID string, status models.ExamRequestStatus, paperStatus models.PaperStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, table := range []string{"teacher_exam_requests", "school_exam_requests"} {
		query := `UPDATE ` + table + ` SET status = $2, decided_at = $3 WHERE paper_id = $1`
		if _, err := tx.ExecContext(ctx, query, paperID, status, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("decide %s: %w", table, err)
		}
	}
	const updatePaper = `UPDATE question_papers SET status = $2, version = version + 1, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updatePaper, paperID, paperStatus, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update paper status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approval decision: %w", err)
	}
	return nil
}
