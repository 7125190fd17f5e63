package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-portal-api/internal/models"
)

// ErrVersionConflict reports a full-record overwrite whose version check
// failed because the stored record advanced since it was read.
var ErrVersionConflict = errors.New("record version conflict")

const paperColumns = `id, school_id, teacher_id, class, subject, exam_type, duration, declared_total_marks, status, version, sections, created_at, updated_at`

// PaperRepository persists question papers. The section tree is one JSONB
// column rewritten in full on every save; there is no field-level patching.
type PaperRepository struct {
	db *sqlx.DB
}

// NewPaperRepository creates a new repository instance.
func NewPaperRepository(db *sqlx.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

// Create inserts a new paper and assigns its record id.
func (r *PaperRepository) Create(ctx context.Context, paper *models.Paper) error {
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	paper.CreatedAt = now
	paper.UpdatedAt = now
	paper.Version = 1
	const query = `INSERT INTO question_papers (` + paperColumns + `)
        VALUES (:id, :school_id, :teacher_id, :class, :subject, :exam_type, :duration, :declared_total_marks, :status, :version, :sections, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, paper); err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}
	return nil
}

// FindByID loads a paper with its full section tree.
func (r *PaperRepository) FindByID(ctx context.Context, id string) (*models.Paper, error) {
	const query = `SELECT ` + paperColumns + ` FROM question_papers WHERE id = $1`
	var paper models.Paper
	if err := r.db.GetContext(ctx, &paper, query, id); err != nil {
		return nil, err
	}
	return &paper, nil
}

// Update overwrites the whole record. The write carries the version the
// caller read; a stale version affects zero rows and returns
// ErrVersionConflict so lost updates surface instead of silently winning.
func (r *PaperRepository) Update(ctx context.Context, paper *models.Paper) error {
	paper.UpdatedAt = time.Now().UTC()
	const query = `UPDATE question_papers
        SET class = :class, subject = :subject, exam_type = :exam_type, duration = :duration,
            declared_total_marks = :declared_total_marks, status = :status, sections = :sections,
            version = version + 1, updated_at = :updated_at
        WHERE id = :id AND version = :version`
	res, err := r.db.NamedExecContext(ctx, query, paper)
	if err != nil {
		return fmt.Errorf("update paper: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update paper result: %w", err)
	}
	if rows == 0 {
		return ErrVersionConflict
	}
	paper.Version++
	return nil
}

// List returns papers matching the filter with total count.
func (r *PaperRepository) List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.SchoolID != "" {
		where += fmt.Sprintf(" AND school_id = $%d", len(args)+1)
		args = append(args, filter.SchoolID)
	}
	if filter.TeacherID != "" {
		where += fmt.Sprintf(" AND teacher_id = $%d", len(args)+1)
		args = append(args, filter.TeacherID)
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.Class != "" {
		where += fmt.Sprintf(" AND class = $%d", len(args)+1)
		args = append(args, filter.Class)
	}
	if filter.Subject != "" {
		where += fmt.Sprintf(" AND subject = $%d", len(args)+1)
		args = append(args, filter.Subject)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := `SELECT ` + paperColumns + ` FROM question_papers` + where +
		fmt.Sprintf(" ORDER BY updated_at DESC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	var papers []models.Paper
	if err := r.db.SelectContext(ctx, &papers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list papers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM question_papers"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count papers: %w", err)
	}
	return papers, total, nil
}

// Delete removes a paper record.
func (r *PaperRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM question_papers WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	return nil
}
