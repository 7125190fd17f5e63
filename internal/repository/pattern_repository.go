package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-portal-api/internal/models"
)

const patternColumns = `id, school_id, teacher_id, name, class, subject, exam_type, duration, declared_total_marks, sections, created_at`

// PatternRepository persists reusable paper patterns.
type PatternRepository struct {
	db *sqlx.DB
}

// NewPatternRepository creates a new repository instance.
func NewPatternRepository(db *sqlx.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

// Create inserts a paper pattern.
func (r *PatternRepository) Create(ctx context.Context, pattern *models.PaperPattern) error {
	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}
	pattern.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO paper_patterns (` + patternColumns + `)
        VALUES (:id, :school_id, :teacher_id, :name, :class, :subject, :exam_type, :duration, :declared_total_marks, :sections, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pattern); err != nil {
		return fmt.Errorf("insert paper pattern: %w", err)
	}
	return nil
}

// FindByID returns one pattern.
func (r *PatternRepository) FindByID(ctx context.Context, id string) (*models.PaperPattern, error) {
	const query = `SELECT ` + patternColumns + ` FROM paper_patterns WHERE id = $1`
	var pattern models.PaperPattern
	if err := r.db.GetContext(ctx, &pattern, query, id); err != nil {
		return nil, err
	}
	return &pattern, nil
}

// List returns a teacher's patterns.
func (r *PatternRepository) List(ctx context.Context, teacherID string) ([]models.PaperPattern, error) {
	const query = `SELECT ` + patternColumns + ` FROM paper_patterns WHERE teacher_id = $1 ORDER BY created_at DESC`
	var patterns []models.PaperPattern
	if err := r.db.SelectContext(ctx, &patterns, query, teacherID); err != nil {
		return nil, fmt.Errorf("list paper patterns: %w", err)
	}
	return patterns, nil
}

// Delete removes one pattern scoped to its owner.
func (r *PatternRepository) Delete(ctx context.Context, teacherID, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM paper_patterns WHERE id = $1 AND teacher_id = $2", id, teacherID); err != nil {
		return fmt.Errorf("delete paper pattern: %w", err)
	}
	return nil
}
