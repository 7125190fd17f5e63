package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-portal-api/internal/models"
)

const teacherColumns = `id, school_id, user_id, full_name, email, phone, active, created_at, updated_at`

// TeacherRepository manages teacher roster persistence.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new repository instance.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// CreateTx inserts a teacher profile inside an existing transaction so the
// linked user row and profile commit together.
func (r *TeacherRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (` + teacherColumns + `)
        VALUES (:id, :school_id, :user_id, :full_name, :email, :phone, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("insert teacher: %w", err)
	}
	return nil
}

// Begin opens a transaction for multi-row teacher writes.
func (r *TeacherRepository) Begin(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// FindByID returns a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT ` + teacherColumns + ` FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByUserID returns the teacher profile linked to a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	const query = `SELECT ` + teacherColumns + ` FROM teachers WHERE user_id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// List returns teachers matching the filter with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	where := " WHERE school_id = $1"
	args := []interface{}{filter.SchoolID}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		where += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := `SELECT ` + teacherColumns + ` FROM teachers` + where +
		fmt.Sprintf(" ORDER BY full_name LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM teachers"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// Update replaces teacher profile fields.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET full_name = :full_name, email = :email, phone = :phone,
        active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// AddSubject maps a subject+class to a teacher.
func (r *TeacherRepository) AddSubject(ctx context.Context, subject *models.TeacherSubject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	subject.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO teacher_subjects (id, teacher_id, subject, class, created_at)
        VALUES (:id, :teacher_id, :subject, :class, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("insert teacher subject: %w", err)
	}
	return nil
}

// ListSubjects returns a teacher's subject assignments.
func (r *TeacherRepository) ListSubjects(ctx context.Context, teacherID string) ([]models.TeacherSubject, error) {
	const query = `SELECT id, teacher_id, subject, class, created_at FROM teacher_subjects WHERE teacher_id = $1 ORDER BY subject, class`
	var subjects []models.TeacherSubject
	if err := r.db.SelectContext(ctx, &subjects, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return subjects, nil
}

// DeleteSubject removes one subject assignment.
func (r *TeacherRepository) DeleteSubject(ctx context.Context, teacherID, subjectID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM teacher_subjects WHERE id = $1 AND teacher_id = $2", subjectID, teacherID); err != nil {
		return fmt.Errorf("delete teacher subject: %w", err)
	}
	return nil
}
