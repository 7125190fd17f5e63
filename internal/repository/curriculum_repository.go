package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-portal-api/internal/models"
)

const curriculumColumns = `id, school_id, teacher_id, subject, class, chapter, topic, status, completed_at, created_at, updated_at`

// CurriculumRepository manages curriculum entries and teaching logs.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository creates a new repository instance.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// CreateEntry inserts a curriculum entry.
func (r *CurriculumRepository) CreateEntry(ctx context.Context, entry *models.CurriculumEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	const query = `INSERT INTO curriculum_entries (` + curriculumColumns + `)
        VALUES (:id, :school_id, :teacher_id, :subject, :class, :chapter, :topic, :status, :completed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert curriculum entry: %w", err)
	}
	return nil
}

// FindEntryByID returns one curriculum entry.
func (r *CurriculumRepository) FindEntryByID(ctx context.Context, id string) (*models.CurriculumEntry, error) {
	const query = `SELECT ` + curriculumColumns + ` FROM curriculum_entries WHERE id = $1`
	var entry models.CurriculumEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries returns a teacher's curriculum, optionally scoped by subject and class.
func (r *CurriculumRepository) ListEntries(ctx context.Context, teacherID, subject, class string) ([]models.CurriculumEntry, error) {
	query := `SELECT ` + curriculumColumns + ` FROM curriculum_entries WHERE teacher_id = $1`
	args := []interface{}{teacherID}
	if subject != "" {
		query += fmt.Sprintf(" AND subject = $%d", len(args)+1)
		args = append(args, subject)
	}
	if class != "" {
		query += fmt.Sprintf(" AND class = $%d", len(args)+1)
		args = append(args, class)
	}
	query += " ORDER BY created_at"
	var entries []models.CurriculumEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list curriculum entries: %w", err)
	}
	return entries, nil
}

// UpdateEntry replaces entry fields.
func (r *CurriculumRepository) UpdateEntry(ctx context.Context, entry *models.CurriculumEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE curriculum_entries SET chapter = :chapter, topic = :topic, status = :status,
        completed_at = :completed_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update curriculum entry: %w", err)
	}
	return nil
}

// DeleteEntry removes one curriculum entry.
func (r *CurriculumRepository) DeleteEntry(ctx context.Context, teacherID, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM curriculum_entries WHERE id = $1 AND teacher_id = $2", id, teacherID); err != nil {
		return fmt.Errorf("delete curriculum entry: %w", err)
	}
	return nil
}

// CreateLog inserts a teaching log entry.
func (r *CurriculumRepository) CreateLog(ctx context.Context, log *models.TeachingLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	log.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO teaching_logs (id, school_id, teacher_id, class, subject, topic, notes, log_date, created_at)
        VALUES (:id, :school_id, :teacher_id, :class, :subject, :topic, :notes, :log_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("insert teaching log: %w", err)
	}
	return nil
}

// ListLogs returns a teacher's logs within an optional date window.
func (r *CurriculumRepository) ListLogs(ctx context.Context, teacherID string, from, to *time.Time) ([]models.TeachingLog, error) {
	query := `SELECT id, school_id, teacher_id, class, subject, topic, notes, log_date, created_at FROM teaching_logs WHERE teacher_id = $1`
	args := []interface{}{teacherID}
	if from != nil {
		query += fmt.Sprintf(" AND log_date >= $%d", len(args)+1)
		args = append(args, *from)
	}
	if to != nil {
		query += fmt.Sprintf(" AND log_date <= $%d", len(args)+1)
		args = append(args, *to)
	}
	query += " ORDER BY log_date DESC"
	var logs []models.TeachingLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("list teaching logs: %w", err)
	}
	return logs, nil
}
