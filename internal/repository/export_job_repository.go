package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-portal-api/internal/models"
)

const exportJobColumns = `id, paper_id, format, status, result_path, created_by, created_at, finished_at, error_message`

// ExportJobRepository persists background export job metadata.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository creates a new repository instance.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a queued export job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = models.ExportStatusQueued
	job.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO export_jobs (` + exportJobColumns + `)
        VALUES (:id, :paper_id, :format, :status, :result_path, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("insert export job: %w", err)
	}
	return nil
}

// GetByID returns one export job.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT ` + exportJobColumns + ` FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateExportJobParams holds optional job status fields to update.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	ResultPath   *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies the provided status fields to a job.
func (r *ExportJobRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	sets := []string{}
	args := []interface{}{id}
	if params.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *params.Status)
	}
	if params.ResultPath != nil {
		sets = append(sets, fmt.Sprintf("result_path = $%d", len(args)+1))
		args = append(args, *params.ResultPath)
	}
	if params.ErrorMessage != nil {
		sets = append(sets, fmt.Sprintf("error_message = $%d", len(args)+1))
		args = append(args, *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		sets = append(sets, fmt.Sprintf("finished_at = $%d", len(args)+1))
		args = append(args, *params.FinishedAt)
	}
	if len(sets) == 0 {
		return nil
	}
	query := "UPDATE export_jobs SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += " WHERE id = $1"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	return nil
}
