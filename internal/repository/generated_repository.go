package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-portal-api/internal/models"
)

const generatedColumns = `id, school_id, user_id, kind, title, payload, model, created_at`

// GeneratedRepository persists AI-generated artifacts.
type GeneratedRepository struct {
	db *sqlx.DB
}

// NewGeneratedRepository creates a new repository instance.
func NewGeneratedRepository(db *sqlx.DB) *GeneratedRepository {
	return &GeneratedRepository{db: db}
}

// Create inserts one generated artifact.
func (r *GeneratedRepository) Create(ctx context.Context, content *models.GeneratedContent) error {
	if content.ID == "" {
		content.ID = uuid.NewString()
	}
	content.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO generated_contents (` + generatedColumns + `)
        VALUES (:id, :school_id, :user_id, :kind, :title, :payload, :model, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, content); err != nil {
		return fmt.Errorf("insert generated content: %w", err)
	}
	return nil
}

// FindByID returns one artifact.
func (r *GeneratedRepository) FindByID(ctx context.Context, id string) (*models.GeneratedContent, error) {
	const query = `SELECT ` + generatedColumns + ` FROM generated_contents WHERE id = $1`
	var content models.GeneratedContent
	if err := r.db.GetContext(ctx, &content, query, id); err != nil {
		return nil, err
	}
	return &content, nil
}

// List returns a user's artifacts, optionally filtered by kind.
func (r *GeneratedRepository) List(ctx context.Context, userID string, kind models.GeneratedKind, limit int) ([]models.GeneratedContent, error) {
	if limit < 1 {
		limit = 50
	}
	query := `SELECT ` + generatedColumns + ` FROM generated_contents WHERE user_id = $1`
	args := []interface{}{userID}
	if kind != "" {
		query += " AND kind = $2"
		args = append(args, kind)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)
	var contents []models.GeneratedContent
	if err := r.db.SelectContext(ctx, &contents, query, args...); err != nil {
		return nil, fmt.Errorf("list generated contents: %w", err)
	}
	return contents, nil
}
