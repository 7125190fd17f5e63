package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/school-portal-api/internal/models"
)

const schoolColumns = `id, name, address, city, board, phone, email, created_at, updated_at`

// SchoolRepository manages school and book catalogue persistence.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository creates a new repository instance.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// Begin starts a transaction for multi-table writes such as registering a
// school together with its admin account.
func (r *SchoolRepository) Begin(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// Create inserts a school.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now
	const query = `INSERT INTO schools (` + schoolColumns + `)
        VALUES (:id, :name, :address, :city, :board, :phone, :email, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("insert school: %w", err)
	}
	return nil
}

// CreateTx inserts a school inside an existing transaction.
func (r *SchoolRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now
	const query = `INSERT INTO schools (` + schoolColumns + `)
        VALUES (:id, :name, :address, :city, :board, :phone, :email, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("insert school: %w", err)
	}
	return nil
}

// FindByID returns a school by id.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT ` + schoolColumns + ` FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		return nil, err
	}
	return &school, nil
}

// Update replaces school profile fields.
func (r *SchoolRepository) Update(ctx context.Context, school *models.School) error {
	school.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schools SET name = :name, address = :address, city = :city, board = :board,
        phone = :phone, email = :email, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	return nil
}

// AddBook inserts a book catalogue entry.
func (r *SchoolRepository) AddBook(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	book.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO books (id, school_id, title, author, subject, class, created_at)
        VALUES (:id, :school_id, :title, :author, :subject, :class, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, book); err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// ListBooks returns a school's book catalogue, optionally filtered by class.
func (r *SchoolRepository) ListBooks(ctx context.Context, schoolID, class string) ([]models.Book, error) {
	query := `SELECT id, school_id, title, author, subject, class, created_at FROM books WHERE school_id = $1`
	args := []interface{}{schoolID}
	if class != "" {
		query += " AND class = $2"
		args = append(args, class)
	}
	query += " ORDER BY title"
	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// DeleteBook removes a book entry scoped to its school.
func (r *SchoolRepository) DeleteBook(ctx context.Context, schoolID, bookID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM books WHERE id = $1 AND school_id = $2", bookID, schoolID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}
