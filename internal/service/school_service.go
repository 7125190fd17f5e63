package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type schoolRepository interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
	Update(ctx context.Context, school *models.School) error
	AddBook(ctx context.Context, book *models.Book) error
	ListBooks(ctx context.Context, schoolID, class string) ([]models.Book, error)
	DeleteBook(ctx context.Context, schoolID, bookID string) error
}

// UpdateSchoolRequest carries editable school profile fields.
type UpdateSchoolRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	Board   string `json:"board"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// AddBookRequest adds a reference book to the catalogue.
type AddBookRequest struct {
	Title   string `json:"title" validate:"required"`
	Author  string `json:"author"`
	Subject string `json:"subject"`
	Class   string `json:"class"`
}

// SchoolService manages the school profile and its book catalogue.
type SchoolService struct {
	schools   schoolRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService constructs a SchoolService instance.
func NewSchoolService(schools schoolRepository, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SchoolService{schools: schools, validator: validate, logger: logger}
}

// Get returns the school profile.
func (s *SchoolService) Get(ctx context.Context, schoolID string) (*models.School, error) {
	school, err := s.schools.FindByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	return school, nil
}

// Update replaces the school profile fields.
func (s *SchoolService) Update(ctx context.Context, schoolID string, req UpdateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}

	school, err := s.Get(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	school.Name = req.Name
	school.Address = req.Address
	school.City = req.City
	school.Board = req.Board
	school.Phone = req.Phone
	if req.Email != "" {
		school.Email = req.Email
	}
	if err := s.schools.Update(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update school")
	}
	return school, nil
}

// AddBook appends a book to the school's catalogue.
func (s *SchoolService) AddBook(ctx context.Context, schoolID string, req AddBookRequest) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid book payload")
	}
	book := &models.Book{
		SchoolID: schoolID,
		Title:    req.Title,
		Author:   req.Author,
		Subject:  req.Subject,
		Class:    req.Class,
	}
	if err := s.schools.AddBook(ctx, book); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add book")
	}
	return book, nil
}

// ListBooks returns the catalogue, optionally filtered by class.
func (s *SchoolService) ListBooks(ctx context.Context, schoolID, class string) ([]models.Book, error) {
	books, err := s.schools.ListBooks(ctx, schoolID, class)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list books")
	}
	return books, nil
}

// DeleteBook removes a catalogue entry.
func (s *SchoolService) DeleteBook(ctx context.Context, schoolID, bookID string) error {
	if err := s.schools.DeleteBook(ctx, schoolID, bookID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete book")
	}
	return nil
}
