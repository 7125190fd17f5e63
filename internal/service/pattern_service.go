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

type patternRepository interface {
	Create(ctx context.Context, pattern *models.PaperPattern) error
	FindByID(ctx context.Context, id string) (*models.PaperPattern, error)
	List(ctx context.Context, teacherID string) ([]models.PaperPattern, error)
	Delete(ctx context.Context, teacherID, id string) error
}

// CreatePatternRequest saves a reusable paper blueprint.
type CreatePatternRequest struct {
	Name               string                    `json:"name" validate:"required"`
	Class              string                    `json:"class" validate:"required"`
	Subject            string                    `json:"subject" validate:"required"`
	ExamType           string                    `json:"exam_type"`
	Duration           string                    `json:"duration"`
	DeclaredTotalMarks int                       `json:"declared_total_marks" validate:"gte=0"`
	Sections           models.PatternSectionList `json:"sections" validate:"required,min=1"`
}

// PatternService manages reusable paper blueprints.
type PatternService struct {
	patterns  patternRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPatternService constructs a PatternService instance.
func NewPatternService(patterns patternRepository, validate *validator.Validate, logger *zap.Logger) *PatternService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PatternService{patterns: patterns, validator: validate, logger: logger}
}

// Create saves a pattern for later instantiation.
func (s *PatternService) Create(ctx context.Context, schoolID, teacherID string, req CreatePatternRequest) (*models.PaperPattern, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pattern payload")
	}
	pattern := &models.PaperPattern{
		SchoolID:           schoolID,
		TeacherID:          teacherID,
		Name:               req.Name,
		Class:              req.Class,
		Subject:            req.Subject,
		ExamType:           req.ExamType,
		Duration:           req.Duration,
		DeclaredTotalMarks: req.DeclaredTotalMarks,
		Sections:           req.Sections,
	}
	if err := s.patterns.Create(ctx, pattern); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save pattern")
	}
	return pattern, nil
}

// Get returns one pattern.
func (s *PatternService) Get(ctx context.Context, schoolID, patternID string) (*models.PaperPattern, error) {
	pattern, err := s.patterns.FindByID(ctx, patternID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pattern not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pattern")
	}
	if pattern.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "pattern belongs to another school")
	}
	return pattern, nil
}

// List returns a teacher's saved patterns.
func (s *PatternService) List(ctx context.Context, teacherID string) ([]models.PaperPattern, error) {
	patterns, err := s.patterns.List(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list patterns")
	}
	return patterns, nil
}

// Delete removes a pattern.
func (s *PatternService) Delete(ctx context.Context, teacherID, patternID string) error {
	if err := s.patterns.Delete(ctx, teacherID, patternID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete pattern")
	}
	return nil
}
