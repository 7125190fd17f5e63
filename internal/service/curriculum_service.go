package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type curriculumRepository interface {
	CreateEntry(ctx context.Context, entry *models.CurriculumEntry) error
	FindEntryByID(ctx context.Context, id string) (*models.CurriculumEntry, error)
	ListEntries(ctx context.Context, teacherID, subject, class string) ([]models.CurriculumEntry, error)
	UpdateEntry(ctx context.Context, entry *models.CurriculumEntry) error
	DeleteEntry(ctx context.Context, teacherID, id string) error
	CreateLog(ctx context.Context, log *models.TeachingLog) error
	ListLogs(ctx context.Context, teacherID string, from, to *time.Time) ([]models.TeachingLog, error)
}

// CreateCurriculumEntryRequest plans a chapter/topic.
type CreateCurriculumEntryRequest struct {
	Subject string `json:"subject" validate:"required"`
	Class   string `json:"class" validate:"required"`
	Chapter string `json:"chapter" validate:"required"`
	Topic   string `json:"topic"`
}

// UpdateCurriculumEntryRequest edits a planned entry.
type UpdateCurriculumEntryRequest struct {
	Chapter string                  `json:"chapter"`
	Topic   string                  `json:"topic"`
	Status  models.CurriculumStatus `json:"status" validate:"omitempty,oneof=PLANNED IN_PROGRESS COMPLETED"`
}

// CreateTeachingLogRequest records a daily class log.
type CreateTeachingLogRequest struct {
	Class   string    `json:"class" validate:"required"`
	Subject string    `json:"subject" validate:"required"`
	Topic   string    `json:"topic" validate:"required"`
	Notes   string    `json:"notes"`
	LogDate time.Time `json:"log_date"`
}

// CurriculumService manages curriculum planning and daily teaching logs.
type CurriculumService struct {
	curriculum curriculumRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCurriculumService constructs a CurriculumService instance.
func NewCurriculumService(curriculum curriculumRepository, validate *validator.Validate, logger *zap.Logger) *CurriculumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CurriculumService{curriculum: curriculum, validator: validate, logger: logger}
}

// CreateEntry plans a new curriculum entry.
func (s *CurriculumService) CreateEntry(ctx context.Context, schoolID, teacherID string, req CreateCurriculumEntryRequest) (*models.CurriculumEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curriculum payload")
	}
	entry := &models.CurriculumEntry{
		SchoolID:  schoolID,
		TeacherID: teacherID,
		Subject:   req.Subject,
		Class:     req.Class,
		Chapter:   req.Chapter,
		Topic:     req.Topic,
		Status:    models.CurriculumPlanned,
	}
	if err := s.curriculum.CreateEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create curriculum entry")
	}
	return entry, nil
}

// ListEntries returns a teacher's plan for a subject/class.
func (s *CurriculumService) ListEntries(ctx context.Context, teacherID, subject, class string) ([]models.CurriculumEntry, error) {
	entries, err := s.curriculum.ListEntries(ctx, teacherID, subject, class)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list curriculum entries")
	}
	return entries, nil
}

// UpdateEntry edits a planned entry; marking COMPLETED stamps the time.
func (s *CurriculumService) UpdateEntry(ctx context.Context, teacherID, entryID string, req UpdateCurriculumEntryRequest) (*models.CurriculumEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curriculum payload")
	}

	entry, err := s.curriculum.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "curriculum entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum entry")
	}
	if entry.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "entry belongs to another teacher")
	}

	if req.Chapter != "" {
		entry.Chapter = req.Chapter
	}
	if req.Topic != "" {
		entry.Topic = req.Topic
	}
	if req.Status != "" {
		entry.Status = req.Status
		if req.Status == models.CurriculumCompleted && entry.CompletedAt == nil {
			now := time.Now().UTC()
			entry.CompletedAt = &now
		}
	}
	if err := s.curriculum.UpdateEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update curriculum entry")
	}
	return entry, nil
}

// DeleteEntry removes a planned entry.
func (s *CurriculumService) DeleteEntry(ctx context.Context, teacherID, entryID string) error {
	if err := s.curriculum.DeleteEntry(ctx, teacherID, entryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete curriculum entry")
	}
	return nil
}

// CreateLog records a daily class log entry.
func (s *CurriculumService) CreateLog(ctx context.Context, schoolID, teacherID string, req CreateTeachingLogRequest) (*models.TeachingLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid log payload")
	}
	logDate := req.LogDate
	if logDate.IsZero() {
		logDate = time.Now().UTC()
	}
	entry := &models.TeachingLog{
		SchoolID:  schoolID,
		TeacherID: teacherID,
		Class:     req.Class,
		Subject:   req.Subject,
		Topic:     req.Topic,
		Notes:     req.Notes,
		LogDate:   logDate,
	}
	if err := s.curriculum.CreateLog(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teaching log")
	}
	return entry, nil
}

// ListLogs returns a teacher's class logs within an optional date range.
func (s *CurriculumService) ListLogs(ctx context.Context, teacherID string, from, to *time.Time) ([]models.TeachingLog, error) {
	logs, err := s.curriculum.ListLogs(ctx, teacherID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teaching logs")
	}
	return logs, nil
}
