package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/repository"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type paperRepository interface {
	Create(ctx context.Context, paper *models.Paper) error
	FindByID(ctx context.Context, id string) (*models.Paper, error)
	Update(ctx context.Context, paper *models.Paper) error
	List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error)
	Delete(ctx context.Context, id string) error
}

type patternReader interface {
	FindByID(ctx context.Context, id string) (*models.PaperPattern, error)
}

type saveLimiter interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// PaperConfig holds editor behaviour knobs.
type PaperConfig struct {
	SaveDebounceTTL time.Duration
	ListCacheTTL    time.Duration
}

// CreatePaperRequest starts a fresh manual draft.
type CreatePaperRequest struct {
	Class              string `json:"class" validate:"required"`
	Subject            string `json:"subject" validate:"required"`
	ExamType           string `json:"exam_type" validate:"required"`
	Duration           string `json:"duration"`
	DeclaredTotalMarks int    `json:"declared_total_marks" validate:"gte=0"`
}

// SavePaperRequest carries the full tree for an overwrite save.
type SavePaperRequest struct {
	Version            int                `json:"version" validate:"gte=1"`
	Class              string             `json:"class"`
	Subject            string             `json:"subject"`
	ExamType           string             `json:"exam_type"`
	Duration           string             `json:"duration"`
	DeclaredTotalMarks int                `json:"declared_total_marks"`
	Status             models.PaperStatus `json:"status"`
	Sections           models.SectionList `json:"sections"`
}

// ConfirmPaperRequest finalises a draft toward preview.
type ConfirmPaperRequest struct {
	Version             int  `json:"version" validate:"gte=1"`
	AcknowledgeMismatch bool `json:"acknowledge_mismatch"`
}

// SectionMarks reports per-section totals for the mismatch check.
type SectionMarks struct {
	SectionID          string `json:"section_id"`
	Name               string `json:"name"`
	DeclaredTotalMarks int    `json:"declared_total_marks"`
	ComputedTotal      int    `json:"computed_total"`
	Mismatch           bool   `json:"mismatch"`
}

// MarksSummary reports computed versus declared marks. Both values are
// reported side by side; neither replaces the other.
type MarksSummary struct {
	DeclaredTotalMarks int            `json:"declared_total_marks"`
	ComputedTotal      int            `json:"computed_total"`
	Mismatch           bool           `json:"mismatch"`
	Sections           []SectionMarks `json:"sections"`
}

// PaperService owns the exam paper lifecycle: drafting, tree edits,
// versioned overwrite saves and the marks mismatch check.
type PaperService struct {
	papers    paperRepository
	patterns  patternReader
	limiter   saveLimiter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	config    PaperConfig
}

// NewPaperService constructs a PaperService instance. limiter and cache may be
// nil, which disables duplicate-save suppression and list caching.
func NewPaperService(papers paperRepository, patterns patternReader, limiter saveLimiter, cache *CacheService, validate *validator.Validate, logger *zap.Logger, config PaperConfig) *PaperService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SaveDebounceTTL <= 0 {
		config.SaveDebounceTTL = 3 * time.Second
	}
	return &PaperService{papers: papers, patterns: patterns, limiter: limiter, cache: cache, validator: validate, logger: logger, config: config}
}

// CreateDraft opens a new manual paper: one default section with one default
// question.
func (s *PaperService) CreateDraft(ctx context.Context, schoolID, teacherID string, req CreatePaperRequest) (*models.Paper, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid paper payload")
	}
	paper := NewDraftPaper(schoolID, teacherID, req.Class, req.Subject, req.ExamType, req.Duration, req.DeclaredTotalMarks)
	if err := s.papers.Create(ctx, &paper); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create paper")
	}
	s.cache.Invalidate(ctx, "papers:list:"+schoolID+":*")
	s.logger.Info("paper draft created", zap.String("paper_id", paper.ID), zap.String("teacher_id", teacherID))
	return &paper, nil
}

// CreateFromPattern instantiates a saved pattern into a fresh draft: one
// section per blueprint entry, pre-filled with typed default questions.
func (s *PaperService) CreateFromPattern(ctx context.Context, schoolID, teacherID, patternID string) (*models.Paper, error) {
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

	paper := models.Paper{
		SchoolID:           schoolID,
		TeacherID:          teacherID,
		Class:              pattern.Class,
		Subject:            pattern.Subject,
		ExamType:           pattern.ExamType,
		Duration:           pattern.Duration,
		DeclaredTotalMarks: pattern.DeclaredTotalMarks,
		Status:             models.PaperStatusDraft,
	}
	for i, blueprint := range pattern.Sections {
		section := models.Section{
			ID:                 newNodeID(),
			Name:               blueprint.Name,
			DeclaredTotalMarks: blueprint.DeclaredTotalMarks,
		}
		if section.Name == "" {
			section.Name = sectionName(i)
		}
		qType, ok := models.NormalizeQuestionType(string(blueprint.QuestionType))
		if !ok {
			qType = models.QuestionShortAnswer
		}
		marks := blueprint.MarksPerQuestion
		if marks <= 0 {
			marks = defaultQuestionMarks
		}
		count := blueprint.QuestionCount
		if count < 1 {
			count = 1
		}
		for j := 0; j < count; j++ {
			section.Questions = append(section.Questions, models.Question{ID: newNodeID(), Type: qType, Marks: marks})
		}
		paper.Sections = append(paper.Sections, section)
	}
	if len(paper.Sections) == 0 {
		paper.Sections = models.SectionList{defaultSection(0)}
	}

	if err := s.papers.Create(ctx, &paper); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create paper")
	}
	s.cache.Invalidate(ctx, "papers:list:"+schoolID+":*")
	s.logger.Info("paper created from pattern",
		zap.String("paper_id", paper.ID),
		zap.String("pattern_id", patternID))
	return &paper, nil
}

// Get loads one paper with its tree.
func (s *PaperService) Get(ctx context.Context, schoolID, paperID string) (*models.Paper, error) {
	paper, err := s.loadScoped(ctx, schoolID, paperID)
	if err != nil {
		return nil, err
	}
	return paper, nil
}

type cachedPaperList struct {
	Papers []models.Paper `json:"papers"`
	Total  int            `json:"total"`
}

// List returns papers for a school with pagination. Listings are served from
// the cache when enabled; mutations invalidate the school's entries. The
// returned flag reports whether the result came from the cache.
func (s *PaperService) List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, bool, error) {
	key := paperListCacheKey(filter)
	var cached cachedPaperList
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.Papers, cached.Total, true, nil
	}

	papers, total, err := s.papers.List(ctx, filter)
	if err != nil {
		return nil, 0, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list papers")
	}
	if err := s.cache.Set(ctx, key, cachedPaperList{Papers: papers, Total: total}, s.config.ListCacheTTL); err != nil {
		s.logger.Warn("failed to cache paper listing", zap.Error(err))
	}
	return papers, total, false, nil
}

func paperListCacheKey(filter models.PaperFilter) string {
	return fmt.Sprintf("papers:list:%s:%s:%s:%s:%s:%d:%d",
		filter.SchoolID, filter.TeacherID, filter.Status, filter.Class, filter.Subject, filter.Page, filter.PageSize)
}

// Save overwrites the whole record with the submitted tree. The caller's
// version must match the stored one; a stale save returns VERSION_CONFLICT.
// A rapid identical re-save inside the debounce window (the double-click
// race) is rejected before touching the database.
func (s *PaperService) Save(ctx context.Context, schoolID, paperID string, req SavePaperRequest) (*models.Paper, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}

	if err := s.acquireSaveSlot(ctx, paperID); err != nil {
		return nil, err
	}

	paper, err := s.loadScoped(ctx, schoolID, paperID)
	if err != nil {
		return nil, err
	}

	paper.Class = req.Class
	paper.Subject = req.Subject
	paper.ExamType = req.ExamType
	paper.Duration = req.Duration
	paper.DeclaredTotalMarks = req.DeclaredTotalMarks
	if req.Status != "" {
		paper.Status = req.Status
	}
	paper.Sections = req.Sections
	paper.Version = req.Version

	if err := s.persist(ctx, paper); err != nil {
		return nil, err
	}

	summary := s.marksSummary(*paper)
	if summary.Mismatch {
		s.logger.Warn("paper saved with marks mismatch",
			zap.String("paper_id", paper.ID),
			zap.Int("declared", summary.DeclaredTotalMarks),
			zap.Int("computed", summary.ComputedTotal))
	}
	return paper, nil
}

// Structural edit entry points. Each loads the stored tree, applies one pure
// tree operation and writes the result back under the caller's version.

func (s *PaperService) AddSection(ctx context.Context, schoolID, paperID string, version int) (*models.Paper, error) {
	return s.mutate(ctx, schoolID, paperID, version, AddSection)
}

func (s *PaperService) UpdateSection(ctx context.Context, schoolID, paperID string, version int, sectionID string, upd SectionUpdate) (*models.Paper, error) {
	return s.mutate(ctx, schoolID, paperID, version, func(p models.Paper) models.Paper {
		return UpdateSection(p, sectionID, upd)
	})
}

func (s *PaperService) DeleteSection(ctx context.Context, schoolID, paperID string, version int, sectionID string) (*models.Paper, error) {
	return s.mutate(ctx, schoolID, paperID, version, func(p models.Paper) models.Paper {
		return DeleteSection(p, sectionID)
	})
}

func (s *PaperService) AddQuestion(ctx context.Context, schoolID, paperID string, version int, sectionID string) (*models.Paper, error) {
	return s.mutate(ctx, schoolID, paperID, version, func(p models.Paper) models.Paper {
		return AddQuestion(p, sectionID)
	})
}

func (s *PaperService) UpdateQuestion(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID string, upd QuestionUpdate) (*models.Paper, error) {
	if upd.Type != nil {
		normalized, ok := models.NormalizeQuestionType(string(*upd.Type))
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown question type %q", *upd.Type))
		}
		upd.Type = &normalized
	}
	return s.mutate(ctx, schoolID, paperID, version, func(p models.Paper) models.Paper {
		return UpdateQuestion(p, sectionID, questionID, upd)
	})
}

func (s *PaperService) DeleteQuestion(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID string) (*models.Paper, error) {
	return s.mutate(ctx, schoolID, paperID, version, func(p models.Paper) models.Paper {
		return DeleteQuestion(p, sectionID, questionID)
	})
}

func (s *PaperService) AddSubpart(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID string) (*models.Paper, error) {
	return s.mutate(ctx, schoolID, paperID, version, func(p models.Paper) models.Paper {
		return AddSubpart(p, sectionID, questionID)
	})
}

func (s *PaperService) UpdateSubpart(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID, subpartID string, upd SubpartUpdate) (*models.Paper, error) {
	return s.mutate(ctx, schoolID, paperID, version, func(p models.Paper) models.Paper {
		return UpdateSubpart(p, sectionID, questionID, subpartID, upd)
	})
}

func (s *PaperService) DeleteSubpart(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID, subpartID string) (*models.Paper, error) {
	return s.mutate(ctx, schoolID, paperID, version, func(p models.Paper) models.Paper {
		return DeleteSubpart(p, sectionID, questionID, subpartID)
	})
}

// Marks returns the computed versus declared totals without modifying the
// paper. A mismatch is advisory; it never blocks a draft save.
func (s *PaperService) Marks(ctx context.Context, schoolID, paperID string) (*MarksSummary, error) {
	paper, err := s.loadScoped(ctx, schoolID, paperID)
	if err != nil {
		return nil, err
	}
	summary := s.marksSummary(*paper)
	return &summary, nil
}

// Confirm moves a draft toward preview (status SET). When the computed total
// disagrees with the declared total the caller must acknowledge the mismatch
// explicitly; the stored values are never substituted for each other.
func (s *PaperService) Confirm(ctx context.Context, schoolID, paperID string, req ConfirmPaperRequest) (*models.Paper, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirm payload")
	}

	paper, err := s.loadScoped(ctx, schoolID, paperID)
	if err != nil {
		return nil, err
	}

	summary := s.marksSummary(*paper)
	if summary.Mismatch && !req.AcknowledgeMismatch {
		return nil, appErrors.Clone(appErrors.ErrMarksMismatch,
			fmt.Sprintf("declared total is %d but questions add up to %d", summary.DeclaredTotalMarks, summary.ComputedTotal))
	}

	paper.Status = models.PaperStatusSet
	paper.Version = req.Version
	if err := s.persist(ctx, paper); err != nil {
		return nil, err
	}
	return paper, nil
}

// ExportJSON serialises the paper for download.
func (s *PaperService) ExportJSON(ctx context.Context, schoolID, paperID string) ([]byte, error) {
	paper, err := s.loadScoped(ctx, schoolID, paperID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(paper, "", "  ")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to serialise paper")
	}
	return data, nil
}

// Delete removes a paper.
func (s *PaperService) Delete(ctx context.Context, schoolID, paperID string) error {
	if _, err := s.loadScoped(ctx, schoolID, paperID); err != nil {
		return err
	}
	if err := s.papers.Delete(ctx, paperID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete paper")
	}
	s.cache.Invalidate(ctx, "papers:list:"+schoolID+":*")
	return nil
}

func (s *PaperService) mutate(ctx context.Context, schoolID, paperID string, version int, op func(models.Paper) models.Paper) (*models.Paper, error) {
	paper, err := s.loadScoped(ctx, schoolID, paperID)
	if err != nil {
		return nil, err
	}
	next := op(*paper)
	next.Version = version
	if err := s.persist(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *PaperService) loadScoped(ctx context.Context, schoolID, paperID string) (*models.Paper, error) {
	paper, err := s.papers.FindByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}
	if schoolID != "" && paper.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "paper belongs to another school")
	}
	return paper, nil
}

func (s *PaperService) persist(ctx context.Context, paper *models.Paper) error {
	if err := s.papers.Update(ctx, paper); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return appErrors.Clone(appErrors.ErrVersionConflict, "paper was modified, reload and retry")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save paper")
	}
	s.cache.Invalidate(ctx, "papers:list:"+paper.SchoolID+":*")
	return nil
}

func (s *PaperService) acquireSaveSlot(ctx context.Context, paperID string) error {
	if s.limiter == nil {
		return nil
	}
	key := "paper:save:" + paperID
	ok, err := s.limiter.SetNX(ctx, key, 1, s.config.SaveDebounceTTL).Result()
	if err != nil {
		s.logger.Warn("save debounce unavailable", zap.Error(err))
		return nil
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrDuplicateRequest, "save already in progress for this paper")
	}
	return nil
}

func (s *PaperService) marksSummary(paper models.Paper) MarksSummary {
	summary := MarksSummary{
		DeclaredTotalMarks: paper.DeclaredTotalMarks,
		ComputedTotal:      ComputeTotal(paper),
	}
	summary.Mismatch = summary.ComputedTotal != summary.DeclaredTotalMarks
	for _, sec := range paper.Sections {
		total := SectionTotal(sec)
		summary.Sections = append(summary.Sections, SectionMarks{
			SectionID:          sec.ID,
			Name:               sec.Name,
			DeclaredTotalMarks: sec.DeclaredTotalMarks,
			ComputedTotal:      total,
			Mismatch:           total != sec.DeclaredTotalMarks,
		})
	}
	return summary
}
