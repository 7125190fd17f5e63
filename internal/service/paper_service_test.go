package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/repository"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type mockPaperRepo struct {
	papers  map[string]*models.Paper
	deleted []string
}

func newMockPaperRepo() *mockPaperRepo {
	return &mockPaperRepo{papers: make(map[string]*models.Paper)}
}

func (m *mockPaperRepo) Create(ctx context.Context, paper *models.Paper) error {
	if paper.ID == "" {
		paper.ID = "paper-" + time.Now().Format("150405.000000000")
	}
	paper.Version = 1
	stored := paper.Clone()
	m.papers[paper.ID] = &stored
	return nil
}

func (m *mockPaperRepo) FindByID(ctx context.Context, id string) (*models.Paper, error) {
	paper, ok := m.papers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := paper.Clone()
	return &out, nil
}

func (m *mockPaperRepo) Update(ctx context.Context, paper *models.Paper) error {
	stored, ok := m.papers[paper.ID]
	if !ok || stored.Version != paper.Version {
		return repository.ErrVersionConflict
	}
	paper.Version++
	next := paper.Clone()
	m.papers[paper.ID] = &next
	return nil
}

func (m *mockPaperRepo) List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, error) {
	var out []models.Paper
	for _, p := range m.papers {
		out = append(out, p.Clone())
	}
	return out, len(out), nil
}

func (m *mockPaperRepo) Delete(ctx context.Context, id string) error {
	delete(m.papers, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockPatternReader struct {
	pattern *models.PaperPattern
}

func (m *mockPatternReader) FindByID(ctx context.Context, id string) (*models.PaperPattern, error) {
	if m.pattern == nil {
		return nil, sql.ErrNoRows
	}
	return m.pattern, nil
}

type mockSaveLimiter struct {
	allow bool
	keys  []string
}

func (m *mockSaveLimiter) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	m.keys = append(m.keys, key)
	return redis.NewBoolResult(m.allow, nil)
}

func newPaperService(repo *mockPaperRepo, patterns *mockPatternReader, limiter *mockSaveLimiter) *PaperService {
	var patternsDep patternReader
	if patterns != nil {
		patternsDep = patterns
	}
	var limiterDep saveLimiter
	if limiter != nil {
		limiterDep = limiter
	}
	return NewPaperService(repo, patternsDep, limiterDep, nil, validator.New(), zap.NewNop(), PaperConfig{SaveDebounceTTL: time.Second})
}

func seedPaper(t *testing.T, repo *mockPaperRepo) *models.Paper {
	t.Helper()
	svc := newPaperService(repo, nil, nil)
	paper, err := svc.CreateDraft(context.Background(), "school-1", "teacher-1", CreatePaperRequest{
		Class: "10", Subject: "Physics", ExamType: "Half Yearly", DeclaredTotalMarks: 80,
	})
	require.NoError(t, err)
	return paper
}

func TestPaperServiceCreateDraftDefaults(t *testing.T) {
	repo := newMockPaperRepo()
	paper := seedPaper(t, repo)

	require.Len(t, paper.Sections, 1)
	assert.Equal(t, "Section A", paper.Sections[0].Name)
	require.Len(t, paper.Sections[0].Questions, 1)
	assert.Equal(t, models.QuestionMCQ, paper.Sections[0].Questions[0].Type)
	assert.Equal(t, 1, paper.Version)
}

func TestPaperServiceSaveVersionConflict(t *testing.T) {
	repo := newMockPaperRepo()
	paper := seedPaper(t, repo)
	svc := newPaperService(repo, nil, nil)

	_, err := svc.Save(context.Background(), "school-1", paper.ID, SavePaperRequest{
		Version: 99, Class: "10", Subject: "Physics", Sections: paper.Sections,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrVersionConflict.Code, appErrors.FromError(err).Code)
}

func TestPaperServiceSaveDebounceRejectsDoubleClick(t *testing.T) {
	repo := newMockPaperRepo()
	paper := seedPaper(t, repo)
	limiter := &mockSaveLimiter{allow: false}
	svc := newPaperService(repo, nil, limiter)

	_, err := svc.Save(context.Background(), "school-1", paper.ID, SavePaperRequest{
		Version: 1, Class: "10", Subject: "Physics", Sections: paper.Sections,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateRequest.Code, appErrors.FromError(err).Code)
	require.Len(t, limiter.keys, 1)
	assert.Equal(t, "paper:save:"+paper.ID, limiter.keys[0])
}

func TestPaperServiceSaveAdvancesVersion(t *testing.T) {
	repo := newMockPaperRepo()
	paper := seedPaper(t, repo)
	svc := newPaperService(repo, nil, &mockSaveLimiter{allow: true})

	saved, err := svc.Save(context.Background(), "school-1", paper.ID, SavePaperRequest{
		Version: 1, Class: "10", Subject: "Chemistry", ExamType: "Final", DeclaredTotalMarks: 70, Sections: paper.Sections,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)
	assert.Equal(t, "Chemistry", saved.Subject)
}

func TestPaperServiceSchoolScope(t *testing.T) {
	repo := newMockPaperRepo()
	paper := seedPaper(t, repo)
	svc := newPaperService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "other-school", paper.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPaperServiceConfirmBlocksUnacknowledgedMismatch(t *testing.T) {
	repo := newMockPaperRepo()
	paper := seedPaper(t, repo)
	svc := newPaperService(repo, nil, nil)

	// declared 80, one default question worth 2
	_, err := svc.Confirm(context.Background(), "school-1", paper.ID, ConfirmPaperRequest{Version: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMarksMismatch.Code, appErrors.FromError(err).Code)

	confirmed, err := svc.Confirm(context.Background(), "school-1", paper.ID, ConfirmPaperRequest{Version: 1, AcknowledgeMismatch: true})
	require.NoError(t, err)
	assert.Equal(t, models.PaperStatusSet, confirmed.Status)
	// declared total untouched by the acknowledgement
	assert.Equal(t, 80, confirmed.DeclaredTotalMarks)
}

func TestPaperServiceMarksSummaryReportsBothValues(t *testing.T) {
	repo := newMockPaperRepo()
	paper := seedPaper(t, repo)
	svc := newPaperService(repo, nil, nil)

	summary, err := svc.Marks(context.Background(), "school-1", paper.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, summary.DeclaredTotalMarks)
	assert.Equal(t, 2, summary.ComputedTotal)
	assert.True(t, summary.Mismatch)
}

func TestPaperServiceStructuralEdits(t *testing.T) {
	repo := newMockPaperRepo()
	paper := seedPaper(t, repo)
	svc := newPaperService(repo, nil, nil)

	withSection, err := svc.AddSection(context.Background(), "school-1", paper.ID, 1)
	require.NoError(t, err)
	require.Len(t, withSection.Sections, 2)
	assert.Equal(t, "Section B", withSection.Sections[1].Name)
	assert.Equal(t, 2, withSection.Version)

	sectionID := withSection.Sections[1].ID
	withQuestion, err := svc.AddQuestion(context.Background(), "school-1", paper.ID, 2, sectionID)
	require.NoError(t, err)
	assert.Len(t, withQuestion.Sections[1].Questions, 2)

	questionID := withQuestion.Sections[1].Questions[1].ID
	marks := 5
	rawType := models.QuestionType("short answer")
	updated, err := svc.UpdateQuestion(context.Background(), "school-1", paper.ID, 3, sectionID, questionID, QuestionUpdate{Type: &rawType, Marks: &marks})
	require.NoError(t, err)
	assert.Equal(t, models.QuestionShortAnswer, updated.Sections[1].Questions[1].Type)
	assert.Equal(t, 5, updated.Sections[1].Questions[1].Marks)

	trimmed, err := svc.DeleteSection(context.Background(), "school-1", paper.ID, 4, sectionID)
	require.NoError(t, err)
	require.Len(t, trimmed.Sections, 1)
}

func TestPaperServiceUpdateQuestionRejectsUnknownType(t *testing.T) {
	repo := newMockPaperRepo()
	paper := seedPaper(t, repo)
	svc := newPaperService(repo, nil, nil)

	bad := models.QuestionType("ESSAY_3000_WORDS")
	_, err := svc.UpdateQuestion(context.Background(), "school-1", paper.ID, 1, paper.Sections[0].ID, paper.Sections[0].Questions[0].ID, QuestionUpdate{Type: &bad})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaperServiceCreateFromPattern(t *testing.T) {
	repo := newMockPaperRepo()
	patterns := &mockPatternReader{pattern: &models.PaperPattern{
		ID: "pat-1", SchoolID: "school-1", TeacherID: "teacher-1",
		Name: "Standard 80", Class: "10", Subject: "Physics", ExamType: "Final",
		DeclaredTotalMarks: 80,
		Sections: models.PatternSectionList{
			{Name: "Section A", DeclaredTotalMarks: 20, QuestionCount: 10, QuestionType: models.QuestionMCQ, MarksPerQuestion: 2},
			{DeclaredTotalMarks: 60, QuestionCount: 6, QuestionType: models.QuestionLongAnswer, MarksPerQuestion: 10},
		},
	}}
	svc := newPaperService(repo, patterns, nil)

	paper, err := svc.CreateFromPattern(context.Background(), "school-1", "teacher-1", "pat-1")
	require.NoError(t, err)
	require.Len(t, paper.Sections, 2)
	assert.Equal(t, "Section A", paper.Sections[0].Name)
	assert.Equal(t, "Section B", paper.Sections[1].Name)
	assert.Len(t, paper.Sections[0].Questions, 10)
	assert.Len(t, paper.Sections[1].Questions, 6)
	assert.Equal(t, models.QuestionLongAnswer, paper.Sections[1].Questions[0].Type)
	assert.Equal(t, 80, ComputeTotal(*paper))
}

func TestPaperServiceSaveLoadRoundTrip(t *testing.T) {
	repo := newMockPaperRepo()
	paper := seedPaper(t, repo)
	svc := newPaperService(repo, nil, nil)

	grown, err := svc.AddSubpart(context.Background(), "school-1", paper.ID, 1, paper.Sections[0].ID, paper.Sections[0].Questions[0].ID)
	require.NoError(t, err)

	loaded, err := svc.Get(context.Background(), "school-1", paper.ID)
	require.NoError(t, err)
	assert.Equal(t, grown.Sections, loaded.Sections)
}
