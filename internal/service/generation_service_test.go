package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type mockAI struct {
	responses []string
	err       error
	calls     int
}

func (m *mockAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *mockAI) Model() string {
	return "test-model"
}

type mockGeneratedRepo struct {
	created []*models.GeneratedContent
}

func (m *mockGeneratedRepo) Create(ctx context.Context, content *models.GeneratedContent) error {
	m.created = append(m.created, content)
	return nil
}

func (m *mockGeneratedRepo) FindByID(ctx context.Context, id string) (*models.GeneratedContent, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGeneratedRepo) List(ctx context.Context, userID string, kind models.GeneratedKind, limit int) ([]models.GeneratedContent, error) {
	return nil, nil
}

func newGenerationService(ai *mockAI, generated *mockGeneratedRepo, papers *mockPaperRepo) *GenerationService {
	var paperDep paperCreator
	if papers != nil {
		paperDep = papers
	}
	return NewGenerationService(ai, generated, paperDep, nil, nil, validator.New(), zap.NewNop(), GenerationConfig{QuizRetries: 3})
}

const validQuizJSON = `{"topic": "Photosynthesis", "questions": [{"question": "What gas do plants absorb?", "options": ["O2", "CO2", "N2", "H2"], "answer": "CO2"}]}`

func TestGenerationServiceQuizSuccess(t *testing.T) {
	ai := &mockAI{responses: []string{"```json\n" + validQuizJSON + "\n```"}}
	generated := &mockGeneratedRepo{}
	svc := newGenerationService(ai, generated, nil)

	quiz, err := svc.GenerateQuiz(context.Background(), "school-1", "u1", GenerateQuizRequest{Topic: "Photosynthesis", QuestionCount: 1})
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis", quiz.Topic)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, 1, ai.calls)
	require.Len(t, generated.created, 1)
	assert.Equal(t, models.GeneratedQuiz, generated.created[0].Kind)
	assert.Equal(t, "test-model", generated.created[0].Model)
}

func TestGenerationServiceQuizRetriesMalformedOutput(t *testing.T) {
	ai := &mockAI{responses: []string{"sorry, here is your quiz:", "{not json", validQuizJSON}}
	svc := newGenerationService(ai, &mockGeneratedRepo{}, nil)

	quiz, err := svc.GenerateQuiz(context.Background(), "school-1", "u1", GenerateQuizRequest{Topic: "Optics", QuestionCount: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, ai.calls)
	require.Len(t, quiz.Questions, 1)
}

func TestGenerationServiceQuizGivesUpAfterRetryCap(t *testing.T) {
	ai := &mockAI{responses: []string{"still not json"}}
	svc := newGenerationService(ai, &mockGeneratedRepo{}, nil)

	_, err := svc.GenerateQuiz(context.Background(), "school-1", "u1", GenerateQuizRequest{Topic: "Optics", QuestionCount: 1})
	require.Error(t, err)
	assert.Equal(t, 3, ai.calls)
	assert.Equal(t, appErrors.ErrBadAIResponse.Code, appErrors.FromError(err).Code)
}

func TestGenerationServiceQuizDoesNotRetryTransportErrors(t *testing.T) {
	ai := &mockAI{err: errors.New("connection refused")}
	svc := newGenerationService(ai, &mockGeneratedRepo{}, nil)

	_, err := svc.GenerateQuiz(context.Background(), "school-1", "u1", GenerateQuizRequest{Topic: "Optics", QuestionCount: 1})
	require.Error(t, err)
	assert.Equal(t, 1, ai.calls)
}

func TestGenerationServicePaperMapsIntoTree(t *testing.T) {
	response := `{"sections": [{"name": "Section A", "declared_total_marks": 10, "questions": [
        {"type": "multiple choice", "marks": 1, "body": "Pick one"},
        {"type": "MATCH_THE_FOLLOWING", "marks": 4, "body": "Match", "pairs": [{"term": "H2O", "definition": "water"}]},
        {"type": "SHORT_ANSWER", "marks": 5, "body": "Explain", "subparts": [{"marks": 2, "body": "part one"}, {"marks": 3, "body": "part two"}]}
    ]}]}`
	ai := &mockAI{responses: []string{response}}
	papers := newMockPaperRepo()
	generated := &mockGeneratedRepo{}
	svc := newGenerationService(ai, generated, papers)

	paper, err := svc.GeneratePaper(context.Background(), "school-1", "teacher-1", GeneratePaperRequest{
		Class: "10", Subject: "Science", ExamType: "Unit Test", DeclaredTotalMarks: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaperStatusDraft, paper.Status)
	require.Len(t, paper.Sections, 1)
	require.Len(t, paper.Sections[0].Questions, 3)
	assert.Equal(t, models.QuestionMCQ, paper.Sections[0].Questions[0].Type)
	require.Len(t, paper.Sections[0].Questions[1].Pairs, 1)
	require.Len(t, paper.Sections[0].Questions[2].Subparts, 2)
	assert.NotEmpty(t, paper.Sections[0].ID)
	assert.NotEmpty(t, paper.Sections[0].Questions[0].ID)
	require.Len(t, papers.papers, 1)
	require.Len(t, generated.created, 1)
	assert.Equal(t, models.GeneratedPaper, generated.created[0].Kind)
}

func TestGenerationServicePaperRejectsEmptySections(t *testing.T) {
	ai := &mockAI{responses: []string{`{"sections": []}`}}
	svc := newGenerationService(ai, &mockGeneratedRepo{}, newMockPaperRepo())

	_, err := svc.GeneratePaper(context.Background(), "school-1", "teacher-1", GeneratePaperRequest{
		Class: "10", Subject: "Science", ExamType: "Unit Test", DeclaredTotalMarks: 10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBadAIResponse.Code, appErrors.FromError(err).Code)
}

func TestGenerationServiceStudyPlan(t *testing.T) {
	ai := &mockAI{responses: []string{`{"subject": "Maths", "days": [{"day": 1, "focus": "Algebra", "activities": ["solve 10 problems"]}]}`}}
	svc := newGenerationService(ai, &mockGeneratedRepo{}, nil)

	plan, err := svc.GenerateStudyPlan(context.Background(), "school-1", "u1", GenerateStudyPlanRequest{Subject: "Maths", Days: 1})
	require.NoError(t, err)
	require.Len(t, plan.Days, 1)
	assert.Equal(t, "Algebra", plan.Days[0].Focus)
}

func TestGenerationServiceMindMapRequiresRoot(t *testing.T) {
	ai := &mockAI{responses: []string{`{"root": {"topic": ""}}`}}
	svc := newGenerationService(ai, &mockGeneratedRepo{}, nil)

	_, err := svc.GenerateMindMap(context.Background(), "school-1", "u1", GenerateMindMapRequest{Topic: "Cells"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBadAIResponse.Code, appErrors.FromError(err).Code)
}

func TestGenerationServiceSummarizeDocument(t *testing.T) {
	ai := &mockAI{responses: []string{`{"summary": "A chapter about cells.", "key_points": ["cells divide"]}`}}
	generated := &mockGeneratedRepo{}
	svc := newGenerationService(ai, generated, nil)

	summary, err := svc.SummarizeDocument(context.Background(), "school-1", "u1", "chapter.txt", strings.NewReader("Cells are the basic unit of life."))
	require.NoError(t, err)
	assert.NotEmpty(t, summary.Summary)
	require.Len(t, generated.created, 1)
	assert.Equal(t, models.GeneratedSummary, generated.created[0].Kind)
	assert.Equal(t, "chapter.txt", generated.created[0].Title)
}

func TestGenerationServiceSummarizeDocumentRejectsEmpty(t *testing.T) {
	svc := newGenerationService(&mockAI{responses: []string{"{}"}}, &mockGeneratedRepo{}, nil)

	_, err := svc.SummarizeDocument(context.Background(), "school-1", "u1", "empty.txt", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
