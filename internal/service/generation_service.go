package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/pkg/ai"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

const (
	generationSystemPrompt = "You are an assistant for school teachers. Always answer with a single JSON document and nothing else."

	// Uploaded documents and fetched pages are truncated before prompting.
	maxDocumentPromptBytes = 48 * 1024
)

type aiCompleter interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

type generatedRepository interface {
	Create(ctx context.Context, content *models.GeneratedContent) error
	FindByID(ctx context.Context, id string) (*models.GeneratedContent, error)
	List(ctx context.Context, userID string, kind models.GeneratedKind, limit int) ([]models.GeneratedContent, error)
}

type paperCreator interface {
	Create(ctx context.Context, paper *models.Paper) error
}

type uploadStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// GenerationConfig holds generation behaviour knobs.
type GenerationConfig struct {
	QuizRetries int
}

// GeneratePaperRequest asks the AI for a full exam paper draft.
type GeneratePaperRequest struct {
	Class              string   `json:"class" validate:"required"`
	Subject            string   `json:"subject" validate:"required"`
	ExamType           string   `json:"exam_type" validate:"required"`
	Duration           string   `json:"duration"`
	DeclaredTotalMarks int      `json:"declared_total_marks" validate:"gt=0"`
	Topics             []string `json:"topics"`
	Instructions       string   `json:"instructions"`
}

// GenerateQuizRequest asks the AI for a practice quiz.
type GenerateQuizRequest struct {
	Topic         string `json:"topic" validate:"required"`
	Class         string `json:"class"`
	Subject       string `json:"subject"`
	QuestionCount int    `json:"question_count" validate:"gte=1,lte=50"`
}

// GenerateStudyPlanRequest asks the AI for a day-by-day study plan.
type GenerateStudyPlanRequest struct {
	Subject string `json:"subject" validate:"required"`
	Days    int    `json:"days" validate:"gte=1,lte=60"`
	Goal    string `json:"goal"`
}

// GenerateMindMapRequest asks the AI for a topic mind map.
type GenerateMindMapRequest struct {
	Topic string `json:"topic" validate:"required"`
}

// SummarizeTextRequest asks the AI to summarise pasted text.
type SummarizeTextRequest struct {
	Title string `json:"title"`
	Text  string `json:"text" validate:"required"`
}

// SummarizeWebRequest asks the AI to summarise a fetched web page.
type SummarizeWebRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// aiPaper mirrors the JSON schema embedded in the paper generation prompt.
type aiPaper struct {
	Sections []struct {
		Name               string `json:"name"`
		DeclaredTotalMarks int    `json:"declared_total_marks"`
		Questions          []struct {
			Type     string             `json:"type"`
			Marks    int                `json:"marks"`
			Body     string             `json:"body"`
			Pairs    []models.MatchPair `json:"pairs"`
			Subparts []struct {
				Marks   int      `json:"marks"`
				Body    string   `json:"body"`
				Options []string `json:"options"`
			} `json:"subparts"`
		} `json:"questions"`
	} `json:"sections"`
}

// GenerationService drives AI content generation and persists every artifact
// to the generated content store.
type GenerationService struct {
	ai        aiCompleter
	generated generatedRepository
	papers    paperCreator
	uploads   uploadStore
	metrics   *MetricsService
	web       *http.Client
	validator *validator.Validate
	logger    *zap.Logger
	config    GenerationConfig
}

// NewGenerationService constructs a GenerationService instance.
func NewGenerationService(completer aiCompleter, generated generatedRepository, papers paperCreator, uploads uploadStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config GenerationConfig) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.QuizRetries < 1 {
		config.QuizRetries = 3
	}
	return &GenerationService{
		ai:        completer,
		generated: generated,
		papers:    papers,
		uploads:   uploads,
		metrics:   metrics,
		web:       &http.Client{Timeout: 30 * time.Second},
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// complete runs one AI completion and records its latency and outcome.
func (s *GenerationService) complete(ctx context.Context, kind, prompt string) (string, error) {
	start := time.Now()
	raw, err := s.ai.Complete(ctx, generationSystemPrompt, prompt)
	s.metrics.ObserveAICall(kind, err == nil, time.Since(start))
	return raw, err
}

// GeneratePaper builds a complete exam paper from the AI response and saves
// it as a regular draft, so the editor and approval flow treat it exactly
// like a hand-written one.
func (s *GenerationService) GeneratePaper(ctx context.Context, schoolID, teacherID string, req GeneratePaperRequest) (*models.Paper, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	prompt := s.paperPrompt(req)
	raw, err := s.complete(ctx, "paper", prompt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadAIResponse.Code, appErrors.ErrBadAIResponse.Status, "paper generation failed")
	}

	var parsed aiPaper
	if err := ai.ParseInto(raw, &parsed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadAIResponse.Code, appErrors.ErrBadAIResponse.Status, "paper generation returned malformed output")
	}
	if len(parsed.Sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadAIResponse, "paper generation returned no sections")
	}

	paper := models.Paper{
		SchoolID:           schoolID,
		TeacherID:          teacherID,
		Class:              req.Class,
		Subject:            req.Subject,
		ExamType:           req.ExamType,
		Duration:           req.Duration,
		DeclaredTotalMarks: req.DeclaredTotalMarks,
		Status:             models.PaperStatusDraft,
	}
	for i, sec := range parsed.Sections {
		section := models.Section{
			ID:                 newNodeID(),
			Name:               sec.Name,
			DeclaredTotalMarks: sec.DeclaredTotalMarks,
		}
		if section.Name == "" {
			section.Name = sectionName(i)
		}
		for _, q := range sec.Questions {
			qType, ok := models.NormalizeQuestionType(q.Type)
			if !ok {
				qType = models.QuestionShortAnswer
			}
			question := models.Question{
				ID:    newNodeID(),
				Type:  qType,
				Marks: q.Marks,
				Body:  q.Body,
				Pairs: q.Pairs,
			}
			for _, sp := range q.Subparts {
				question.Subparts = append(question.Subparts, models.Subpart{
					ID:      newNodeID(),
					Marks:   sp.Marks,
					Body:    sp.Body,
					Options: sp.Options,
				})
			}
			section.Questions = append(section.Questions, question)
		}
		paper.Sections = append(paper.Sections, section)
	}

	if err := s.papers.Create(ctx, &paper); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save generated paper")
	}

	s.record(ctx, schoolID, teacherID, models.GeneratedPaper, req.Subject+" "+req.ExamType, paper)
	return &paper, nil
}

// GenerateQuiz asks for a quiz, retrying up to the configured attempt count
// when the model returns malformed output. Transport errors are not retried.
func (s *GenerationService) GenerateQuiz(ctx context.Context, schoolID, userID string, req GenerateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}

	prompt := fmt.Sprintf(`Create a quiz of %d multiple-choice questions on the topic %q`, req.QuestionCount, req.Topic)
	if req.Subject != "" {
		prompt += fmt.Sprintf(" for the subject %q", req.Subject)
	}
	if req.Class != "" {
		prompt += fmt.Sprintf(" at class %s level", req.Class)
	}
	prompt += `. Respond with JSON: {"topic": "...", "questions": [{"question": "...", "options": ["...","...","...","..."], "answer": "...", "explanation": "..."}]}`

	var lastErr error
	for attempt := 1; attempt <= s.config.QuizRetries; attempt++ {
		raw, err := s.complete(ctx, "quiz", prompt)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrBadAIResponse.Code, appErrors.ErrBadAIResponse.Status, "quiz generation failed")
		}

		var quiz models.Quiz
		if err := ai.ParseInto(raw, &quiz); err != nil {
			lastErr = err
			s.logger.Warn("quiz generation returned malformed output",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		if len(quiz.Questions) == 0 {
			lastErr = fmt.Errorf("quiz has no questions")
			s.logger.Warn("quiz generation returned empty quiz", zap.Int("attempt", attempt))
			continue
		}
		if quiz.Topic == "" {
			quiz.Topic = req.Topic
		}
		s.record(ctx, schoolID, userID, models.GeneratedQuiz, quiz.Topic, quiz)
		return &quiz, nil
	}
	return nil, appErrors.Wrap(lastErr, appErrors.ErrBadAIResponse.Code, appErrors.ErrBadAIResponse.Status,
		fmt.Sprintf("quiz generation failed after %d attempts", s.config.QuizRetries))
}

// GenerateStudyPlan produces a day-by-day plan.
func (s *GenerationService) GenerateStudyPlan(ctx context.Context, schoolID, userID string, req GenerateStudyPlanRequest) (*models.StudyPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid study plan payload")
	}

	prompt := fmt.Sprintf(`Create a %d-day study plan for the subject %q`, req.Days, req.Subject)
	if req.Goal != "" {
		prompt += fmt.Sprintf(" with the goal %q", req.Goal)
	}
	prompt += `. Respond with JSON: {"subject": "...", "days": [{"day": 1, "focus": "...", "activities": ["..."]}]}`

	raw, err := s.complete(ctx, "study_plan", prompt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadAIResponse.Code, appErrors.ErrBadAIResponse.Status, "study plan generation failed")
	}
	var plan models.StudyPlan
	if err := ai.ParseInto(raw, &plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadAIResponse.Code, appErrors.ErrBadAIResponse.Status, "study plan generation returned malformed output")
	}
	if len(plan.Days) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadAIResponse, "study plan has no days")
	}
	if plan.Subject == "" {
		plan.Subject = req.Subject
	}
	s.record(ctx, schoolID, userID, models.GeneratedStudyPlan, plan.Subject, plan)
	return &plan, nil
}

// GenerateMindMap produces a topic mind map tree.
func (s *GenerationService) GenerateMindMap(ctx context.Context, schoolID, userID string, req GenerateMindMapRequest) (*models.MindMap, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mind map payload")
	}

	prompt := fmt.Sprintf(`Create a mind map for the topic %q. Respond with JSON: {"root": {"topic": "...", "children": [{"topic": "...", "children": []}]}}`, req.Topic)
	raw, err := s.complete(ctx, "mind_map", prompt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadAIResponse.Code, appErrors.ErrBadAIResponse.Status, "mind map generation failed")
	}
	var mindMap models.MindMap
	if err := ai.ParseInto(raw, &mindMap); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadAIResponse.Code, appErrors.ErrBadAIResponse.Status, "mind map generation returned malformed output")
	}
	if mindMap.Root.Topic == "" {
		return nil, appErrors.Clone(appErrors.ErrBadAIResponse, "mind map has no root topic")
	}
	s.record(ctx, schoolID, userID, models.GeneratedMindMap, mindMap.Root.Topic, mindMap)
	return &mindMap, nil
}

// SummarizeText summarises pasted text.
func (s *GenerationService) SummarizeText(ctx context.Context, schoolID, userID string, req SummarizeTextRequest) (*models.Summary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid summary payload")
	}
	title := req.Title
	if title == "" {
		title = "text summary"
	}
	return s.summarize(ctx, schoolID, userID, title, req.Text)
}

// SummarizeDocument stores an uploaded document and summarises its content.
func (s *GenerationService) SummarizeDocument(ctx context.Context, schoolID, userID, filename string, file io.Reader) (*models.Summary, error) {
	if filename == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing file name")
	}

	content, err := io.ReadAll(io.LimitReader(file, maxDocumentPromptBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	if len(content) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "uploaded file is empty")
	}

	if s.uploads != nil {
		stored := fmt.Sprintf("uploads/%s/%d-%s", userID, time.Now().UTC().UnixNano(), filename)
		if _, err := s.uploads.SaveStream(stored, strings.NewReader(string(content))); err != nil {
			s.logger.Warn("failed to store uploaded document", zap.Error(err))
		}
	}

	return s.summarize(ctx, schoolID, userID, filename, string(content))
}

// SummarizeWeb fetches a page and summarises its content.
func (s *GenerationService) SummarizeWeb(ctx context.Context, schoolID, userID string, req SummarizeWebRequest) (*models.Summary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid summary payload")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid url")
	}
	resp, err := s.web.Do(httpReq)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to fetch page")
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("page returned status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentPromptBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read page")
	}

	return s.summarize(ctx, schoolID, userID, req.URL, string(body))
}

// History returns a user's stored artifacts of one kind.
func (s *GenerationService) History(ctx context.Context, userID string, kind models.GeneratedKind, limit int) ([]models.GeneratedContent, error) {
	items, err := s.generated.List(ctx, userID, kind, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generated content")
	}
	return items, nil
}

func (s *GenerationService) summarize(ctx context.Context, schoolID, userID, title, text string) (*models.Summary, error) {
	prompt := fmt.Sprintf("Summarise the following content for a teacher. Respond with JSON: {\"summary\": \"...\", \"key_points\": [\"...\"]}\n\n%s", text)
	raw, err := s.complete(ctx, "summary", prompt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadAIResponse.Code, appErrors.ErrBadAIResponse.Status, "summary generation failed")
	}
	var summary models.Summary
	if err := ai.ParseInto(raw, &summary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadAIResponse.Code, appErrors.ErrBadAIResponse.Status, "summary generation returned malformed output")
	}
	if summary.Summary == "" {
		return nil, appErrors.Clone(appErrors.ErrBadAIResponse, "summary is empty")
	}
	s.record(ctx, schoolID, userID, models.GeneratedSummary, title, summary)
	return &summary, nil
}

func (s *GenerationService) record(ctx context.Context, schoolID, userID string, kind models.GeneratedKind, title string, payload interface{}) {
	if s.generated == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to encode generated payload", zap.Error(err))
		return
	}
	if err := s.generated.Create(ctx, &models.GeneratedContent{
		SchoolID: schoolID,
		UserID:   userID,
		Kind:     kind,
		Title:    title,
		Payload:  models.GeneratedPayload(data),
		Model:    s.ai.Model(),
	}); err != nil {
		s.logger.Warn("failed to persist generated content", zap.Error(err))
	}
}

func (s *GenerationService) paperPrompt(req GeneratePaperRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s exam paper for class %s, subject %s, worth %d marks total",
		req.ExamType, req.Class, req.Subject, req.DeclaredTotalMarks)
	if req.Duration != "" {
		fmt.Fprintf(&b, ", duration %s", req.Duration)
	}
	if len(req.Topics) > 0 {
		fmt.Fprintf(&b, ", covering: %s", strings.Join(req.Topics, ", "))
	}
	if req.Instructions != "" {
		fmt.Fprintf(&b, ". Additional instructions: %s", req.Instructions)
	}
	b.WriteString(`. Respond with JSON matching this example shape exactly:
{"sections": [{"name": "Section A", "declared_total_marks": 20, "questions": [
  {"type": "MCQ", "marks": 1, "body": "Which ...?", "subparts": [{"marks": 1, "body": "...", "options": ["A", "B", "C", "D"]}]},
  {"type": "MATCH_THE_FOLLOWING", "marks": 4, "body": "Match the following", "pairs": [{"term": "...", "definition": "..."}]},
  {"type": "SHORT_ANSWER", "marks": 2, "body": "Explain ..."}
]}]}
Question types must be one of MCQ, SHORT_ANSWER, LONG_ANSWER, CASE_STUDY, FILL_IN_THE_BLANKS, MATCH_THE_FOLLOWING.`)
	return b.String()
}
