package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/service"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
	"github.com/edustack/school-portal-api/pkg/response"
)

// GenerationHandler exposes AI content generation endpoints.
type GenerationHandler struct {
	generation    *service.GenerationService
	maxUploadSize int64
}

// NewGenerationHandler constructs GenerationHandler.
func NewGenerationHandler(generation *service.GenerationService, maxUploadSize int64) *GenerationHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 10 * 1024 * 1024
	}
	return &GenerationHandler{generation: generation, maxUploadSize: maxUploadSize}
}

// GeneratePaper godoc
// @Summary Generate an exam paper draft with AI
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body service.GeneratePaperRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /generate/paper [post]
func (h *GenerationHandler) GeneratePaper(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.GeneratePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}

	paper, err := h.generation.GeneratePaper(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, paper)
}

// GenerateQuiz godoc
// @Summary Generate a practice quiz with AI
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body service.GenerateQuizRequest true "Quiz payload"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /generate/quiz [post]
func (h *GenerationHandler) GenerateQuiz(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quiz payload"))
		return
	}

	quiz, err := h.generation.GenerateQuiz(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quiz, nil)
}

// GenerateStudyPlan godoc
// @Summary Generate a study plan with AI
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body service.GenerateStudyPlanRequest true "Study plan payload"
// @Success 200 {object} response.Envelope
// @Router /generate/study-plan [post]
func (h *GenerationHandler) GenerateStudyPlan(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.GenerateStudyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid study plan payload"))
		return
	}

	plan, err := h.generation.GenerateStudyPlan(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// GenerateMindMap godoc
// @Summary Generate a mind map with AI
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body service.GenerateMindMapRequest true "Mind map payload"
// @Success 200 {object} response.Envelope
// @Router /generate/mind-map [post]
func (h *GenerationHandler) GenerateMindMap(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.GenerateMindMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mind map payload"))
		return
	}

	mindMap, err := h.generation.GenerateMindMap(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mindMap, nil)
}

// SummarizeText godoc
// @Summary Summarise pasted text with AI
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body service.SummarizeTextRequest true "Text payload"
// @Success 200 {object} response.Envelope
// @Router /generate/summary/text [post]
func (h *GenerationHandler) SummarizeText(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SummarizeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid summary payload"))
		return
	}

	summary, err := h.generation.SummarizeText(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// SummarizeDocument godoc
// @Summary Summarise an uploaded document with AI
// @Tags Generation
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document to summarise"
// @Success 200 {object} response.Envelope
// @Router /generate/summary/document [post]
func (h *GenerationHandler) SummarizeDocument(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file upload required"))
		return
	}
	if header.Size > h.maxUploadSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "uploaded file is too large"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer file.Close()

	summary, err := h.generation.SummarizeDocument(c.Request.Context(), claims.SchoolID, claims.UserID, header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// SummarizeWeb godoc
// @Summary Summarise a web page with AI
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body service.SummarizeWebRequest true "URL payload"
// @Success 200 {object} response.Envelope
// @Router /generate/summary/web [post]
func (h *GenerationHandler) SummarizeWeb(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SummarizeWebRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid summary payload"))
		return
	}

	summary, err := h.generation.SummarizeWeb(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// History godoc
// @Summary List previously generated content
// @Tags Generation
// @Produce json
// @Param kind query string false "Filter by kind"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /generate/history [get]
func (h *GenerationHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit := 20
	if parsed, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && parsed > 0 {
		limit = parsed
	}

	history, err := h.generation.History(c.Request.Context(), claims.UserID, models.GeneratedKind(c.Query("kind")), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
