package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edustack/school-portal-api/internal/middleware"
	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/service"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
	"github.com/edustack/school-portal-api/pkg/response"
)

type paperService interface {
	CreateDraft(ctx context.Context, schoolID, teacherID string, req service.CreatePaperRequest) (*models.Paper, error)
	CreateFromPattern(ctx context.Context, schoolID, teacherID, patternID string) (*models.Paper, error)
	Get(ctx context.Context, schoolID, paperID string) (*models.Paper, error)
	List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, int, bool, error)
	Save(ctx context.Context, schoolID, paperID string, req service.SavePaperRequest) (*models.Paper, error)
	Delete(ctx context.Context, schoolID, paperID string) error
	AddSection(ctx context.Context, schoolID, paperID string, version int) (*models.Paper, error)
	UpdateSection(ctx context.Context, schoolID, paperID string, version int, sectionID string, upd service.SectionUpdate) (*models.Paper, error)
	DeleteSection(ctx context.Context, schoolID, paperID string, version int, sectionID string) (*models.Paper, error)
	AddQuestion(ctx context.Context, schoolID, paperID string, version int, sectionID string) (*models.Paper, error)
	UpdateQuestion(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID string, upd service.QuestionUpdate) (*models.Paper, error)
	DeleteQuestion(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID string) (*models.Paper, error)
	AddSubpart(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID string) (*models.Paper, error)
	UpdateSubpart(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID, subpartID string, upd service.SubpartUpdate) (*models.Paper, error)
	DeleteSubpart(ctx context.Context, schoolID, paperID string, version int, sectionID, questionID, subpartID string) (*models.Paper, error)
	Marks(ctx context.Context, schoolID, paperID string) (*service.MarksSummary, error)
	Confirm(ctx context.Context, schoolID, paperID string, req service.ConfirmPaperRequest) (*models.Paper, error)
	ExportJSON(ctx context.Context, schoolID, paperID string) ([]byte, error)
}

// PaperHandler exposes the exam paper editor endpoints.
type PaperHandler struct {
	service paperService
}

// NewPaperHandler constructs the handler.
func NewPaperHandler(service paperService) *PaperHandler {
	return &PaperHandler{service: service}
}

func (h *PaperHandler) guard(c *gin.Context) *models.JWTClaims {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "paper service not configured"))
		return nil
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}

// versionFromQuery reads the expected paper version for structural edits.
func versionFromQuery(c *gin.Context) (int, bool) {
	version, err := strconv.Atoi(c.Query("version"))
	if err != nil || version < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "version query parameter is required"))
		return 0, false
	}
	return version, true
}

// Create godoc
// @Summary Create a blank draft paper
// @Tags Papers
// @Accept json
// @Produce json
// @Param payload body service.CreatePaperRequest true "Paper payload"
// @Success 201 {object} response.Envelope
// @Router /papers [post]
func (h *PaperHandler) Create(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	var req service.CreatePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid paper payload"))
		return
	}
	paper, err := h.service.CreateDraft(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, paper)
}

// CreateFromPattern godoc
// @Summary Create a draft paper from a saved pattern
// @Tags Papers
// @Produce json
// @Param patternId path string true "Pattern ID"
// @Success 201 {object} response.Envelope
// @Router /papers/from-pattern/{patternId} [post]
func (h *PaperHandler) CreateFromPattern(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	paper, err := h.service.CreateFromPattern(c.Request.Context(), claims.SchoolID, claims.UserID, c.Param("patternId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, paper)
}

// List godoc
// @Summary List papers
// @Tags Papers
// @Produce json
// @Param status query string false "Filter by status"
// @Param class query string false "Filter by class"
// @Param subject query string false "Filter by subject"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /papers [get]
func (h *PaperHandler) List(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	var filter models.PaperFilter
	filter.SchoolID = claims.SchoolID
	filter.Status = models.PaperStatus(c.Query("status"))
	filter.Class = c.Query("class")
	filter.Subject = c.Query("subject")
	if claims.Role == models.RoleTeacher {
		filter.TeacherID = claims.UserID
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	papers, total, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, papers, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a paper with its full tree
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /papers/{id} [get]
func (h *PaperHandler) Get(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	paper, err := h.service.Get(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// Save godoc
// @Summary Save the full paper tree
// @Description Overwrites the stored paper with the submitted tree. The payload version must match the stored version.
// @Tags Papers
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param payload body service.SavePaperRequest true "Full paper payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /papers/{id} [put]
func (h *PaperHandler) Save(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	var req service.SavePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid paper payload"))
		return
	}
	paper, err := h.service.Save(c.Request.Context(), claims.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// Delete godoc
// @Summary Delete a paper
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Success 204 {object} response.Envelope
// @Router /papers/{id} [delete]
func (h *PaperHandler) Delete(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddSection godoc
// @Summary Append a section
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Param version query int true "Expected paper version"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/sections [post]
func (h *PaperHandler) AddSection(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	version, ok := versionFromQuery(c)
	if !ok {
		return
	}
	paper, err := h.service.AddSection(c.Request.Context(), claims.SchoolID, c.Param("id"), version)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// UpdateSection godoc
// @Summary Update a section
// @Tags Papers
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param sectionId path string true "Section ID"
// @Param version query int true "Expected paper version"
// @Param payload body service.SectionUpdate true "Section fields"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/sections/{sectionId} [put]
func (h *PaperHandler) UpdateSection(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	version, ok := versionFromQuery(c)
	if !ok {
		return
	}
	var upd service.SectionUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section payload"))
		return
	}
	paper, err := h.service.UpdateSection(c.Request.Context(), claims.SchoolID, c.Param("id"), version, c.Param("sectionId"), upd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// DeleteSection godoc
// @Summary Remove a section
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Param sectionId path string true "Section ID"
// @Param version query int true "Expected paper version"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/sections/{sectionId} [delete]
func (h *PaperHandler) DeleteSection(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	version, ok := versionFromQuery(c)
	if !ok {
		return
	}
	paper, err := h.service.DeleteSection(c.Request.Context(), claims.SchoolID, c.Param("id"), version, c.Param("sectionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// AddQuestion godoc
// @Summary Append a question to a section
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Param sectionId path string true "Section ID"
// @Param version query int true "Expected paper version"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/sections/{sectionId}/questions [post]
func (h *PaperHandler) AddQuestion(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	version, ok := versionFromQuery(c)
	if !ok {
		return
	}
	paper, err := h.service.AddQuestion(c.Request.Context(), claims.SchoolID, c.Param("id"), version, c.Param("sectionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// UpdateQuestion godoc
// @Summary Update a question
// @Tags Papers
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param sectionId path string true "Section ID"
// @Param questionId path string true "Question ID"
// @Param version query int true "Expected paper version"
// @Param payload body service.QuestionUpdate true "Question fields"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/sections/{sectionId}/questions/{questionId} [put]
func (h *PaperHandler) UpdateQuestion(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	version, ok := versionFromQuery(c)
	if !ok {
		return
	}
	var upd service.QuestionUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid question payload"))
		return
	}
	paper, err := h.service.UpdateQuestion(c.Request.Context(), claims.SchoolID, c.Param("id"), version, c.Param("sectionId"), c.Param("questionId"), upd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// DeleteQuestion godoc
// @Summary Remove a question
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Param sectionId path string true "Section ID"
// @Param questionId path string true "Question ID"
// @Param version query int true "Expected paper version"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/sections/{sectionId}/questions/{questionId} [delete]
func (h *PaperHandler) DeleteQuestion(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	version, ok := versionFromQuery(c)
	if !ok {
		return
	}
	paper, err := h.service.DeleteQuestion(c.Request.Context(), claims.SchoolID, c.Param("id"), version, c.Param("sectionId"), c.Param("questionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// AddSubpart godoc
// @Summary Append a subpart to a question
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Param sectionId path string true "Section ID"
// @Param questionId path string true "Question ID"
// @Param version query int true "Expected paper version"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/sections/{sectionId}/questions/{questionId}/subparts [post]
func (h *PaperHandler) AddSubpart(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	version, ok := versionFromQuery(c)
	if !ok {
		return
	}
	paper, err := h.service.AddSubpart(c.Request.Context(), claims.SchoolID, c.Param("id"), version, c.Param("sectionId"), c.Param("questionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// UpdateSubpart godoc
// @Summary Update a subpart
// @Tags Papers
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param sectionId path string true "Section ID"
// @Param questionId path string true "Question ID"
// @Param subpartId path string true "Subpart ID"
// @Param version query int true "Expected paper version"
// @Param payload body service.SubpartUpdate true "Subpart fields"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/sections/{sectionId}/questions/{questionId}/subparts/{subpartId} [put]
func (h *PaperHandler) UpdateSubpart(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	version, ok := versionFromQuery(c)
	if !ok {
		return
	}
	var upd service.SubpartUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid subpart payload"))
		return
	}
	paper, err := h.service.UpdateSubpart(c.Request.Context(), claims.SchoolID, c.Param("id"), version, c.Param("sectionId"), c.Param("questionId"), c.Param("subpartId"), upd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// DeleteSubpart godoc
// @Summary Remove a subpart
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Param sectionId path string true "Section ID"
// @Param questionId path string true "Question ID"
// @Param subpartId path string true "Subpart ID"
// @Param version query int true "Expected paper version"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/sections/{sectionId}/questions/{questionId}/subparts/{subpartId} [delete]
func (h *PaperHandler) DeleteSubpart(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	version, ok := versionFromQuery(c)
	if !ok {
		return
	}
	paper, err := h.service.DeleteSubpart(c.Request.Context(), claims.SchoolID, c.Param("id"), version, c.Param("sectionId"), c.Param("questionId"), c.Param("subpartId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// Marks godoc
// @Summary Report declared versus computed marks
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/marks [get]
func (h *PaperHandler) Marks(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	summary, err := h.service.Marks(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Confirm godoc
// @Summary Confirm a paper
// @Description Moves the paper to SET. A marks mismatch blocks confirmation unless acknowledged.
// @Tags Papers
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param payload body service.ConfirmPaperRequest true "Confirm payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /papers/{id}/confirm [post]
func (h *PaperHandler) Confirm(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	var req service.ConfirmPaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid confirm payload"))
		return
	}
	paper, err := h.service.Confirm(c.Request.Context(), claims.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// ExportJSON godoc
// @Summary Download the paper as JSON
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {file} binary
// @Router /papers/{id}/export/json [get]
func (h *PaperHandler) ExportJSON(c *gin.Context) {
	claims := h.guard(c)
	if claims == nil {
		return
	}
	data, err := h.service.ExportJSON(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="paper.json"`)
	c.Data(http.StatusOK, "application/json", data)
}
