package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edustack/school-portal-api/internal/service"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
	"github.com/edustack/school-portal-api/pkg/response"
)

// CurriculumHandler exposes curriculum tracking and teaching log endpoints.
type CurriculumHandler struct {
	curriculum *service.CurriculumService
}

// NewCurriculumHandler constructs CurriculumHandler.
func NewCurriculumHandler(curriculum *service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculum: curriculum}
}

// CreateEntry godoc
// @Summary Create a curriculum entry
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param payload body service.CreateCurriculumEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Router /curriculum [post]
func (h *CurriculumHandler) CreateEntry(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateCurriculumEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.curriculum.CreateEntry(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// ListEntries godoc
// @Summary List curriculum entries
// @Tags Curriculum
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param class query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Router /curriculum [get]
func (h *CurriculumHandler) ListEntries(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	entries, err := h.curriculum.ListEntries(c.Request.Context(), claims.UserID, c.Query("subject"), c.Query("class"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// UpdateEntry godoc
// @Summary Update a curriculum entry
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body service.UpdateCurriculumEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Router /curriculum/{id} [put]
func (h *CurriculumHandler) UpdateEntry(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateCurriculumEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.curriculum.UpdateEntry(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeleteEntry godoc
// @Summary Delete a curriculum entry
// @Tags Curriculum
// @Produce json
// @Param id path string true "Entry ID"
// @Success 204 {object} response.Envelope
// @Router /curriculum/{id} [delete]
func (h *CurriculumHandler) DeleteEntry(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.curriculum.DeleteEntry(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateLog godoc
// @Summary Record a teaching log
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param payload body service.CreateTeachingLogRequest true "Log payload"
// @Success 201 {object} response.Envelope
// @Router /teaching-logs [post]
func (h *CurriculumHandler) CreateLog(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateTeachingLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.curriculum.CreateLog(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// ListLogs godoc
// @Summary List teaching logs
// @Tags Curriculum
// @Produce json
// @Param from query string false "Start date (RFC 3339)"
// @Param to query string false "End date (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Router /teaching-logs [get]
func (h *CurriculumHandler) ListLogs(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			from = &parsed
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			to = &parsed
		}
	}

	logs, err := h.curriculum.ListLogs(c.Request.Context(), claims.UserID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
