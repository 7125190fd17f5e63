package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/school-portal-api/internal/service"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
	"github.com/edustack/school-portal-api/pkg/response"
)

// PatternHandler exposes reusable paper pattern endpoints.
type PatternHandler struct {
	patterns *service.PatternService
}

// NewPatternHandler constructs PatternHandler.
func NewPatternHandler(patterns *service.PatternService) *PatternHandler {
	return &PatternHandler{patterns: patterns}
}

// Create godoc
// @Summary Save a paper pattern
// @Tags Patterns
// @Accept json
// @Produce json
// @Param payload body service.CreatePatternRequest true "Pattern payload"
// @Success 201 {object} response.Envelope
// @Router /patterns [post]
func (h *PatternHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pattern payload"))
		return
	}

	pattern, err := h.patterns.Create(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pattern)
}

// List godoc
// @Summary List saved patterns
// @Tags Patterns
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /patterns [get]
func (h *PatternHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	patterns, err := h.patterns.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, patterns, nil)
}

// Get godoc
// @Summary Get a pattern
// @Tags Patterns
// @Produce json
// @Param id path string true "Pattern ID"
// @Success 200 {object} response.Envelope
// @Router /patterns/{id} [get]
func (h *PatternHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pattern, err := h.patterns.Get(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pattern, nil)
}

// Delete godoc
// @Summary Delete a pattern
// @Tags Patterns
// @Produce json
// @Param id path string true "Pattern ID"
// @Success 204 {object} response.Envelope
// @Router /patterns/{id} [delete]
func (h *PatternHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.patterns.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
