package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/school-portal-api/internal/service"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
	"github.com/edustack/school-portal-api/pkg/response"
)

// SchoolHandler exposes school profile and book list endpoints.
type SchoolHandler struct {
	schools *service.SchoolService
}

// NewSchoolHandler constructs SchoolHandler.
func NewSchoolHandler(schools *service.SchoolService) *SchoolHandler {
	return &SchoolHandler{schools: schools}
}

// Get godoc
// @Summary Get school profile
// @Tags Schools
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /school [get]
func (h *SchoolHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	school, err := h.schools.Get(c.Request.Context(), claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}

// Update godoc
// @Summary Update school profile
// @Tags Schools
// @Accept json
// @Produce json
// @Param payload body service.UpdateSchoolRequest true "School payload"
// @Success 200 {object} response.Envelope
// @Router /school [put]
func (h *SchoolHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	school, err := h.schools.Update(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}

// AddBook godoc
// @Summary Add a book to the school catalogue
// @Tags Schools
// @Accept json
// @Produce json
// @Param payload body service.AddBookRequest true "Book payload"
// @Success 201 {object} response.Envelope
// @Router /school/books [post]
func (h *SchoolHandler) AddBook(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AddBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	book, err := h.schools.AddBook(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, book)
}

// ListBooks godoc
// @Summary List catalogue books
// @Tags Schools
// @Produce json
// @Param class query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Router /school/books [get]
func (h *SchoolHandler) ListBooks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	books, err := h.schools.ListBooks(c.Request.Context(), claims.SchoolID, c.Query("class"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, books, nil)
}

// DeleteBook godoc
// @Summary Remove a catalogue book
// @Tags Schools
// @Produce json
// @Param id path string true "Book ID"
// @Success 204 {object} response.Envelope
// @Router /school/books/{id} [delete]
func (h *SchoolHandler) DeleteBook(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.schools.DeleteBook(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
