package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/service"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
	"github.com/edustack/school-portal-api/pkg/response"
)

// ApprovalHandler exposes the exam approval workflow endpoints.
type ApprovalHandler struct {
	approvals *service.ApprovalService
}

// NewApprovalHandler constructs ApprovalHandler.
func NewApprovalHandler(approvals *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

// Submit godoc
// @Summary Send a paper for approval
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param payload body service.SendForApprovalRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /papers/{id}/send-for-approval [post]
func (h *ApprovalHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SendForApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	request, err := h.approvals.Submit(c.Request.Context(), claims.SchoolID, claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Pending godoc
// @Summary List papers awaiting the current user's approval
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /approvals/pending [get]
func (h *ApprovalHandler) Pending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.approvals.PendingForApprover(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// ListForSchool godoc
// @Summary List the school's exam requests
// @Tags Approvals
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /approvals [get]
func (h *ApprovalHandler) ListForSchool(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.approvals.ListForSchool(c.Request.Context(), claims.SchoolID, models.ExamRequestStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Decide godoc
// @Summary Approve or reject a submitted paper
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param payload body service.DecideApprovalRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /papers/{id}/approval [post]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	request, err := h.approvals.Decide(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
