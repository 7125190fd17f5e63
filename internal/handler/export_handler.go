package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/school-portal-api/internal/models"
	"github.com/edustack/school-portal-api/internal/service"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
	"github.com/edustack/school-portal-api/pkg/response"
)

// ExportHandler exposes asynchronous export jobs and CSV report downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Enqueue godoc
// @Summary Queue a paper export
// @Description Creates a background export job. Poll the job endpoint for the signed download URL.
// @Tags Exports
// @Produce json
// @Param id path string true "Paper ID"
// @Param format query string true "Export format (pdf or json)"
// @Success 202 {object} response.Envelope
// @Router /papers/{id}/export [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := models.ExportFormat(c.DefaultQuery("format", "pdf"))
	job, err := h.exports.EnqueuePaperExport(c.Request.Context(), claims.SchoolID, claims.UserID, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// GetJob godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) GetJob(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	job, err := h.exports.GetJob(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Description The token is the signed URL issued by the job endpoint. No session is required.
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, job, err := h.exports.OpenDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read export"))
		return
	}

	contentType := "application/octet-stream"
	switch job.Format {
	case models.ExportFormatPDF:
		contentType = "application/pdf"
	case models.ExportFormatJSON:
		contentType = "application/json"
	}

	filename := fmt.Sprintf("paper-%s.%s", job.PaperID, job.Format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}

// LeaveCSV godoc
// @Summary Download the school's leave register as CSV
// @Tags Exports
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Success 200 {file} binary
// @Router /exports/leaves.csv [get]
func (h *ExportHandler) LeaveCSV(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.LeaveFilter{
		SchoolID: claims.SchoolID,
		Status:   models.LeaveStatus(c.Query("status")),
	}
	data, err := h.exports.LeaveCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="leaves.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// PapersCSV godoc
// @Summary Download the school's paper inventory as CSV
// @Tags Exports
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Success 200 {file} binary
// @Router /exports/papers.csv [get]
func (h *ExportHandler) PapersCSV(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.PaperFilter{
		SchoolID: claims.SchoolID,
		Status:   models.PaperStatus(c.Query("status")),
	}
	data, err := h.exports.PapersCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="papers.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}
