package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"legalyzer/internal/service"
)

// ExportHandler handles the two-phase export endpoints.
type ExportHandler struct {
	exportService service.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// Create handles POST /export/:file_id/:format
// @Summary Start an export
// @Description Queues rendering of a stored analysis. Poll the returned task until it is ready.
// @Tags export
// @Produce json
// @Param file_id path string true "File ID"
// @Param format path string true "Export format" Enums(pdf, json, xlsx, csv)
// @Success 202 {object} Response{data=ExportCreatedResponse} "Export accepted"
// @Failure 400 {object} ErrorResponseBody "Invalid export format"
// @Failure 404 {object} ErrorResponseBody "Analysis not found"
// @Router /export/{file_id}/{format} [post]
func (h *ExportHandler) Create(c *gin.Context) {
	fileID, ok := parseIDParam(c, "file_id")
	if !ok {
		return
	}

	task, err := h.exportService.Create(c.Request.Context(), fileID, c.Param("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, ExportCreatedResponse{TaskID: task.ID, Status: task.Status})
}

// Poll handles GET /export/:task_id
// @Summary Poll an export
// @Tags export
// @Produce json
// @Param task_id path string true "Task ID"
// @Success 200 {object} Response{data=ExportStatusResponse} "Task status"
// @Failure 404 {object} ErrorResponseBody "Task not found"
// @Router /export/{task_id} [get]
func (h *ExportHandler) Poll(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	task, err := h.exportService.Poll(c.Request.Context(), taskID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ExportStatusResponse{
		TaskID:    task.ID,
		FileID:    task.FileID,
		Format:    task.Format,
		Status:    task.Status,
		Error:     task.Error,
		CreatedAt: task.CreatedAt,
	})
}

// Download handles GET /export/:task_id/download
// @Summary Download an export
// @Description Returns the rendered artifact. Repeated downloads return the same content.
// @Tags export
// @Produce application/pdf,application/json,text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param task_id path string true "Task ID"
// @Success 200 {file} binary "Export artifact"
// @Failure 404 {object} ErrorResponseBody "Task not found"
// @Failure 409 {object} ErrorResponseBody "Export not ready"
// @Router /export/{task_id}/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	artifact, err := h.exportService.Download(c.Request.Context(), taskID)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}
