package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"legalyzer/internal/service"
)

// AnalysisHandler handles document upload and analysis history endpoints.
type AnalysisHandler struct {
	analysisService service.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// Analyze handles POST /analyze
// @Summary Analyze a legal document
// @Description Upload a PDF or image, extract its text and return a clause-level legal analysis.
// @Description Identical uploads are served from history with cached=true.
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document to analyze (PDF, PNG, JPG, TIFF, BMP)"
// @Success 200 {object} Response{data=domain.AnalysisResult} "Analysis result"
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 422 {object} ErrorResponseBody "Document could not be read"
// @Failure 429 {object} ErrorResponseBody "Rate limit exceeded"
// @Failure 502 {object} ErrorResponseBody "Analysis service error"
// @Failure 504 {object} ErrorResponseBody "Analysis timed out"
// @Router /analyze [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.analysisService.Analyze(c.Request.Context(), service.AnalyzeInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		File:        file,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Get handles GET /analysis/:file_id
// @Summary Get a stored analysis
// @Tags analysis
// @Produce json
// @Param file_id path string true "File ID"
// @Success 200 {object} Response{data=domain.AnalysisResult} "Analysis result"
// @Failure 404 {object} ErrorResponseBody "Analysis not found"
// @Router /analysis/{file_id} [get]
func (h *AnalysisHandler) Get(c *gin.Context) {
	fileID, ok := parseIDParam(c, "file_id")
	if !ok {
		return
	}

	result, err := h.analysisService.Get(c.Request.Context(), fileID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// List handles GET /analyses
// @Summary List stored analyses
// @Description Returns every stored analysis, newest first.
// @Tags analysis
// @Produce json
// @Success 200 {object} Response{data=[]domain.AnalysisResult} "Stored analyses"
// @Router /analyses [get]
func (h *AnalysisHandler) List(c *gin.Context) {
	results, err := h.analysisService.List(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, results)
}

// Clear handles DELETE /analyses
// @Summary Clear analysis history
// @Description Removes every stored analysis and export task. Clearing an empty history succeeds.
// @Tags analysis
// @Produce json
// @Success 200 {object} Response{data=ClearHistoryResponse} "Number of analyses removed"
// @Router /analyses [delete]
func (h *AnalysisHandler) Clear(c *gin.Context) {
	cleared, err := h.analysisService.ClearHistory(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ClearHistoryResponse{Cleared: cleared})
}

// Original handles GET /documents/:file_id
// @Summary View the original document
// @Description Streams the uploaded bytes with their original content type.
// @Tags analysis
// @Produce application/pdf,image/png,image/jpeg,image/tiff,image/bmp
// @Param file_id path string true "File ID"
// @Success 200 {file} binary "Original document"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Router /documents/{file_id} [get]
func (h *AnalysisHandler) Original(c *gin.Context) {
	fileID, ok := parseIDParam(c, "file_id")
	if !ok {
		return
	}

	doc, err := h.analysisService.GetOriginal(c.Request.Context(), fileID)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
