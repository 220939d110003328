package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"legalyzer/internal/service"
)

// SystemHandler exposes upload policy, runtime statistics and retention.
type SystemHandler struct {
	analysisService  service.AnalysisService
	retentionService service.RetentionService
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(analysisService service.AnalysisService, retentionService service.RetentionService) *SystemHandler {
	return &SystemHandler{analysisService: analysisService, retentionService: retentionService}
}

// CleanupResponse reports a manual retention pass.
type CleanupResponse struct {
	Type    string    `json:"type"`
	Removed int       `json:"removed"`
	Message string    `json:"message"`
	RanAt   time.Time `json:"ran_at"`
}

// Analyses are the only history kept; exports and blobs go with them.
var cleanupTypes = map[string]bool{"all": true, "analysis": true}

// SupportedFormats handles GET /supported-formats
// @Summary List supported formats
// @Description Current upload allow-list, size limit and export formats.
// @Tags system
// @Produce json
// @Success 200 {object} Response{data=service.SupportedFormats} "Supported formats"
// @Router /supported-formats [get]
func (h *SystemHandler) SupportedFormats(c *gin.Context) {
	RespondOK(c, h.analysisService.SupportedFormats())
}

// Stats handles GET /stats
// @Summary Service statistics
// @Tags system
// @Produce json
// @Success 200 {object} Response{data=service.ServiceStats} "Statistics"
// @Router /stats [get]
func (h *SystemHandler) Stats(c *gin.Context) {
	stats, err := h.analysisService.Stats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, stats)
}

// RetentionStatus handles GET /retention/status
// @Summary Retention status
// @Description Retention policy and the outcome of the most recent pass.
// @Tags system
// @Produce json
// @Success 200 {object} Response{data=service.RetentionStatus} "Retention status"
// @Router /retention/status [get]
func (h *SystemHandler) RetentionStatus(c *gin.Context) {
	RespondOK(c, h.retentionService.Status())
}

// RetentionCleanup handles POST /retention/cleanup
// @Summary Run retention now
// @Description Removes analyses older than the retention TTL together with their exports.
// @Tags system
// @Produce json
// @Param type query string false "Cleanup type" Enums(all, analysis) default(all)
// @Success 200 {object} Response{data=CleanupResponse} "Cleanup result"
// @Failure 400 {object} ErrorResponseBody "Invalid cleanup type"
// @Failure 409 {object} ErrorResponseBody "Retention disabled"
// @Router /retention/cleanup [post]
func (h *SystemHandler) RetentionCleanup(c *gin.Context) {
	typ := strings.ToLower(c.DefaultQuery("type", "all"))
	if !cleanupTypes[typ] {
		RespondError(c, http.StatusBadRequest, "INVALID_CLEANUP_TYPE", "invalid cleanup type; must be one of: all, analysis")
		return
	}

	removed, err := h.retentionService.Cleanup(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, CleanupResponse{
		Type:    typ,
		Removed: removed,
		Message: "cleanup completed for type: " + typ,
		RanAt:   time.Now().UTC(),
	})
}
