package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"legalyzer/internal/port"
)

// CapabilityReporter exposes whether OCR is usable in this process.
type CapabilityReporter interface {
	OCREnabled() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store        port.ResultStore
	capabilities CapabilityReporter
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store port.ResultStore, capabilities CapabilityReporter) *HealthHandler {
	return &HealthHandler{store: store, capabilities: capabilities}
}

// Health handles GET /health
// @Summary Service health
// @Description Overall status with OCR capability and store reachability.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse "Healthy"
// @Failure 503 {object} HealthResponse "Store unreachable"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	services := map[string]string{
		"tesseract_ocr":    enabled(h.capabilities.OCREnabled()),
		"image_processing": "enabled",
		"store":            "ok",
	}
	status, code := "healthy", http.StatusOK
	if err := h.store.Ping(c.Request.Context()); err != nil {
		services["store"] = "unavailable"
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{Status: status, Services: services})
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "result store not reachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func enabled(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}
