package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"legalyzer/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// statusClientClosedRequest is the nginx convention for a client that went away
// before the response was written.
const statusClientClosedRequest = 499

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Validation and OCR errors carry an actionable message that is passed through.
func MapDomainError(err error) (status int, code, msg string) {
	var (
		vErr   *domain.ValidationError
		ocrErr *domain.OCRUnavailableError
		aErr   *domain.AnalysisError
	)
	switch {
	case errors.As(err, &vErr) && vErr.Reason == domain.ReasonTooLarge:
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", vErr.Error()
	case errors.As(err, &vErr):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", vErr.Error()
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type"
	case errors.As(err, &ocrErr):
		return http.StatusUnprocessableEntity, "OCR_UNAVAILABLE", ocrErr.Message
	case errors.Is(err, domain.ErrNoExtractableText):
		return http.StatusUnprocessableEntity, "NO_EXTRACTABLE_TEXT", "no text could be extracted from the document"
	case errors.Is(err, domain.ErrExtraction):
		return http.StatusUnprocessableEntity, "EXTRACTION_FAILED", "document could not be parsed; the file may be corrupt"
	case errors.As(err, &aErr) && aErr.Kind == domain.AnalysisTimeout:
		return http.StatusGatewayTimeout, "ANALYSIS_TIMEOUT", "analysis timed out; please retry"
	case errors.As(err, &aErr) && aErr.Kind == domain.AnalysisMalformedResponse:
		return http.StatusBadGateway, "ANALYSIS_MALFORMED_RESPONSE", "the analysis service returned an unusable response; please retry"
	case errors.Is(err, domain.ErrAnalysis):
		return http.StatusBadGateway, "ANALYSIS_UPSTREAM_ERROR", "the analysis service is unavailable; please retry"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrNotReady):
		return http.StatusConflict, "EXPORT_NOT_READY", "export is not ready"
	case errors.Is(err, domain.ErrInvalidExportFormat):
		return http.StatusBadRequest, "INVALID_EXPORT_FORMAT", "invalid export format; allowed: pdf, json, xlsx, csv"
	case errors.Is(err, domain.ErrQueueFull):
		return http.StatusServiceUnavailable, "EXPORT_QUEUE_FULL", "export queue full"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "file upload to storage failed"
	case errors.Is(err, domain.ErrRetentionDisabled):
		return http.StatusConflict, "RETENTION_DISABLED", "retention is disabled; set retention.analysis_ttl to enable cleanup"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "REQUEST_CANCELED", "the request was canceled before processing finished"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "REQUEST_TIMEOUT", "the request timed out before processing finished; please retry"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	requestID, _ := c.Get("request_id")
	if status >= 500 {
		log.Error().Err(err).Interface("request_id", requestID).Str("code", code).Msg("request failed")
	} else {
		log.Debug().Err(err).Interface("request_id", requestID).Str("code", code).Msg("request rejected")
	}
	RespondError(c, status, code, msg)
}

// parseIDParam reads a UUID path parameter. A malformed id cannot name an
// existing record, so it is reported as not found.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return uuid.Nil, false
	}
	return id, true
}
