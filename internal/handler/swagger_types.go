package handler

import (
	"time"

	"github.com/google/uuid"

	"legalyzer/internal/domain"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// Response wraps a successful response.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}

// ExportCreatedResponse is returned when an export task is accepted.
type ExportCreatedResponse struct {
	TaskID uuid.UUID           `json:"task_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status domain.ExportStatus `json:"status" example:"queued"`
}

// ExportStatusResponse is returned when an export task is polled.
type ExportStatusResponse struct {
	TaskID    uuid.UUID           `json:"task_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	FileID    uuid.UUID           `json:"file_id" example:"660e8400-e29b-41d4-a716-446655440001"`
	Format    domain.ExportFormat `json:"format" example:"pdf"`
	Status    domain.ExportStatus `json:"status" example:"ready"`
	Error     string              `json:"error,omitempty" example:"render timed out"`
	CreatedAt time.Time           `json:"created_at"`
}

// ClearHistoryResponse is returned by the clear-history endpoint.
type ClearHistoryResponse struct {
	Cleared int `json:"cleared" example:"3"`
}

// HealthResponse reports overall status and capability flags.
type HealthResponse struct {
	Status   string            `json:"status" example:"healthy"`
	Services map[string]string `json:"services"`
}
