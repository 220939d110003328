package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrNotReady            = errors.New("export is not ready")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrExtraction          = errors.New("document could not be parsed")
	ErrNoExtractableText   = errors.New("no text could be extracted from the document")
	ErrOCRUnavailable      = errors.New("ocr is unavailable")
	ErrAnalysis            = errors.New("analysis failed")
	ErrInvalidExportFormat = errors.New("invalid export format")
	ErrInvalidTransition   = errors.New("invalid export status transition")
	ErrQueueFull           = errors.New("export queue full")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrRetentionDisabled   = errors.New("retention is disabled")
)

// ValidationReason distinguishes why the format gate rejected an upload.
type ValidationReason string

const (
	ReasonUnsupportedType ValidationReason = "unsupported_type"
	ReasonTooLarge        ValidationReason = "too_large"
)

// ValidationError is returned by the format gate before any processing happens.
type ValidationError struct {
	Reason ValidationReason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	if e.Reason == ReasonTooLarge {
		return ErrFileTooLarge
	}
	return ErrUnsupportedFileType
}

// NewUnsupportedType creates an unsupported_type ValidationError.
func NewUnsupportedType(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: ReasonUnsupportedType, Detail: fmt.Sprintf(format, args...)}
}

// NewTooLarge creates a too_large ValidationError.
func NewTooLarge(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: ReasonTooLarge, Detail: fmt.Sprintf(format, args...)}
}

// ExtractionError means the input could not be parsed as its declared type.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// OCRUnavailableError is returned when a document needs OCR and the engine is absent.
type OCRUnavailableError struct {
	Message string
}

func (e *OCRUnavailableError) Error() string { return e.Message }

func (e *OCRUnavailableError) Is(target error) bool { return target == ErrOCRUnavailable }

// AnalysisErrorKind classifies analysis client failures.
type AnalysisErrorKind string

const (
	AnalysisTimeout           AnalysisErrorKind = "timeout"
	AnalysisMalformedResponse AnalysisErrorKind = "malformed_response"
	AnalysisUpstreamError     AnalysisErrorKind = "upstream_error"
)

// AnalysisError is returned by the analysis client. Nothing is cached when it occurs.
type AnalysisError struct {
	Kind AnalysisErrorKind
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis %s: %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func (e *AnalysisError) Is(target error) bool { return target == ErrAnalysis }
