package port

import (
	"context"

	"legalyzer/internal/domain"
)

// DocumentMeta describes the document being analyzed.
type DocumentMeta struct {
	Filename    string
	ContentType string
	FileType    domain.FileType
}

// DocumentAnalyzer turns extracted text into a normalized analysis result.
// Failures are *domain.AnalysisError.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, text *domain.ExtractedText, meta DocumentMeta) (*domain.AnalysisResult, error)
}

// TextExtractor produces page-ordered text from raw document bytes.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, fileType domain.FileType) (*domain.ExtractedText, error)
}
