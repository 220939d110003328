package port

import (
	"context"

	"legalyzer/internal/domain"
)

// ReportRenderer serializes an analysis into a downloadable artifact.
type ReportRenderer interface {
	Format() domain.ExportFormat
	Render(ctx context.Context, result *domain.AnalysisResult) ([]byte, error)
}
