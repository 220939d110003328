package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"legalyzer/internal/domain"
)

const exportVersion = "1.0"

type exportInfo struct {
	GeneratedAt      time.Time           `json:"generated_at"`
	OriginalFilename string              `json:"original_filename"`
	ExportFormat     domain.ExportFormat `json:"export_format"`
	Version          string              `json:"version"`
}

type jsonExport struct {
	ExportInfo exportInfo             `json:"export_info"`
	Analysis   *domain.AnalysisResult `json:"analysis"`
	Statistics Statistics             `json:"statistics"`
}

// JSONRenderer writes the analysis wrapped in an export envelope.
type JSONRenderer struct {
	bands domain.RiskBands
}

func NewJSONRenderer(bands domain.RiskBands) *JSONRenderer {
	return &JSONRenderer{bands: bands}
}

func (r *JSONRenderer) Format() domain.ExportFormat { return domain.ExportFormatJSON }

func (r *JSONRenderer) Render(_ context.Context, result *domain.AnalysisResult) ([]byte, error) {
	doc := jsonExport{
		ExportInfo: exportInfo{
			GeneratedAt:      time.Now().UTC(),
			OriginalFilename: result.Filename,
			ExportFormat:     domain.ExportFormatJSON,
			Version:          exportVersion,
		},
		Analysis:   result,
		Statistics: ComputeStatistics(result, r.bands),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding json export: %w", err)
	}
	return buf.Bytes(), nil
}
