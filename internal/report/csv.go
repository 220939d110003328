package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"legalyzer/internal/domain"
)

// BOM is the UTF-8 byte order mark, written first for Excel on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row.
var columns = []string{
	"Document Name",
	"Document Type",
	"Clause #",
	"Clause Type",
	"Importance",
	"Classification",
	"Risk Score",
	"Page",
	"Confidence",
	"Content",
}

// CSVRenderer writes one row per key clause.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

func (r *CSVRenderer) Format() domain.ExportFormat { return domain.ExportFormatCSV }

func (r *CSVRenderer) Render(_ context.Context, result *domain.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, err
	}
	for i := range result.KeyClauses {
		if err := w.Write(clauseToRow(result, i)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing csv export: %w", err)
	}
	return buf.Bytes(), nil
}

func clauseToRow(result *domain.AnalysisResult, i int) []string {
	c := result.KeyClauses[i]
	row := make([]string, len(columns))
	row[0] = result.Filename
	row[1] = result.DocumentType
	row[2] = strconv.Itoa(i + 1)
	row[3] = c.Type
	row[4] = string(c.Importance)
	row[5] = c.Classification
	row[6] = formatScore(c.RiskScore)
	row[7] = formatPage(c.Page)
	row[8] = formatScore(c.Confidence)
	row[9] = c.Content
	return row
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPage(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
