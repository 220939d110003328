package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"legalyzer/internal/domain"
)

const (
	sheetSummary = "Summary"
	sheetClauses = "Clauses"
)

// XLSXRenderer writes a workbook with a summary sheet and a clause sheet.
type XLSXRenderer struct {
	bands domain.RiskBands
}

func NewXLSXRenderer(bands domain.RiskBands) *XLSXRenderer {
	return &XLSXRenderer{bands: bands}
}

func (r *XLSXRenderer) Format() domain.ExportFormat { return domain.ExportFormatXLSX }

func (r *XLSXRenderer) Render(_ context.Context, result *domain.AnalysisResult) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetClauses); err != nil {
		return nil, fmt.Errorf("creating clauses sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating style: %w", err)
	}

	if err := r.writeSummary(f, result, bold); err != nil {
		return nil, err
	}
	if err := writeClauses(f, result.KeyClauses, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing xlsx export: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *XLSXRenderer) writeSummary(f *excelize.File, result *domain.AnalysisResult, bold int) error {
	stats := ComputeStatistics(result, r.bands)
	rows := [][]interface{}{
		{"Document Name", result.Filename},
		{"Document Type", result.DocumentType},
		{"Analyzed At", result.AnalyzedAt.Format("2006-01-02 15:04:05 MST")},
		{"Confidence", result.Confidence},
		{"Total Pages", result.TotalPages},
		{"Word Count", result.WordCount},
		{"OCR Used", yesNo(result.OCRUsed)},
		{"Total Clauses", stats.TotalClauses},
		{"High Importance Clauses", stats.ImportanceCounts[string(domain.ImportanceHigh)]},
		{"High Risk Clauses", stats.RiskCounts[string(domain.ImportanceHigh)]},
		{"Most Common Clause Type", stats.MostCommonType},
		{},
	}
	rows = append(rows, summaryRows(result.Summary)...)

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("writing summary row: %w", err)
		}
		if err := f.SetCellStyle(sheetSummary, cell, cell, bold); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetSummary, "A", "A", 28); err != nil {
		return err
	}
	return f.SetColWidth(sheetSummary, "B", "B", 90)
}

func summaryRows(s domain.Summary) [][]interface{} {
	if !s.IsStructured() {
		return [][]interface{}{{"Summary", s.Legacy}}
	}
	st := s.Structured
	return [][]interface{}{
		{"Overview", st.Overview},
		{"Key Points", strings.Join(st.KeyPoints, "\n")},
		{"Obligations", strings.Join(st.Obligations, "\n")},
		{"Risks", strings.Join(st.Risks, "\n")},
		{"Recommendations", strings.Join(st.Recommendations, "\n")},
	}
}

var clauseHeader = []interface{}{"#", "Type", "Importance", "Classification", "Risk Score", "Page", "Confidence", "Content"}

func writeClauses(f *excelize.File, clauses []domain.KeyClause, bold int) error {
	if err := f.SetSheetRow(sheetClauses, "A1", &clauseHeader); err != nil {
		return fmt.Errorf("writing clause header: %w", err)
	}
	if err := f.SetCellStyle(sheetClauses, "A1", "H1", bold); err != nil {
		return err
	}
	for i, c := range clauses {
		var page interface{}
		if c.Page != nil {
			page = *c.Page
		}
		row := []interface{}{i + 1, c.Type, string(c.Importance), c.Classification, c.RiskScore, page, c.Confidence, c.Content}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetClauses, cell, &row); err != nil {
			return fmt.Errorf("writing clause row: %w", err)
		}
	}
	if err := f.SetColWidth(sheetClauses, "B", "D", 20); err != nil {
		return err
	}
	return f.SetColWidth(sheetClauses, "H", "H", 100)
}
