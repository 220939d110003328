package report

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"legalyzer/internal/domain"
)

const (
	pdfMargin    = 15.0
	pdfLineH     = 5.5
	pdfLabelW    = 55.0
	reportTitle  = "Legal Document Analysis Report"
	reportAuthor = "Legal Document Analyzer"
)

type rgb struct{ r, g, b int }

var (
	colorPrimary = rgb{31, 78, 121}
	colorLightBg = rgb{240, 244, 248}
	colorText    = rgb{33, 37, 41}
	colorMuted   = rgb{108, 117, 125}

	importanceColor = map[domain.Importance]rgb{
		domain.ImportanceHigh:   {192, 57, 43},
		domain.ImportanceMedium: {211, 84, 0},
		domain.ImportanceLow:    {39, 174, 96},
	}
)

// PDFRenderer lays out a printable report with the core PDF fonts.
type PDFRenderer struct {
	bands domain.RiskBands
}

func NewPDFRenderer(bands domain.RiskBands) *PDFRenderer {
	return &PDFRenderer{bands: bands}
}

func (r *PDFRenderer) Format() domain.ExportFormat { return domain.ExportFormatPDF }

func (r *PDFRenderer) Render(ctx context.Context, result *domain.AnalysisResult) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(reportTitle, true)
	pdf.SetAuthor(reportAuthor, true)
	pdf.SetCreationDate(time.Now().UTC())
	pdf.AliasNbPages("")

	// the core fonts are cp1252; the translator is not safe to share between documents
	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		setText(pdf, colorMuted)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	stats := ComputeStatistics(result, r.bands)

	w.title()
	w.metadata(result, stats)
	w.summary(result.Summary)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.insights(KeyInsights(result, stats))
	w.clauses(result.KeyClauses, r.bands)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("building pdf export: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf export: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }

func (w *pdfWriter) title() {
	w.pdf.SetFont("Helvetica", "B", 18)
	setText(w.pdf, colorPrimary)
	w.pdf.CellFormat(0, 12, reportTitle, "", 1, "C", false, 0, "")
	w.pdf.Ln(4)
}

func (w *pdfWriter) section(name string) {
	w.pdf.Ln(3)
	w.pdf.SetFont("Helvetica", "B", 13)
	setText(w.pdf, colorPrimary)
	w.pdf.CellFormat(0, 8, w.tr(name), "B", 1, "L", false, 0, "")
	w.pdf.Ln(2)
}

func (w *pdfWriter) metadata(result *domain.AnalysisResult, stats Statistics) {
	rows := [][2]string{
		{"Document Name", result.Filename},
		{"Analysis Date", result.AnalyzedAt.Format("January 02, 2006 at 03:04 PM")},
		{"Document Type", result.DocumentType},
		{"Analysis Confidence", fmt.Sprintf("%.1f%%", result.Confidence*100)},
		{"Total Pages", strconv.Itoa(result.TotalPages)},
		{"Word Count", strconv.Itoa(result.WordCount)},
		{"OCR Used", yesNo(result.OCRUsed)},
		{"Total Clauses Identified", strconv.Itoa(stats.TotalClauses)},
		{"High Importance Clauses", strconv.Itoa(stats.ImportanceCounts[string(domain.ImportanceHigh)])},
		{"Most Common Clause Type", stats.MostCommonType},
	}
	if result.ModelUsed != "" {
		rows = append(rows, [2]string{"Model", result.ModelUsed})
	}

	w.pdf.SetFillColor(colorLightBg.r, colorLightBg.g, colorLightBg.b)
	for _, row := range rows {
		w.pdf.SetFont("Helvetica", "B", 10)
		setText(w.pdf, colorText)
		w.pdf.CellFormat(pdfLabelW, 7, row[0], "1", 0, "L", true, 0, "")
		w.pdf.SetFont("Helvetica", "", 10)
		w.pdf.CellFormat(0, 7, w.tr(row[1]), "1", 1, "L", false, 0, "")
	}
}

func (w *pdfWriter) summary(s domain.Summary) {
	w.section("Executive Summary")
	if !s.IsStructured() {
		w.paragraph(orDefault(s.Legacy, "No summary available."))
		return
	}
	st := s.Structured
	w.paragraph(orDefault(st.Overview, "No overview available."))
	w.bullets("Key Points", st.KeyPoints)
	w.bullets("Obligations", st.Obligations)
	w.bullets("Risks", st.Risks)
	w.bullets("Recommendations", st.Recommendations)
}

func (w *pdfWriter) insights(items []string) {
	if len(items) == 0 {
		return
	}
	w.section("Key Insights")
	w.bullets("", items)
}

func (w *pdfWriter) clauses(clauses []domain.KeyClause, bands domain.RiskBands) {
	w.section("Key Clauses")
	if len(clauses) == 0 {
		w.paragraph("No key clauses were identified.")
		return
	}
	for i, c := range clauses {
		w.pdf.SetFont("Helvetica", "B", 11)
		setText(w.pdf, colorText)
		w.pdf.MultiCell(0, 6, w.tr(fmt.Sprintf("%d. %s", i+1, c.Type)), "", "L", false)

		meta := fmt.Sprintf("Importance: %s | Risk: %.1f/10 (%s) | %s", c.Importance, c.RiskScore, bands.Bucket(c.RiskScore), c.Classification)
		if c.Page != nil {
			meta += fmt.Sprintf(" | Page %d", *c.Page)
		}
		w.pdf.SetFont("Helvetica", "I", 9)
		col, ok := importanceColor[c.Importance]
		if !ok {
			col = colorMuted
		}
		setText(w.pdf, col)
		w.pdf.MultiCell(0, 5, w.tr(meta), "", "L", false)

		w.paragraph(c.Content)
		w.pdf.Ln(1)
	}
}

func (w *pdfWriter) paragraph(text string) {
	w.pdf.SetFont("Helvetica", "", 10)
	setText(w.pdf, colorText)
	w.pdf.MultiCell(0, pdfLineH, w.tr(text), "", "L", false)
	w.pdf.Ln(1)
}

func (w *pdfWriter) bullets(heading string, items []string) {
	if len(items) == 0 {
		return
	}
	if heading != "" {
		w.pdf.SetFont("Helvetica", "B", 10)
		setText(w.pdf, colorText)
		w.pdf.CellFormat(0, 6, heading, "", 1, "L", false, 0, "")
	}
	w.pdf.SetFont("Helvetica", "", 10)
	setText(w.pdf, colorText)
	for _, item := range items {
		w.pdf.SetX(pdfMargin + 4)
		w.pdf.MultiCell(0, pdfLineH, w.tr("- "+item), "", "L", false)
	}
	w.pdf.Ln(1)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
