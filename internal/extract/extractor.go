// Package extract turns PDF and image bytes into page-ordered text, using
// native PDF text where it exists and OCR where it does not.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"legalyzer/internal/domain"
	"legalyzer/internal/imageproc"
	"legalyzer/internal/logger"
	"legalyzer/internal/port"
)

const ocrUnavailableMessage = "OCR is not available on this server, so images cannot be analyzed. " +
	"Install tesseract-ocr (e.g. apt-get install tesseract-ocr) or upload a PDF with a text layer."

// Config tunes the extractor.
type Config struct {
	// MinNativeChars is the trimmed length below which a PDF page is treated as scanned.
	MinNativeChars int
	OCRWorkers     int
}

// Extractor implements port.TextExtractor.
type Extractor struct {
	ocr    port.OCREngine
	raster port.PageRasterizer
	cfg    Config
	log    zerolog.Logger
}

// New creates an Extractor. ocr and raster may report unavailable; raster may be nil.
func New(ocr port.OCREngine, raster port.PageRasterizer, cfg Config) *Extractor {
	if cfg.MinNativeChars <= 0 {
		cfg.MinNativeChars = 50
	}
	if cfg.OCRWorkers <= 0 {
		cfg.OCRWorkers = 1
	}
	return &Extractor{
		ocr:    ocr,
		raster: raster,
		cfg:    cfg,
		log:    logger.WithComponent("extractor"),
	}
}

// Extract dispatches on the file type.
func (e *Extractor) Extract(ctx context.Context, data []byte, fileType domain.FileType) (*domain.ExtractedText, error) {
	if fileType == domain.FileTypePDF {
		return e.extractPDF(ctx, data)
	}
	return e.extractImage(ctx, data)
}

func (e *Extractor) pdfOCRAvailable() bool {
	return e.ocr != nil && e.ocr.Available() && e.raster != nil && e.raster.Available()
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (*domain.ExtractedText, error) {
	native, err := nativePages(data)
	if err != nil {
		return nil, &domain.ExtractionError{Err: err}
	}

	pages := make([]domain.PageText, len(native))
	var candidates []int
	for i, text := range native {
		pages[i] = domain.PageText{Number: i + 1, Text: text, Provenance: domain.ProvenanceNative}
		if len(strings.TrimSpace(text)) < e.cfg.MinNativeChars {
			candidates = append(candidates, i)
		}
	}

	var notes []string
	if len(candidates) > 0 {
		if e.pdfOCRAvailable() {
			applied, err := e.ocrPages(ctx, data, pages, candidates)
			if err != nil {
				return nil, err
			}
			if applied > 0 {
				notes = append(notes, fmt.Sprintf("OCR applied to %d pages", applied))
			}
		} else {
			missing := false
			for _, i := range candidates {
				if strings.TrimSpace(pages[i].Text) == "" {
					pages[i].Text = ""
					pages[i].Provenance = domain.ProvenanceNone
					missing = true
				}
			}
			if missing {
				notes = append(notes, "OCR unavailable - some text may be missing")
			}
		}
	}

	return assemble(pages, notes), nil
}

// ocrPages OCRs the candidate pages concurrently. Each goroutine writes only
// its own slot so page order is kept. A failed page keeps its native text.
func (e *Extractor) ocrPages(ctx context.Context, data []byte, pages []domain.PageText, candidates []int) (int, error) {
	results := make([]string, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.OCRWorkers)

	for _, idx := range candidates {
		g.Go(func() error {
			img, err := e.raster.RasterizePage(gctx, data, idx+1)
			if err != nil {
				e.log.Warn().Err(err).Int("page", idx+1).Msg("rasterization failed")
				return gctx.Err()
			}
			text, err := e.ocr.Recognize(gctx, imageproc.Enhance(img))
			if err != nil {
				e.log.Warn().Err(err).Int("page", idx+1).Msg("page OCR failed")
				return gctx.Err()
			}
			results[idx] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("extract.ocrPages: %w", err)
	}

	applied := 0
	for _, idx := range candidates {
		ocrText := strings.TrimSpace(results[idx])
		if len(ocrText) > len(strings.TrimSpace(pages[idx].Text)) {
			pages[idx].Text = ocrText
			pages[idx].Provenance = domain.ProvenanceOCR
			applied++
			continue
		}
		if strings.TrimSpace(pages[idx].Text) == "" {
			pages[idx].Text = ""
			pages[idx].Provenance = domain.ProvenanceNone
		}
	}
	return applied, nil
}

func (e *Extractor) extractImage(ctx context.Context, data []byte) (*domain.ExtractedText, error) {
	if e.ocr == nil || !e.ocr.Available() {
		return nil, &domain.OCRUnavailableError{Message: ocrUnavailableMessage}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &domain.ExtractionError{Err: fmt.Errorf("decoding image: %w", err)}
	}

	text, err := e.ocr.Recognize(ctx, imageproc.Enhance(img))
	if err != nil {
		return nil, &domain.ExtractionError{Err: fmt.Errorf("image OCR: %w", err)}
	}

	page := domain.PageText{Number: 1, Text: strings.TrimSpace(text), Provenance: domain.ProvenanceOCR}
	if page.Text == "" {
		page.Provenance = domain.ProvenanceNone
	}
	return assemble([]domain.PageText{page}, nil), nil
}

// nativePages reads the text layer of every page. The pdf library panics on
// some malformed inputs, which is reported as a parse error.
func nativePages(data []byte) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	n := reader.NumPage()
	texts = make([]string, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// image-only pages often have no decodable content stream
			continue
		}
		texts[i-1] = strings.TrimSpace(text)
	}
	return texts, nil
}

func assemble(pages []domain.PageText, notes []string) *domain.ExtractedText {
	var b strings.Builder
	ocrUsed := false
	for _, p := range pages {
		if p.Provenance == domain.ProvenanceOCR {
			ocrUsed = true
		}
		if p.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Page %d ---\n%s", p.Number, p.Text)
	}
	return &domain.ExtractedText{
		Text:      b.String(),
		PageCount: len(pages),
		Pages:     pages,
		OCRUsed:   ocrUsed,
		Notes:     notes,
	}
}
