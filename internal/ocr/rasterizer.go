package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"legalyzer/internal/config"
	"legalyzer/internal/logger"
)

// Pdftoppm implements port.PageRasterizer with poppler's pdftoppm.
type Pdftoppm struct {
	runner    Runner
	bin       string
	dpi       int
	timeout   time.Duration
	available bool
	log       zerolog.Logger
}

// NewPdftoppm probes the binary once and caches the result.
func NewPdftoppm(ctx context.Context, cfg *config.OCRConfig, runner Runner) *Pdftoppm {
	p := &Pdftoppm{
		runner:  runner,
		bin:     cfg.PdftoppmPath,
		dpi:     cfg.DPI,
		timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		log:     logger.WithComponent("ocr-pdftoppm"),
	}
	if p.bin == "" {
		p.bin = "pdftoppm"
	}
	if p.dpi <= 0 {
		p.dpi = 144
	}
	if p.timeout <= 0 {
		p.timeout = 60 * time.Second
	}
	if !cfg.Enabled {
		return p
	}
	var version string
	version, p.available = probe(ctx, runner, p.bin, "-v")
	if p.available {
		p.log.Info().Str("version", version).Msg("pdftoppm available")
	} else {
		p.log.Warn().Msg("pdftoppm not found; scanned PDF pages will not be OCR'd")
	}
	return p
}

// Available reports the capability flag resolved at construction.
func (p *Pdftoppm) Available() bool {
	return p.available
}

// RasterizePage renders one 1-based page to an image. Temporary files are
// removed before returning on every path.
func (p *Pdftoppm) RasterizePage(ctx context.Context, data []byte, page int) (image.Image, error) {
	if !p.available {
		return nil, fmt.Errorf("ocr.RasterizePage: pdftoppm unavailable")
	}

	dir, err := os.MkdirTemp("", "legalyzer-raster-*")
	if err != nil {
		return nil, fmt.Errorf("ocr.RasterizePage: creating temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	in := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("ocr.RasterizePage: writing pdf: %w", err)
	}
	prefix := filepath.Join(dir, "page")

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	n := strconv.Itoa(page)
	_, stderr, err := p.runner.Run(runCtx, p.bin,
		"-f", n, "-l", n, "-r", strconv.Itoa(p.dpi), "-png", "-singlefile", in, prefix)
	if err != nil {
		return nil, fmt.Errorf("ocr.RasterizePage: page %d: %w (%s)", page, err, truncate(string(stderr), 512))
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("ocr.RasterizePage: page %d output: %w", page, err)
	}
	defer func() { _ = f.Close() }()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("ocr.RasterizePage: decoding page %d: %w", page, err)
	}
	return img, nil
}
