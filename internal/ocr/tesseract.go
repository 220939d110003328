// Package ocr wraps the tesseract and pdftoppm command line tools.
package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"legalyzer/internal/config"
	"legalyzer/internal/logger"
)

// Tesseract implements port.OCREngine by shelling out to tesseract.
type Tesseract struct {
	runner      Runner
	bin         string
	lang        string
	psm         int
	fallbackPSM int
	timeout     time.Duration
	available   bool
	version     string
	log         zerolog.Logger
}

// NewTesseract probes the binary once and caches the result. A disabled
// config yields an engine that reports unavailable without probing.
func NewTesseract(ctx context.Context, cfg *config.OCRConfig, runner Runner) *Tesseract {
	t := &Tesseract{
		runner:      runner,
		bin:         cfg.TesseractPath,
		lang:        cfg.Language,
		psm:         cfg.PSM,
		fallbackPSM: cfg.FallbackPSM,
		timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		log:         logger.WithComponent("ocr-tesseract"),
	}
	if t.bin == "" {
		t.bin = "tesseract"
	}
	if t.lang == "" {
		t.lang = "eng"
	}
	if t.timeout <= 0 {
		t.timeout = 60 * time.Second
	}
	if !cfg.Enabled {
		t.log.Info().Msg("OCR disabled by configuration")
		return t
	}
	t.version, t.available = probe(ctx, runner, t.bin, "--version")
	if t.available {
		t.log.Info().Str("version", t.version).Msg("tesseract OCR available")
	} else {
		t.log.Warn().Msg("tesseract not found; OCR disabled (install tesseract-ocr to enable)")
	}
	return t
}

// Available reports the capability flag resolved at construction.
func (t *Tesseract) Available() bool {
	return t.available
}

// Version returns the first line of the probe output.
func (t *Tesseract) Version() string {
	return t.version
}

// Recognize writes img to a temporary PNG and runs tesseract on it. If the
// primary page segmentation mode yields nothing the fallback mode is tried.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if !t.available {
		return "", fmt.Errorf("ocr.Recognize: tesseract unavailable")
	}

	dir, err := os.MkdirTemp("", "legalyzer-ocr-*")
	if err != nil {
		return "", fmt.Errorf("ocr.Recognize: creating temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "page.png")
	if err := writePNG(path, img); err != nil {
		return "", fmt.Errorf("ocr.Recognize: %w", err)
	}

	text, err := t.run(ctx, path, t.psm)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" && t.fallbackPSM > 0 && t.fallbackPSM != t.psm {
		t.log.Debug().Int("psm", t.fallbackPSM).Msg("empty OCR result, retrying with fallback segmentation")
		text, err = t.run(ctx, path, t.fallbackPSM)
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(text), nil
}

func (t *Tesseract) run(ctx context.Context, path string, psm int) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	stdout, stderr, err := t.runner.Run(runCtx, t.bin, path, "stdout", "-l", t.lang, "--psm", strconv.Itoa(psm))
	if err != nil {
		return "", fmt.Errorf("ocr.Recognize: tesseract failed: %w (%s)", err, truncate(string(stderr), 512))
	}
	return string(stdout), nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding png: %w", err)
	}
	return f.Close()
}

// probe runs "<bin> <flag>" once and returns the first output line.
func probe(ctx context.Context, runner Runner, bin, flag string) (string, bool) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stdout, stderr, err := runner.Run(probeCtx, bin, flag)
	if err != nil {
		return "", false
	}
	// some tools print their version on stderr
	out := strings.TrimSpace(string(stdout))
	if out == "" {
		out = strings.TrimSpace(string(stderr))
	}
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return out, true
}
