package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"legalyzer/internal/domain"
	"legalyzer/internal/port"
)

const (
	defaultMaxInputChars   = 12000
	defaultModelConfidence = 0.8
	maxConfidence          = 0.98
)

// provenance weights applied to the model confidence.
var provenanceWeight = map[domain.Provenance]float64{
	domain.ProvenanceNative: 1.0,
	domain.ProvenanceOCR:    0.85,
	domain.ProvenanceNone:   0.5,
}

// ClientConfig tunes the analysis client.
type ClientConfig struct {
	MaxInputChars int
	Normalizer    Normalizer
}

// Client implements port.DocumentAnalyzer on top of an LLMProvider.
type Client struct {
	provider port.LLMProvider
	cfg      ClientConfig
	log      zerolog.Logger
}

// NewClient creates an analysis client.
func NewClient(provider port.LLMProvider, cfg ClientConfig, log zerolog.Logger) *Client {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = defaultMaxInputChars
	}
	if cfg.Normalizer.Bands == (domain.RiskBands{}) {
		cfg.Normalizer.Bands = domain.DefaultRiskBands
	}
	return &Client{provider: provider, cfg: cfg, log: log}
}

// Analyze sends the extracted text to the model and normalizes the reply.
func (c *Client) Analyze(ctx context.Context, text *domain.ExtractedText, meta port.DocumentMeta) (*domain.AnalysisResult, error) {
	start := time.Now()

	input, truncated := truncateInput(text.Text, c.cfg.MaxInputChars)
	notes := append([]string(nil), text.Notes...)
	if truncated {
		notes = append(notes, fmt.Sprintf("Document text truncated to %d characters for analysis", c.cfg.MaxInputChars))
	}

	out, err := c.provider.Complete(ctx, port.CompletionInput{
		Prompt:       BuildPrompt(input, truncated),
		SystemPrompt: SystemPrompt,
	})
	if err != nil {
		kind := classify(err)
		c.log.Warn().Err(err).Str("kind", string(kind)).Str("filename", meta.Filename).Msg("analysis request failed")
		return nil, &domain.AnalysisError{Kind: kind, Err: err}
	}

	norm, err := c.cfg.Normalizer.Normalize(out.Text)
	if err != nil {
		return nil, &domain.AnalysisError{Kind: domain.AnalysisMalformedResponse, Err: err}
	}

	return &domain.AnalysisResult{
		Filename:        meta.Filename,
		ContentType:     meta.ContentType,
		Summary:         norm.Summary,
		KeyClauses:      norm.Clauses,
		DocumentType:    norm.DocumentType,
		TotalPages:      text.PageCount,
		Confidence:      DeriveConfidence(norm.ModelConfidence, text.Provenance()),
		ProcessingTime:  roundTo(time.Since(start).Seconds(), 2),
		WordCount:       len(strings.Fields(text.Text)),
		AnalyzedAt:      time.Now().UTC(),
		OCRUsed:         text.OCRUsed,
		ExtractionNotes: notes,
		ModelUsed:       out.ModelUsed,
	}, nil
}

// DeriveConfidence caps the model confidence and scales it by how much of
// the text came from OCR or could not be read at all.
func DeriveConfidence(model *float64, pages []domain.Provenance) float64 {
	base := defaultModelConfidence
	if model != nil {
		base = math.Max(0, *model)
	}
	base = math.Min(base, maxConfidence)

	if len(pages) > 0 {
		var sum float64
		for _, p := range pages {
			w, ok := provenanceWeight[p]
			if !ok {
				w = 1
			}
			sum += w
		}
		base *= sum / float64(len(pages))
	}
	return roundTo(base, 2)
}

func truncateInput(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	return string([]rune(s)[:max]), true
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
