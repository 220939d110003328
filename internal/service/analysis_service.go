package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"legalyzer/internal/domain"
	"legalyzer/internal/formatgate"
	"legalyzer/internal/logger"
	"legalyzer/internal/metrics"
	"legalyzer/internal/port"
)

// AnalyzeInput is the DTO for a document upload.
type AnalyzeInput struct {
	Filename    string
	ContentType string
	Size        int64
	File        io.Reader
}

// OriginalDocument is an uploaded document as it was received.
type OriginalDocument struct {
	Data        []byte
	ContentType string
	Filename    string
}

// SupportedFormats describes the upload and export policy.
type SupportedFormats struct {
	Formats       []string              `json:"formats"`
	MaxFileSizeMB int64                 `json:"max_file_size_mb"`
	ExportFormats []domain.ExportFormat `json:"export_formats"`
}

// ServiceStats is a point-in-time view of the pipeline.
type ServiceStats struct {
	CachedAnalyses int                         `json:"cached_analyses"`
	ExportTasks    int                         `json:"export_tasks"`
	TasksByStatus  map[domain.ExportStatus]int `json:"tasks_by_status"`
	MaxConcurrent  int                         `json:"max_concurrent"`
	ActiveAnalyses int                         `json:"active_analyses"`
	OCREnabled     bool                        `json:"ocr_enabled"`
}

// AnalysisConfig holds pipeline settings.
type AnalysisConfig struct {
	Bucket        string
	MaxConcurrent int
	ExportFormats []domain.ExportFormat
	Metrics       *metrics.Metrics
}

// AnalysisService defines the upload and analysis contract.
type AnalysisService interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*domain.AnalysisResult, error)
	Get(ctx context.Context, fileID uuid.UUID) (*domain.AnalysisResult, error)
	List(ctx context.Context) ([]domain.AnalysisResult, error)
	GetOriginal(ctx context.Context, fileID uuid.UUID) (*OriginalDocument, error)
	ClearHistory(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*ServiceStats, error)
	SupportedFormats() SupportedFormats
	OCREnabled() bool
}

type analysisService struct {
	gate      *formatgate.Gate
	extractor port.TextExtractor
	analyzer  port.DocumentAnalyzer
	store     port.ResultStore
	storage   port.ObjectStorage
	ocr       port.OCREngine
	cfg       AnalysisConfig
	sem       *semaphore.Weighted
	active    atomic.Int64
	log       zerolog.Logger
}

// NewAnalysisService creates a new AnalysisService implementation.
func NewAnalysisService(
	gate *formatgate.Gate,
	extractor port.TextExtractor,
	analyzer port.DocumentAnalyzer,
	store port.ResultStore,
	storage port.ObjectStorage,
	ocr port.OCREngine,
	cfg AnalysisConfig,
) AnalysisService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	if len(cfg.ExportFormats) == 0 {
		cfg.ExportFormats = domain.ExportFormats
	}
	return &analysisService{
		gate:      gate,
		extractor: extractor,
		analyzer:  analyzer,
		store:     store,
		storage:   storage,
		ocr:       ocr,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		log:       logger.WithComponent("analysis_service"),
	}
}

func (s *analysisService) Analyze(ctx context.Context, input AnalyzeInput) (*domain.AnalysisResult, error) {
	start := time.Now()
	result, err := s.analyze(ctx, input, start)
	s.cfg.Metrics.ObserveAnalysis(analysisOutcome(result, err), time.Since(start))
	return result, err
}

// analysisOutcome buckets a pipeline result for the analyses_total metric.
func analysisOutcome(result *domain.AnalysisResult, err error) string {
	var vErr *domain.ValidationError
	switch {
	case err == nil && result.Cached:
		return "cached"
	case err == nil:
		return "success"
	case errors.As(err, &vErr):
		return "rejected"
	case errors.Is(err, domain.ErrOCRUnavailable):
		return "ocr_unavailable"
	case errors.Is(err, domain.ErrExtraction):
		return "extraction_failed"
	case errors.Is(err, domain.ErrAnalysis):
		return "analysis_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func (s *analysisService) analyze(ctx context.Context, input AnalyzeInput, start time.Time) (*domain.AnalysisResult, error) {

	fileType, err := s.gate.Validate(input.Filename, input.ContentType, input.Size)
	if err != nil {
		return nil, err
	}

	data, err := readLimited(input.File, s.gate.MaxFileSize())
	if err != nil {
		return nil, err
	}
	if err := s.gate.CheckContent(data, fileType); err != nil {
		return nil, err
	}

	filename := formatgate.SanitizeFilename(input.Filename)
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	cached, err := s.store.FindByHash(ctx, hash)
	switch {
	case err == nil:
		s.log.Info().Str("file_id", cached.FileID.String()).Str("filename", filename).Msg("returning cached analysis")
		cached.Cached = true
		return cached, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("analysisService.Analyze: hash lookup: %w", err)
	}

	fileID := uuid.New()
	contentType := domain.AllowedFileTypes[fileType]
	originalKey := fmt.Sprintf("originals/%s%s", fileID, strings.ToLower(filepath.Ext(filename)))

	s.log.Info().Str("file_id", fileID.String()).Str("filename", filename).
		Str("content_type", contentType).Int("bytes", len(data)).Msg("analyzing document")

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         originalKey,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	}); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("analysisService.Analyze: storing original: %w", ctx.Err())
		}
		s.log.Error().Err(err).Str("file_id", fileID.String()).Msg("analysisService.Analyze: storing original failed")
		return nil, domain.ErrUploadFailed
	}

	result, err := s.runPipeline(ctx, data, fileType, port.DocumentMeta{
		Filename:    filename,
		ContentType: contentType,
		FileType:    fileType,
	})
	if err != nil {
		s.discardOriginal(originalKey)
		return nil, err
	}

	result.FileID = fileID
	result.Filename = filename
	result.ContentType = contentType
	result.FileHash = hash
	result.OriginalKey = originalKey
	result.ProcessingTime = roundSeconds(time.Since(start))

	if err := s.store.SaveAnalysis(ctx, result); err != nil {
		s.discardOriginal(originalKey)
		return nil, fmt.Errorf("analysisService.Analyze: saving result: %w", err)
	}

	s.log.Info().Str("file_id", fileID.String()).Int("clauses", len(result.KeyClauses)).
		Float64("processing_time", result.ProcessingTime).Msg("analysis complete")
	return result, nil
}

// runPipeline holds an analysis slot for extraction and the model call.
// Callers beyond the limit wait here until a slot frees up.
func (s *analysisService) runPipeline(ctx context.Context, data []byte, fileType domain.FileType, meta port.DocumentMeta) (*domain.AnalysisResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("analysisService.Analyze: waiting for slot: %w", err)
	}
	s.active.Add(1)
	defer func() {
		s.active.Add(-1)
		s.sem.Release(1)
	}()

	text, err := s.extractor.Extract(ctx, data, fileType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text.Text) == "" {
		return nil, &domain.ExtractionError{Err: domain.ErrNoExtractableText}
	}

	return s.analyzer.Analyze(ctx, text, meta)
}

func (s *analysisService) discardOriginal(key string) {
	// The request context may already be canceled; cleanup still has to run.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, s.cfg.Bucket, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("analysisService: deleting original failed")
	}
}

func (s *analysisService) Get(ctx context.Context, fileID uuid.UUID) (*domain.AnalysisResult, error) {
	return s.store.GetAnalysis(ctx, fileID)
}

func (s *analysisService) List(ctx context.Context) ([]domain.AnalysisResult, error) {
	return s.store.ListAnalyses(ctx)
}

func (s *analysisService) GetOriginal(ctx context.Context, fileID uuid.UUID) (*OriginalDocument, error) {
	result, err := s.store.GetAnalysis(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if result.OriginalKey == "" {
		return nil, domain.ErrNotFound
	}
	data, err := s.storage.Download(ctx, s.cfg.Bucket, result.OriginalKey)
	if err != nil {
		return nil, err
	}
	return &OriginalDocument{
		Data:        data,
		ContentType: result.ContentType,
		Filename:    result.Filename,
	}, nil
}

func (s *analysisService) ClearHistory(ctx context.Context) (int, error) {
	cleared, err := s.store.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("analysisService.ClearHistory: %w", err)
	}
	deleteBlobs(ctx, s.storage, s.cfg.Bucket, cleared.BlobKeys, s.log)
	s.log.Info().Int("analyses", cleared.Analyses).Int("tasks", cleared.Tasks).Msg("history cleared")
	return cleared.Analyses, nil
}

func (s *analysisService) Stats(ctx context.Context) (*ServiceStats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("analysisService.Stats: %w", err)
	}
	return &ServiceStats{
		CachedAnalyses: st.Analyses,
		ExportTasks:    st.Tasks,
		TasksByStatus:  st.TasksByStatus,
		MaxConcurrent:  s.cfg.MaxConcurrent,
		ActiveAnalyses: int(s.active.Load()),
		OCREnabled:     s.OCREnabled(),
	}, nil
}

func (s *analysisService) SupportedFormats() SupportedFormats {
	return SupportedFormats{
		Formats:       s.gate.SupportedExtensions(),
		MaxFileSizeMB: s.gate.MaxFileSize() / (1024 * 1024),
		ExportFormats: s.cfg.ExportFormats,
	}
}

func (s *analysisService) OCREnabled() bool {
	return s.ocr != nil && s.ocr.Available()
}

// readLimited reads at most max bytes and reports too_large past that.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > max {
		return nil, domain.NewTooLarge("file exceeds %d bytes", max)
	}
	return data, nil
}

func deleteBlobs(ctx context.Context, storage port.ObjectStorage, bucket string, keys []string, log zerolog.Logger) {
	for _, key := range keys {
		if err := storage.Delete(ctx, bucket, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("deleting blob failed")
		}
	}
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(10*time.Millisecond).Milliseconds()) / 1000
}
