package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"

	_ "legalyzer/docs"
	"legalyzer/internal/analysis"
	"legalyzer/internal/analysis/claude"
	"legalyzer/internal/analysis/gemini"
	"legalyzer/internal/analysis/openai"
	"legalyzer/internal/config"
	"legalyzer/internal/domain"
	"legalyzer/internal/extract"
	"legalyzer/internal/formatgate"
	"legalyzer/internal/handler"
	"legalyzer/internal/logger"
	"legalyzer/internal/metrics"
	"legalyzer/internal/ocr"
	"legalyzer/internal/port"
	"legalyzer/internal/report"
	"legalyzer/internal/router"
	"legalyzer/internal/service"
	memstorage "legalyzer/internal/storage/memory"
	s3storage "legalyzer/internal/storage/s3"
	memstore "legalyzer/internal/store/memory"
	"legalyzer/internal/store/postgres"
)

// @title Legalyzer API
// @version 1.0
// @description Legal document analysis with asynchronous report export.
// @BasePath /
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Setup(logger.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Register analysis providers
	analysis.RegisterProvider("openai", func(pc *config.ProviderConfig) (port.LLMProvider, error) {
		return openai.NewProvider(pc), nil
	})
	analysis.RegisterProvider("claude", func(pc *config.ProviderConfig) (port.LLMProvider, error) {
		return claude.NewProvider(pc), nil
	})
	analysis.RegisterProvider("gemini", func(pc *config.ProviderConfig) (port.LLMProvider, error) {
		return gemini.NewProvider(pc)
	})

	chain, err := analysis.NewProviderChain(&cfg.Analysis)
	if err != nil {
		return fmt.Errorf("failed to initialize analysis providers: %w", err)
	}
	bands := domain.RiskBands{High: cfg.Analysis.HighRiskThreshold, Medium: cfg.Analysis.MediumRiskThreshold}
	analyzer := analysis.NewClient(chain, analysis.ClientConfig{
		MaxInputChars: cfg.Analysis.MaxInputChars,
		Normalizer: analysis.Normalizer{
			Bands:          bands,
			MaxClauses:     cfg.Analysis.MaxClauses,
			MaxClauseChars: cfg.Analysis.MaxClauseChars,
		},
	}, logger.WithComponent("analysis"))

	// OCR engine and page rasterizer; both probe their binaries once at startup
	runner := ocr.ExecRunner{Log: logger.WithComponent("exec")}
	tesseract := ocr.NewTesseract(ctx, &cfg.OCR, runner)
	rasterizer := ocr.NewPdftoppm(ctx, &cfg.OCR, runner)
	log.Info().
		Bool("tesseract", tesseract.Available()).
		Bool("pdftoppm", rasterizer.Available()).
		Msg("ocr capabilities")

	extractor := extract.New(tesseract, rasterizer, extract.Config{
		MinNativeChars: cfg.OCR.MinNativeChars,
		OCRWorkers:     cfg.OCR.Workers,
	})
	gate := formatgate.New(formatgate.Config{
		MaxFileSize:       cfg.Upload.MaxFileSizeBytes(),
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		MaxPDFPages:       cfg.Upload.MaxPDFPages,
		MaxImageDimension: cfg.Upload.MaxImageDimension,
	})

	// Initialize result store
	var store port.ResultStore
	switch cfg.Store.Backend {
	case "postgres":
		if cfg.Store.AutoMigrate {
			if err := postgres.Migrate(cfg.DB.DSN()); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		store = postgres.NewResultStore(db)
	case "memory", "":
		store = memstore.New()
	default:
		return fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}

	// Initialize storage
	var storage port.ObjectStorage
	switch cfg.Storage.Backend {
	case "s3":
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	case "memory", "":
		storage = memstorage.New()
	default:
		return fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	// Initialize services
	registry := report.DefaultRegistry(bands)
	queue := service.NewExportQueue(cfg.Export.QueueSize)
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	analysisSvc := service.NewAnalysisService(gate, extractor, analyzer, store, storage, tesseract, service.AnalysisConfig{
		Bucket:        cfg.S3.Bucket,
		MaxConcurrent: cfg.Analysis.MaxConcurrent,
		ExportFormats: registry.Formats(),
		Metrics:       m,
	})
	exportSvc := service.NewExportService(store, storage, registry, queue, cfg.S3.Bucket)

	exportWorker := service.NewExportWorker(queue, store, storage, registry, service.ExportWorkerConfig{
		Bucket:        cfg.S3.Bucket,
		Workers:       cfg.Export.Workers,
		RenderTimeout: cfg.Export.RenderTimeout,
		Metrics:       m,
	})
	retentionWorker := service.NewRetentionWorker(store, storage, service.RetentionConfig{
		Bucket:   cfg.S3.Bucket,
		TTL:      cfg.Retention.AnalysisTTL,
		Interval: cfg.Retention.SweepInterval,
	})

	if err := exportWorker.RecoverInterrupted(ctx); err != nil {
		return err
	}

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		exportWorker.Start(ctx)
	}()
	go func() {
		defer workers.Done()
		retentionWorker.Start(ctx)
	}()

	// Initialize handlers
	analysisH := handler.NewAnalysisHandler(analysisSvc)
	exportH := handler.NewExportHandler(exportSvc)
	systemH := handler.NewSystemHandler(analysisSvc, retentionWorker)
	healthH := handler.NewHealthHandler(store, analysisSvc)

	// Setup router
	r := router.Setup(router.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		MaxUploadBytes:   cfg.Upload.MaxFileSizeBytes(),
		AnalyzePerMinute: cfg.RateLimit.AnalyzePerMinute,
		AnalyzeBurst:     cfg.RateLimit.Burst,
		Metrics:          m,
	}, analysisH, exportH, systemH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Str("env", cfg.Server.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		workers.Wait()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	workers.Wait()
	log.Info().Msg("server stopped")
	return nil
}
