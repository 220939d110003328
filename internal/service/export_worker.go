package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"legalyzer/internal/domain"
	"legalyzer/internal/logger"
	"legalyzer/internal/metrics"
	"legalyzer/internal/port"
	"legalyzer/internal/report"
)

const (
	renderTimedOut       = "render timed out"
	interruptedByRestart = "interrupted by restart"
)

// ExportWorkerConfig holds settings for the export worker pool.
type ExportWorkerConfig struct {
	Bucket        string
	Workers       int
	RenderTimeout time.Duration
	Metrics       *metrics.Metrics
}

// ExportWorker drains the export queue and renders artifacts.
type ExportWorker struct {
	queue    *ExportQueue
	store    port.ResultStore
	storage  port.ObjectStorage
	registry *report.Registry
	cfg      ExportWorkerConfig
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// NewExportWorker creates a new ExportWorker.
func NewExportWorker(
	queue *ExportQueue,
	store port.ResultStore,
	storage port.ObjectStorage,
	registry *report.Registry,
	cfg ExportWorkerConfig,
) *ExportWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 2 * time.Minute
	}
	return &ExportWorker{
		queue:    queue,
		store:    store,
		storage:  storage,
		registry: registry,
		cfg:      cfg,
		log:      logger.WithComponent("export_worker"),
	}
}

// RecoverInterrupted fails tasks left queued or processing by a previous
// process. The queue is in memory, so nothing would ever pick them up again.
// Call it once before Start.
func (w *ExportWorker) RecoverInterrupted(ctx context.Context) error {
	n, err := w.store.FailStaleTasks(ctx, interruptedByRestart)
	if err != nil {
		return fmt.Errorf("recovering interrupted exports: %w", err)
	}
	if n > 0 {
		w.log.Warn().Int("tasks", n).Msg("failed exports interrupted by restart")
	}
	return nil
}

// Start runs the worker pool until ctx is canceled. It blocks until all
// in-flight exports have finished. Jobs still queued at shutdown are left alone.
func (w *ExportWorker) Start(ctx context.Context) {
	w.log.Info().Int("workers", w.cfg.Workers).Dur("render_timeout", w.cfg.RenderTimeout).Msg("export worker started")

	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-w.queue.jobs:
					// In-flight exports finish even during shutdown.
					w.process(context.Background(), job)
				}
			}
		}()
	}

	<-ctx.Done()
	w.log.Info().Msg("export worker shutting down, waiting for in-flight exports...")
	w.wg.Wait()
	w.log.Info().Msg("export worker shutdown complete")
}

func (w *ExportWorker) process(ctx context.Context, job ExportJob) {
	log := w.log.With().Str("task_id", job.TaskID.String()).Str("format", string(job.Format)).Logger()

	if err := w.store.StartTask(ctx, job.TaskID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info().Msg("task removed before processing, skipping")
			return
		}
		log.Error().Err(err).Msg("exportWorker.process: start failed")
		return
	}

	renderer, err := w.registry.Renderer(job.Format)
	if err != nil {
		w.fail(ctx, job, err.Error(), log)
		return
	}

	data, err := w.render(ctx, renderer, job.Snapshot)
	if err != nil {
		log.Warn().Err(err).Msg("render failed")
		w.fail(ctx, job, err.Error(), log)
		return
	}

	key := fmt.Sprintf("exports/%s.%s", job.TaskID, job.Format.Extension())
	if _, err := w.storage.Upload(ctx, port.UploadInput{
		Bucket:      w.cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: job.Format.ContentType(),
		Size:        int64(len(data)),
	}); err != nil {
		log.Error().Err(err).Msg("exportWorker.process: upload failed")
		w.fail(ctx, job, domain.ErrUploadFailed.Error(), log)
		return
	}

	if err := w.store.CompleteTask(ctx, job.TaskID, key); err != nil {
		// The task is gone (history cleared) or already terminal; the blob is orphaned.
		if delErr := w.storage.Delete(ctx, w.cfg.Bucket, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("deleting orphaned export failed")
		}
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Msg("exportWorker.process: complete failed")
		}
		return
	}

	w.cfg.Metrics.ObserveExport(string(job.Format), string(domain.ExportStatusReady))
	log.Info().Int("bytes", len(data)).Msg("export ready")
}

type renderOutcome struct {
	data []byte
	err  error
}

// render bounds a renderer call by the configured timeout. A renderer that
// ignores its context keeps running in the background but the task is failed.
func (w *ExportWorker) render(ctx context.Context, renderer port.ReportRenderer, snapshot *domain.AnalysisResult) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.RenderTimeout)
	defer cancel()

	done := make(chan renderOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- renderOutcome{err: fmt.Errorf("renderer panicked: %v", r)}
			}
		}()
		data, err := renderer.Render(ctx, snapshot)
		done <- renderOutcome{data: data, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) {
			return nil, errors.New(renderTimedOut)
		}
		return out.data, out.err
	case <-ctx.Done():
		return nil, errors.New(renderTimedOut)
	}
}

func (w *ExportWorker) fail(ctx context.Context, job ExportJob, reason string, log zerolog.Logger) {
	if err := w.store.FailTask(ctx, job.TaskID, reason); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Msg("exportWorker.fail: recording failure failed")
		}
		return
	}
	w.cfg.Metrics.ObserveExport(string(job.Format), string(domain.ExportStatusFailed))
}
