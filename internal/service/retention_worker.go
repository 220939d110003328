package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"legalyzer/internal/domain"
	"legalyzer/internal/logger"
	"legalyzer/internal/port"
)

// RetentionConfig holds settings for the history sweeper.
type RetentionConfig struct {
	Bucket   string
	TTL      time.Duration
	Interval time.Duration
}

// RetentionService reports on and triggers history retention.
type RetentionService interface {
	Status() RetentionStatus
	Cleanup(ctx context.Context) (int, error)
}

// RetentionStatus describes the retention policy and its most recent pass.
type RetentionStatus struct {
	Enabled      bool       `json:"enabled"`
	TTLSeconds   float64    `json:"ttl_seconds"`
	IntervalSecs float64    `json:"interval_seconds"`
	Runs         int        `json:"runs"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	LastRemoved  int        `json:"last_removed"`
	TotalRemoved int        `json:"total_removed"`
	LastError    string     `json:"last_error,omitempty"`
}

// RetentionWorker periodically removes analyses older than the TTL together
// with their export tasks and blobs.
type RetentionWorker struct {
	store   port.ResultStore
	storage port.ObjectStorage
	cfg     RetentionConfig
	now     func() time.Time
	log     zerolog.Logger

	mu     sync.Mutex
	status RetentionStatus
}

// NewRetentionWorker creates a new RetentionWorker.
func NewRetentionWorker(store port.ResultStore, storage port.ObjectStorage, cfg RetentionConfig) *RetentionWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &RetentionWorker{
		store:   store,
		storage: storage,
		cfg:     cfg,
		now:     time.Now,
		log:     logger.WithComponent("retention_worker"),
		status: RetentionStatus{
			Enabled:      cfg.TTL > 0,
			TTLSeconds:   cfg.TTL.Seconds(),
			IntervalSecs: cfg.Interval.Seconds(),
		},
	}
}

var _ RetentionService = (*RetentionWorker)(nil)

// Start sweeps on every tick until ctx is canceled. A zero TTL disables it.
func (w *RetentionWorker) Start(ctx context.Context) {
	if w.cfg.TTL <= 0 {
		w.log.Info().Msg("retention disabled")
		return
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.log.Info().Dur("ttl", w.cfg.TTL).Dur("interval", w.cfg.Interval).Msg("retention worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("retention worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("retentionWorker.Sweep failed")
			}
		}
	}
}

// Status returns a snapshot of the policy and the last pass.
func (w *RetentionWorker) Status() RetentionStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.status
	if st.LastRunAt != nil {
		at := *st.LastRunAt
		st.LastRunAt = &at
	}
	return st
}

// Cleanup runs a pass immediately. With retention disabled there is no cutoff
// to apply, so it refuses rather than deleting everything.
func (w *RetentionWorker) Cleanup(ctx context.Context) (int, error) {
	if w.cfg.TTL <= 0 {
		return 0, domain.ErrRetentionDisabled
	}
	return w.Sweep(ctx)
}

// Sweep runs one retention pass and returns the number of analyses removed.
func (w *RetentionWorker) Sweep(ctx context.Context) (int, error) {
	now := w.now()
	cutoff := now.Add(-w.cfg.TTL)
	removed, err := w.store.DeleteAnalysesBefore(ctx, cutoff)
	w.record(now, removed, err)
	if err != nil {
		return 0, err
	}
	deleteBlobs(ctx, w.storage, w.cfg.Bucket, removed.BlobKeys, w.log)
	if removed.Analyses > 0 {
		w.log.Info().Int("analyses", removed.Analyses).Int("tasks", removed.Tasks).
			Time("cutoff", cutoff).Msg("expired history removed")
	}
	return removed.Analyses, nil
}

func (w *RetentionWorker) record(at time.Time, removed *port.ClearResult, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	at = at.UTC()
	w.status.Runs++
	w.status.LastRunAt = &at
	if err != nil {
		w.status.LastError = err.Error()
		w.status.LastRemoved = 0
		return
	}
	w.status.LastError = ""
	w.status.LastRemoved = removed.Analyses
	w.status.TotalRemoved += removed.Analyses
}
