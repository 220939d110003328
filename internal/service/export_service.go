package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"legalyzer/internal/domain"
	"legalyzer/internal/logger"
	"legalyzer/internal/port"
	"legalyzer/internal/report"
)

// ExportJob is the message handed from the export service to the workers.
// Snapshot is captured at create time so a later clear does not affect rendering.
type ExportJob struct {
	TaskID   uuid.UUID
	Format   domain.ExportFormat
	Snapshot *domain.AnalysisResult
}

// ExportQueue is a bounded queue of export jobs.
type ExportQueue struct {
	jobs chan ExportJob
}

// NewExportQueue creates a queue holding up to size pending jobs.
func NewExportQueue(size int) *ExportQueue {
	if size <= 0 {
		size = 1
	}
	return &ExportQueue{jobs: make(chan ExportJob, size)}
}

// TryEnqueue adds job without blocking. It reports false when the queue is full.
func (q *ExportQueue) TryEnqueue(job ExportJob) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		return false
	}
}

// Len returns the number of pending jobs.
func (q *ExportQueue) Len() int {
	return len(q.jobs)
}

// ExportArtifact is a rendered export ready to be served.
type ExportArtifact struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExportService defines the export task contract.
type ExportService interface {
	Create(ctx context.Context, fileID uuid.UUID, format string) (*domain.ExportTask, error)
	Poll(ctx context.Context, taskID uuid.UUID) (*domain.ExportTask, error)
	Download(ctx context.Context, taskID uuid.UUID) (*ExportArtifact, error)
}

type exportService struct {
	store    port.ResultStore
	storage  port.ObjectStorage
	registry *report.Registry
	queue    *ExportQueue
	bucket   string
	log      zerolog.Logger
}

// NewExportService creates a new ExportService implementation.
func NewExportService(
	store port.ResultStore,
	storage port.ObjectStorage,
	registry *report.Registry,
	queue *ExportQueue,
	bucket string,
) ExportService {
	return &exportService{
		store:    store,
		storage:  storage,
		registry: registry,
		queue:    queue,
		bucket:   bucket,
		log:      logger.WithComponent("export_service"),
	}
}

// Create registers a queued task and hands it to the workers. Once the task
// exists, failures are recorded on it rather than returned.
func (s *exportService) Create(ctx context.Context, fileID uuid.UUID, format string) (*domain.ExportTask, error) {
	f, err := domain.ParseExportFormat(format)
	if err != nil {
		return nil, err
	}
	if _, err := s.registry.Renderer(f); err != nil {
		return nil, err
	}

	snapshot, err := s.store.GetAnalysis(ctx, fileID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &domain.ExportTask{
		ID:        uuid.New(),
		FileID:    fileID,
		Format:    f,
		Status:    domain.ExportStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("exportService.Create: %w", err)
	}

	if !s.queue.TryEnqueue(ExportJob{TaskID: task.ID, Format: f, Snapshot: snapshot}) {
		s.log.Warn().Str("task_id", task.ID.String()).Msg("exportService.Create: queue full")
		if err := s.store.FailTask(ctx, task.ID, domain.ErrQueueFull.Error()); err != nil {
			return nil, fmt.Errorf("exportService.Create: %w", err)
		}
		task.Status = domain.ExportStatusFailed
		task.Error = domain.ErrQueueFull.Error()
		return task, nil
	}

	s.log.Info().Str("task_id", task.ID.String()).Str("file_id", fileID.String()).
		Str("format", string(f)).Msg("export queued")
	return task, nil
}

func (s *exportService) Poll(ctx context.Context, taskID uuid.UUID) (*domain.ExportTask, error) {
	return s.store.GetTask(ctx, taskID)
}

// Download returns the stored artifact. Repeated calls serve the same blob.
func (s *exportService) Download(ctx context.Context, taskID uuid.UUID) (*ExportArtifact, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != domain.ExportStatusReady {
		return nil, domain.ErrNotReady
	}

	data, err := s.storage.Download(ctx, s.bucket, task.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("exportService.Download: %w", err)
	}

	original := "document"
	if result, err := s.store.GetAnalysis(ctx, task.FileID); err == nil {
		original = result.Filename
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("exportService.Download: %w", err)
	}

	return &ExportArtifact{
		Data:        data,
		ContentType: task.Format.ContentType(),
		Filename:    report.BuildFilename(original, task.Format),
	}, nil
}
