package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"legalyzer/internal/domain"
)

// ClearResult reports what a clear or retention sweep removed. BlobKeys are
// the storage keys that belonged to the removed records.
type ClearResult struct {
	Analyses int
	Tasks    int
	BlobKeys []string
}

// StoreStats is a point-in-time view of the store.
type StoreStats struct {
	Analyses      int
	Tasks         int
	TasksByStatus map[domain.ExportStatus]int
}

// ResultStore holds analysis results and export tasks for the process lifetime.
// Export task status only changes through StartTask, CompleteTask and FailTask.
type ResultStore interface {
	SaveAnalysis(ctx context.Context, result *domain.AnalysisResult) error
	GetAnalysis(ctx context.Context, fileID uuid.UUID) (*domain.AnalysisResult, error)
	FindByHash(ctx context.Context, hash string) (*domain.AnalysisResult, error)
	ListAnalyses(ctx context.Context) ([]domain.AnalysisResult, error)

	CreateTask(ctx context.Context, task *domain.ExportTask) error
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.ExportTask, error)
	StartTask(ctx context.Context, taskID uuid.UUID) error
	CompleteTask(ctx context.Context, taskID uuid.UUID, blobKey string) error
	FailTask(ctx context.Context, taskID uuid.UUID, reason string) error
	// FailStaleTasks fails every queued or processing task. It runs once at
	// startup, before any worker, and returns how many tasks it failed.
	FailStaleTasks(ctx context.Context, reason string) (int, error)

	Clear(ctx context.Context) (*ClearResult, error)
	DeleteAnalysesBefore(ctx context.Context, cutoff time.Time) (*ClearResult, error)
	Stats(ctx context.Context) (*StoreStats, error)
	Ping(ctx context.Context) error
}
