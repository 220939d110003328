package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"legalyzer/internal/domain"
	"legalyzer/internal/port"
)

// MockResultStore is a mock implementation of port.ResultStore.
type MockResultStore struct {
	mock.Mock
}

func (m *MockResultStore) SaveAnalysis(ctx context.Context, result *domain.AnalysisResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultStore) GetAnalysis(ctx context.Context, fileID uuid.UUID) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *MockResultStore) FindByHash(ctx context.Context, hash string) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *MockResultStore) ListAnalyses(ctx context.Context) ([]domain.AnalysisResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisResult), args.Error(1)
}

func (m *MockResultStore) CreateTask(ctx context.Context, task *domain.ExportTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockResultStore) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.ExportTask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportTask), args.Error(1)
}

func (m *MockResultStore) StartTask(ctx context.Context, taskID uuid.UUID) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockResultStore) CompleteTask(ctx context.Context, taskID uuid.UUID, blobKey string) error {
	args := m.Called(ctx, taskID, blobKey)
	return args.Error(0)
}

func (m *MockResultStore) FailTask(ctx context.Context, taskID uuid.UUID, reason string) error {
	args := m.Called(ctx, taskID, reason)
	return args.Error(0)
}

func (m *MockResultStore) FailStaleTasks(ctx context.Context, reason string) (int, error) {
	args := m.Called(ctx, reason)
	return args.Int(0), args.Error(1)
}

func (m *MockResultStore) Clear(ctx context.Context) (*port.ClearResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ClearResult), args.Error(1)
}

func (m *MockResultStore) DeleteAnalysesBefore(ctx context.Context, cutoff time.Time) (*port.ClearResult, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ClearResult), args.Error(1)
}

func (m *MockResultStore) Stats(ctx context.Context) (*port.StoreStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.StoreStats), args.Error(1)
}

func (m *MockResultStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
