package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"legalyzer/internal/domain"
	"legalyzer/internal/service"
)

// MockExportService is a mock implementation of service.ExportService.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Create(ctx context.Context, fileID uuid.UUID, format string) (*domain.ExportTask, error) {
	args := m.Called(ctx, fileID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportTask), args.Error(1)
}

func (m *MockExportService) Poll(ctx context.Context, taskID uuid.UUID) (*domain.ExportTask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportTask), args.Error(1)
}

func (m *MockExportService) Download(ctx context.Context, taskID uuid.UUID) (*service.ExportArtifact, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportArtifact), args.Error(1)
}
