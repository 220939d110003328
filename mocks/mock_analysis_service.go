package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"legalyzer/internal/domain"
	"legalyzer/internal/service"
)

// MockAnalysisService is a mock implementation of service.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, input service.AnalyzeInput) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) Get(ctx context.Context, fileID uuid.UUID) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) List(ctx context.Context) ([]domain.AnalysisResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) GetOriginal(ctx context.Context, fileID uuid.UUID) (*service.OriginalDocument, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OriginalDocument), args.Error(1)
}

func (m *MockAnalysisService) ClearHistory(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockAnalysisService) Stats(ctx context.Context) (*service.ServiceStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ServiceStats), args.Error(1)
}

func (m *MockAnalysisService) SupportedFormats() service.SupportedFormats {
	args := m.Called()
	return args.Get(0).(service.SupportedFormats)
}

func (m *MockAnalysisService) OCREnabled() bool {
	args := m.Called()
	return args.Bool(0)
}
