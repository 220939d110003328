package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"legalyzer/internal/domain"
)

// MockReportRenderer is a mock implementation of port.ReportRenderer.
type MockReportRenderer struct {
	mock.Mock
}

func (m *MockReportRenderer) Format() domain.ExportFormat {
	args := m.Called()
	return args.Get(0).(domain.ExportFormat)
}

func (m *MockReportRenderer) Render(ctx context.Context, result *domain.AnalysisResult) ([]byte, error) {
	args := m.Called(ctx, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
