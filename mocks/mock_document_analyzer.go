package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"legalyzer/internal/domain"
	"legalyzer/internal/port"
)

// MockDocumentAnalyzer is a mock implementation of port.DocumentAnalyzer.
type MockDocumentAnalyzer struct {
	mock.Mock
}

func (m *MockDocumentAnalyzer) Analyze(ctx context.Context, text *domain.ExtractedText, meta port.DocumentMeta) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, text, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}
