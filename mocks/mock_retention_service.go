package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"legalyzer/internal/service"
)

// MockRetentionService is a mock implementation of service.RetentionService.
type MockRetentionService struct {
	mock.Mock
}

func (m *MockRetentionService) Status() service.RetentionStatus {
	args := m.Called()
	return args.Get(0).(service.RetentionStatus)
}

func (m *MockRetentionService) Cleanup(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
