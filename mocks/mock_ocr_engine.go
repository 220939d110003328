package mocks

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"
)

// MockOCREngine is a mock implementation of port.OCREngine.
type MockOCREngine struct {
	mock.Mock
}

func (m *MockOCREngine) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockOCREngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}

// MockPageRasterizer is a mock implementation of port.PageRasterizer.
type MockPageRasterizer struct {
	mock.Mock
}

func (m *MockPageRasterizer) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockPageRasterizer) RasterizePage(ctx context.Context, pdf []byte, page int) (image.Image, error) {
	args := m.Called(ctx, pdf, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(image.Image), args.Error(1)
}
