package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docsense/internal/port"
)

// MockOCRClient is a mock implementation of port.OCRClient.
type MockOCRClient struct {
	mock.Mock
}

func (m *MockOCRClient) Recognize(ctx context.Context, fileBytes []byte, contentType string) (*port.OCRResult, error) {
	args := m.Called(ctx, fileBytes, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.OCRResult), args.Error(1)
}
