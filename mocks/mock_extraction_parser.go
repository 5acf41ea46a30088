package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docsense/internal/domain"
	"docsense/internal/port"
)

// MockExtractionParser is a mock implementation of port.ExtractionParser.
type MockExtractionParser struct {
	mock.Mock
}

func (m *MockExtractionParser) Extract(ctx context.Context, input port.ExtractionInput) (*domain.ExtractionRun, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionRun), args.Error(1)
}
