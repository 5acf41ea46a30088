package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docsense/internal/domain"
)

// MockExtractionRepo is a mock implementation of port.ExtractionRepository.
type MockExtractionRepo struct {
	mock.Mock
}

func (m *MockExtractionRepo) Create(ctx context.Context, ext *domain.Extraction) error {
	args := m.Called(ctx, ext)
	return args.Error(0)
}

func (m *MockExtractionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Extraction), args.Error(1)
}

func (m *MockExtractionRepo) List(ctx context.Context, offset, limit int) ([]domain.Extraction, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Extraction), args.Int(1), args.Error(2)
}

func (m *MockExtractionRepo) ListCompleted(ctx context.Context) ([]domain.Extraction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Extraction), args.Error(1)
}

func (m *MockExtractionRepo) UpdateResult(ctx context.Context, ext *domain.Extraction) error {
	args := m.Called(ctx, ext)
	return args.Error(0)
}

func (m *MockExtractionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ExtractionStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockExtractionRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.Extraction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Extraction), args.Error(1)
}

func (m *MockExtractionRepo) ClaimByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Extraction), args.Error(1)
}

func (m *MockExtractionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
