package port

import (
	"context"

	"github.com/google/uuid"

	"docsense/internal/domain"
)

// ExtractionRepository defines the contract for extraction job persistence.
type ExtractionRepository interface {
	Create(ctx context.Context, ext *domain.Extraction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error)
	List(ctx context.Context, offset, limit int) ([]domain.Extraction, int, error)
	ListCompleted(ctx context.Context) ([]domain.Extraction, error)
	UpdateResult(ctx context.Context, ext *domain.Extraction) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ExtractionStatus, errMsg string) error
	ClaimQueued(ctx context.Context, limit int) ([]domain.Extraction, error)
	ClaimByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
