package port

import (
	"context"

	"docsense/internal/domain"
)

// ExtractionInput carries the OCR evidence and field expectations for a
// single LLM extraction run.
type ExtractionInput struct {
	OCRText        string
	Tokens         []domain.Token
	ExpectedFields []string
	DocTypeHint    domain.DocType
	Temperature    float64
}

// ExtractionParser abstracts a single LLM extraction pass over a document.
// Implementations own their retry policy and return either a parsed run or a
// terminal error once retries are exhausted.
type ExtractionParser interface {
	Extract(ctx context.Context, input ExtractionInput) (*domain.ExtractionRun, error)
}
