package port

import (
	"context"

	"docsense/internal/domain"
)

// OCRResult is the output of the OCR collaborator for one document.
type OCRResult struct {
	Tokens   []domain.Token
	FullText string
	Pages    int
}

// OCRClient abstracts the external OCR engine. It returns the ordered token
// collection for a document, already confidence-normalized to [0,1].
type OCRClient interface {
	Recognize(ctx context.Context, fileBytes []byte, contentType string) (*OCRResult, error)
}
