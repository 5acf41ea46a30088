package domain

import "errors"

var (
	ErrExtractionNotFound  = errors.New("extraction not found")
	ErrExtractionNotDone   = errors.New("extraction has not completed yet")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrNoTokens            = errors.New("ocr produced no tokens")
	ErrAllRunsFailed       = errors.New("all extraction runs failed")
)
