package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsense/internal/config"
	"docsense/internal/doctype"
	"docsense/internal/domain"
	"docsense/internal/normalize"
	"docsense/internal/parser"
	"docsense/internal/port"
)

const defaultMaxAttempts = 3

// CreateExtractionInput is the DTO for uploading a document and queueing it
// for extraction.
type CreateExtractionInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ExtractionService defines the extraction pipeline contract.
type ExtractionService interface {
	Create(ctx context.Context, input *CreateExtractionInput) (*domain.Extraction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error)
	List(ctx context.Context, offset, limit int) ([]domain.Extraction, int, error)
	ListCompleted(ctx context.Context) ([]domain.Extraction, error)
	GetResult(ctx context.Context, id uuid.UUID) (*domain.ExtractionResult, error)
	Retry(ctx context.Context, id uuid.UUID) (*domain.Extraction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ProcessExtraction(ctx context.Context, ext *domain.Extraction, maxAttempts int)
}

type extractionService struct {
	repo    port.ExtractionRepository
	storage port.ObjectStorage
	ocr     port.OCRClient
	runner  *parser.ConsistencyRunner
	s3cfg   config.S3Config
}

// NewExtractionService creates a new ExtractionService implementation.
func NewExtractionService(
	repo port.ExtractionRepository,
	storage port.ObjectStorage,
	ocrClient port.OCRClient,
	runner *parser.ConsistencyRunner,
	s3cfg config.S3Config,
) ExtractionService {
	return &extractionService{
		repo:    repo,
		storage: storage,
		ocr:     ocrClient,
		runner:  runner,
		s3cfg:   s3cfg,
	}
}

func (s *extractionService) Create(ctx context.Context, input *CreateExtractionInput) (*domain.Extraction, error) {
	if err := s.validateFile(input); err != nil {
		return nil, err
	}

	id := uuid.New()
	key := fmt.Sprintf("uploads/%s/%s", id, filepath.Base(input.FileName))

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         key,
		Body:        input.Body,
		ContentType: input.ContentType,
		Size:        input.Size,
	}); err != nil {
		log.Printf("extractionService.Create: upload failed for %s: %v", input.FileName, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	ext := &domain.Extraction{
		ID:          id,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		S3Bucket:    s.s3cfg.Bucket,
		S3Key:       key,
		DocType:     domain.DocTypeUnknown,
		Status:      domain.ExtractionStatusQueued,
	}

	log.Printf("extractionService.Create: queueing extraction %s for %s", ext.ID, input.FileName)

	if err := s.repo.Create(ctx, ext); err != nil {
		return nil, fmt.Errorf("creating extraction: %w", err)
	}

	// Copy before launching goroutine so the caller's value is independent
	// of background work.
	result := *ext

	go s.processInBackground(ext.ID)

	return &result, nil
}

func (s *extractionService) validateFile(input *CreateExtractionInput) error {
	if _, ok := domain.AllowedContentTypes[input.ContentType]; !ok {
		// Some browsers send generic content types; fall back to the extension.
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(input.FileName)), ".")
		if _, ok := domain.AllowedExtensions[ext]; !ok {
			return domain.ErrUnsupportedFileType
		}
	}
	maxBytes := s.s3cfg.MaxFileSizeMB * 1024 * 1024
	if maxBytes > 0 && input.Size > maxBytes {
		return domain.ErrFileTooLarge
	}
	return nil
}

func (s *extractionService) processInBackground(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// The conditional claim loses to the queue worker if it got there first;
	// exactly one of the two paths processes the row.
	ext, err := s.repo.ClaimByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrExtractionNotFound) {
			log.Printf("extractionService.processInBackground: failed to claim extraction %s: %v", id, err)
		}
		return
	}

	s.ProcessExtraction(ctx, ext, defaultMaxAttempts)
}

// ProcessExtraction performs the full pipeline: S3 download, OCR, document
// type routing, self-consistent LLM extraction, normalization, and result
// persistence. It is called by both processInBackground and the queue
// worker; the extraction must already be in processing status with Attempts
// incremented.
func (s *extractionService) ProcessExtraction(ctx context.Context, ext *domain.Extraction, maxAttempts int) {
	fileBytes, err := s.storage.Download(ctx, ext.S3Bucket, ext.S3Key)
	if err != nil {
		s.failExtraction(ctx, ext, fmt.Sprintf("downloading file: %v", err))
		return
	}

	ocrResult, err := s.ocr.Recognize(ctx, fileBytes, ext.ContentType)
	if err != nil {
		s.failExtraction(ctx, ext, fmt.Sprintf("running ocr: %v", err))
		return
	}

	docType, scores := doctype.Classify(ocrResult.FullText, ocrResult.Tokens)
	log.Printf("extractionService.ProcessExtraction: extraction %s routed to %s", ext.ID, docType)

	raw, err := s.runner.ExtractAll(ctx, port.ExtractionInput{
		OCRText:        ocrResult.FullText,
		Tokens:         ocrResult.Tokens,
		ExpectedFields: doctype.ExpectedFields(docType),
		DocTypeHint:    docType,
	})
	if err != nil {
		s.handleExtractError(ctx, ext, err, maxAttempts)
		return
	}

	result := normalize.Normalize(raw, ocrResult.Tokens)

	resultJSON, err := json.Marshal(result)
	if err != nil {
		s.failExtraction(ctx, ext, fmt.Sprintf("encoding result: %v", err))
		return
	}
	scoresJSON, _ := json.Marshal(scores)

	now := time.Now().UTC()
	ext.DocType = result.DocType
	ext.RouteScores = scoresJSON
	ext.Result = resultJSON
	ext.OverallConfidence = result.OverallConfidence
	ext.Status = domain.ExtractionStatusCompleted
	ext.Error = ""
	ext.ParsedAt = &now

	if err := s.repo.UpdateResult(ctx, ext); err != nil {
		log.Printf("extractionService.ProcessExtraction: failed to save results for %s: %v", ext.ID, err)
		return
	}

	log.Printf("extractionService.ProcessExtraction: extraction %s completed (doc_type=%s confidence=%.2f)",
		ext.ID, ext.DocType, ext.OverallConfidence)
}

// handleExtractError requeues rate-limited extractions while attempts
// remain; anything else is a permanent failure.
func (s *extractionService) handleExtractError(ctx context.Context, ext *domain.Extraction, extractErr error, maxAttempts int) {
	var rlErr *parser.RateLimitError
	if errors.As(extractErr, &rlErr) && ext.Attempts < maxAttempts {
		ext.Status = domain.ExtractionStatusQueued
		ext.Error = fmt.Sprintf("rate limited by %s, queued for retry", rlErr.Provider)
		if err := s.repo.UpdateStatus(ctx, ext.ID, ext.Status, ext.Error); err != nil {
			log.Printf("extractionService.handleExtractError: failed to requeue extraction %s: %v", ext.ID, err)
			return
		}
		log.Printf("extractionService.handleExtractError: extraction %s requeued (attempt %d/%d)",
			ext.ID, ext.Attempts, maxAttempts)
		return
	}
	s.failExtraction(ctx, ext, fmt.Sprintf("extracting fields: %v", extractErr))
}

func (s *extractionService) failExtraction(ctx context.Context, ext *domain.Extraction, errMsg string) {
	log.Printf("extractionService.failExtraction: extraction %s failed: %s", ext.ID, errMsg)
	ext.Status = domain.ExtractionStatusFailed
	ext.Error = errMsg
	if err := s.repo.UpdateStatus(ctx, ext.ID, ext.Status, ext.Error); err != nil {
		log.Printf("extractionService.failExtraction: failed to update status for %s: %v", ext.ID, err)
	}
}

func (s *extractionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *extractionService) List(ctx context.Context, offset, limit int) ([]domain.Extraction, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *extractionService) ListCompleted(ctx context.Context) ([]domain.Extraction, error) {
	return s.repo.ListCompleted(ctx)
}

func (s *extractionService) GetResult(ctx context.Context, id uuid.UUID) (*domain.ExtractionResult, error) {
	ext, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ext.Status != domain.ExtractionStatusCompleted || len(ext.Result) == 0 {
		return nil, domain.ErrExtractionNotDone
	}
	var result domain.ExtractionResult
	if err := json.Unmarshal(ext.Result, &result); err != nil {
		return nil, fmt.Errorf("decoding stored result for %s: %w", id, err)
	}
	return &result, nil
}

func (s *extractionService) Retry(ctx context.Context, id uuid.UUID) (*domain.Extraction, error) {
	ext, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ext.Status = domain.ExtractionStatusQueued
	ext.Error = ""
	ext.Result = nil
	ext.RouteScores = nil
	ext.OverallConfidence = 0
	ext.ParsedAt = nil
	if err := s.repo.UpdateResult(ctx, ext); err != nil {
		return nil, fmt.Errorf("resetting extraction for retry: %w", err)
	}

	log.Printf("extractionService.Retry: retrying extraction %s", id)

	result := *ext

	go s.processInBackground(ext.ID)

	return &result, nil
}

func (s *extractionService) Delete(ctx context.Context, id uuid.UUID) error {
	ext, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, ext.S3Bucket, ext.S3Key); err != nil {
		// The row is the source of truth; a stale object is logged, not fatal.
		log.Printf("extractionService.Delete: failed to delete s3 object %s/%s: %v", ext.S3Bucket, ext.S3Key, err)
	}
	return s.repo.Delete(ctx, id)
}
