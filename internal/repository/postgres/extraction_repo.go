package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docsense/internal/domain"
	"docsense/internal/port"
)

type extractionRepo struct {
	db *sqlx.DB
}

// NewExtractionRepo creates a new PostgreSQL-backed ExtractionRepository.
func NewExtractionRepo(db *sqlx.DB) port.ExtractionRepository {
	return &extractionRepo{db: db}
}

func (r *extractionRepo) Create(ctx context.Context, ext *domain.Extraction) error {
	now := time.Now().UTC()
	ext.CreatedAt = now
	ext.UpdatedAt = now

	query := `INSERT INTO extractions (
		id, file_name, content_type, s3_bucket, s3_key,
		doc_type, route_scores, result, overall_confidence,
		status, error, attempts, created_at, updated_at, parsed_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12, $13, $14, $15
	)`

	_, err := r.db.ExecContext(ctx, query,
		ext.ID, ext.FileName, ext.ContentType, ext.S3Bucket, ext.S3Key,
		ext.DocType, ext.RouteScores, ext.Result, ext.OverallConfidence,
		ext.Status, ext.Error, ext.Attempts, ext.CreatedAt, ext.UpdatedAt, ext.ParsedAt)
	if err != nil {
		return fmt.Errorf("extractionRepo.Create: %w", err)
	}
	return nil
}

func (r *extractionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error) {
	var ext domain.Extraction
	err := r.db.GetContext(ctx, &ext,
		"SELECT * FROM extractions WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExtractionNotFound
		}
		return nil, fmt.Errorf("extractionRepo.GetByID: %w", err)
	}
	return &ext, nil
}

func (r *extractionRepo) List(ctx context.Context, offset, limit int) ([]domain.Extraction, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM extractions")
	if err != nil {
		return nil, 0, fmt.Errorf("extractionRepo.List count: %w", err)
	}

	var exts []domain.Extraction
	err = r.db.SelectContext(ctx, &exts,
		`SELECT * FROM extractions ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("extractionRepo.List: %w", err)
	}
	return exts, total, nil
}

func (r *extractionRepo) ListCompleted(ctx context.Context) ([]domain.Extraction, error) {
	var exts []domain.Extraction
	err := r.db.SelectContext(ctx, &exts,
		`SELECT * FROM extractions WHERE status = $1 ORDER BY created_at DESC`,
		domain.ExtractionStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("extractionRepo.ListCompleted: %w", err)
	}
	return exts, nil
}

func (r *extractionRepo) UpdateResult(ctx context.Context, ext *domain.Extraction) error {
	ext.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE extractions SET
			doc_type = $1, route_scores = $2, result = $3,
			overall_confidence = $4, status = $5, error = $6,
			attempts = $7, updated_at = $8, parsed_at = $9
		 WHERE id = $10`,
		ext.DocType, ext.RouteScores, ext.Result,
		ext.OverallConfidence, ext.Status, ext.Error,
		ext.Attempts, ext.UpdatedAt, ext.ParsedAt,
		ext.ID)
	if err != nil {
		return fmt.Errorf("extractionRepo.UpdateResult: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrExtractionNotFound
	}
	return nil
}

func (r *extractionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ExtractionStatus, errMsg string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE extractions SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		status, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("extractionRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrExtractionNotFound
	}
	return nil
}

// ClaimQueued atomically flips up to limit queued extractions to processing,
// counting the attempt. SKIP LOCKED keeps concurrent workers from claiming
// the same rows.
func (r *extractionRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.Extraction, error) {
	var exts []domain.Extraction
	err := r.db.SelectContext(ctx, &exts,
		`UPDATE extractions SET status = $1, attempts = attempts + 1, updated_at = $2
		 WHERE id IN (
			SELECT id FROM extractions
			WHERE status = $3
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		domain.ExtractionStatusProcessing, time.Now().UTC(), domain.ExtractionStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("extractionRepo.ClaimQueued: %w", err)
	}
	return exts, nil
}

// ClaimByID atomically claims a single extraction if it is still queued.
// The conditional UPDATE is what keeps an upload's background goroutine and
// the queue worker from both processing the same row; the loser sees no
// matching row and gets ErrExtractionNotFound.
func (r *extractionRepo) ClaimByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error) {
	var ext domain.Extraction
	err := r.db.GetContext(ctx, &ext,
		`UPDATE extractions SET status = $1, attempts = attempts + 1, updated_at = $2
		 WHERE id = $3 AND status = $4
		 RETURNING *`,
		domain.ExtractionStatusProcessing, time.Now().UTC(), id, domain.ExtractionStatusQueued)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExtractionNotFound
		}
		return nil, fmt.Errorf("extractionRepo.ClaimByID: %w", err)
	}
	return &ext, nil
}

func (r *extractionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM extractions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("extractionRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrExtractionNotFound
	}
	return nil
}
