package service

import (
	"context"
	"log"
	"sync"
	"time"

	"docsense/internal/port"
)

// ExtractQueueConfig holds settings for the extraction queue worker.
type ExtractQueueConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	Concurrency  int
}

// ExtractQueueWorker polls for queued extractions and dispatches them
// through the pipeline. It picks up both rate-limit requeues and rows whose
// original background goroutine died with the process.
type ExtractQueueWorker struct {
	repo    port.ExtractionRepository
	service ExtractionService
	cfg     ExtractQueueConfig
	wg      sync.WaitGroup
}

// NewExtractQueueWorker creates a new ExtractQueueWorker.
func NewExtractQueueWorker(repo port.ExtractionRepository, svc ExtractionService, cfg ExtractQueueConfig) *ExtractQueueWorker {
	return &ExtractQueueWorker{
		repo:    repo,
		service: svc,
		cfg:     cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight extractions have finished.
func (w *ExtractQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("extractQueueWorker: started (poll=%s, concurrency=%d, maxAttempts=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			log.Printf("extractQueueWorker: shutting down, waiting for in-flight extractions...")
			w.wg.Wait()
			log.Printf("extractQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			exts, err := w.repo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll; the Done branch handles exit.
					continue
				}
				log.Printf("extractQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range exts {
				// The claim already flipped status and counted the attempt;
				// each goroutine gets its own copy.
				ext := exts[i]

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight extractions complete even during shutdown.
					extractCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					log.Printf("extractQueueWorker: dispatching extraction %s (attempt %d)", ext.ID, ext.Attempts)
					w.service.ProcessExtraction(extractCtx, &ext, w.cfg.MaxAttempts)
				}()
			}
		}
	}
}
