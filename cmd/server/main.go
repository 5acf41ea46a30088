package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docsense/internal/config"
	"docsense/internal/handler"
	"docsense/internal/ocr"
	"docsense/internal/parser"
	"docsense/internal/parser/gemini"
	"docsense/internal/parser/openai"
	"docsense/internal/port"
	"docsense/internal/repository/postgres"
	"docsense/internal/router"
	"docsense/internal/service"
	s3storage "docsense/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func registerProviders() {
	parser.RegisterProvider("openai", func(cfg *config.ParserProviderConfig) (port.ExtractionParser, error) {
		return openai.NewParser(cfg), nil
	})
	parser.RegisterProvider("gemini", func(cfg *config.ParserProviderConfig) (port.ExtractionParser, error) {
		return gemini.NewParser(cfg), nil
	})
}

// buildParser assembles the provider chain: primary, plus an optional
// secondary behind rate-limit fallback.
func buildParser(cfg *config.ParserConfig) (port.ExtractionParser, error) {
	primary, err := parser.NewParser(&cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("creating primary parser: %w", err)
	}

	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}

	secondary, err := parser.NewParser(secondaryCfg)
	if err != nil {
		return nil, fmt.Errorf("creating secondary parser: %w", err)
	}

	return parser.NewFallbackParser(
		[]port.ExtractionParser{primary, secondary},
		[]string{cfg.Primary.Provider, secondaryCfg.Provider},
	), nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	extractionRepo := postgres.NewExtractionRepo(db)

	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	ocrClient := ocr.NewExtractor(cfg.OCR, ocr.NewExecRunner())

	registerProviders()
	extractionParser, err := buildParser(&cfg.Parser)
	if err != nil {
		return err
	}
	runner := parser.NewConsistencyRunner(extractionParser, cfg.Parser.ConsistencyRuns)

	extractionSvc := service.NewExtractionService(extractionRepo, s3Client, ocrClient, runner, cfg.S3)

	extractionH := handler.NewExtractionHandler(extractionSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(extractionH, healthH, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := service.NewExtractQueueWorker(extractionRepo, extractionSvc, service.ExtractQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(workerCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		stopWorker()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	stopWorker()
	<-workerDone

	return nil
}
