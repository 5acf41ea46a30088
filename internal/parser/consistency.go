// Package parser provides the LLM extraction collaborators: providers,
// fallback chaining, and the self-consistency runner.
package parser

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"docsense/internal/domain"
	"docsense/internal/port"
)

// Self-consistency temperature policy: a single run is deterministic, while
// multiple runs need sampling variance for agreement to be meaningful.
const (
	singleRunTemperature = 0.0
	multiRunTemperature  = 0.3
)

// ConsistencyRunner issues N independent extraction runs over the same input
// and aggregates them for agreement scoring. Runs are order-insensitive, so
// they are dispatched concurrently.
type ConsistencyRunner struct {
	parser port.ExtractionParser
	runs   int
}

// NewConsistencyRunner creates a runner performing the given number of runs
// (minimum 1).
func NewConsistencyRunner(p port.ExtractionParser, runs int) *ConsistencyRunner {
	if runs < 1 {
		runs = 1
	}
	return &ConsistencyRunner{parser: p, runs: runs}
}

// ExtractAll performs every run and assembles the raw extraction. A failed
// run degrades to an empty unknown-type run; it still counts in the
// agreement denominator. Only when every run fails does the extraction fail
// as a whole.
func (r *ConsistencyRunner) ExtractAll(ctx context.Context, input port.ExtractionInput) (*domain.RawExtraction, error) {
	input.Temperature = multiRunTemperature
	if r.runs == 1 {
		input.Temperature = singleRunTemperature
	}

	runs := make([]*domain.ExtractionRun, r.runs)
	succeeded := make([]bool, r.runs)
	var (
		mu      sync.Mutex
		lastErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.runs; i++ {
		i := i
		g.Go(func() error {
			run, err := r.parser.Extract(gctx, input)
			if err != nil {
				log.Printf("parser.ConsistencyRunner: run %d/%d failed: %v", i+1, r.runs, err)
				mu.Lock()
				lastErr = err
				mu.Unlock()
				runs[i] = &domain.ExtractionRun{DocType: domain.DocTypeUnknown, Fields: []domain.ExtractedField{}}
				return nil
			}
			runs[i] = run
			succeeded[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	primary := firstSuccessful(runs, succeeded)
	if primary == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAllRunsFailed, lastErr)
	}

	raw := &domain.RawExtraction{
		DocType:   primary.DocType,
		Fields:    primary.Fields,
		LineItems: primary.LineItems,
		Runs:      make([]domain.ExtractionRun, 0, len(runs)),
	}
	// Backfill the router's hint when the model omitted a type.
	if raw.DocType == "" || raw.DocType == domain.DocTypeUnknown {
		if input.DocTypeHint != "" {
			raw.DocType = input.DocTypeHint
		}
	}
	for _, run := range runs {
		raw.Runs = append(raw.Runs, *run)
	}
	return raw, nil
}

// firstSuccessful returns the first run whose provider call completed,
// preferring one that produced fields.
func firstSuccessful(runs []*domain.ExtractionRun, succeeded []bool) *domain.ExtractionRun {
	var fallback *domain.ExtractionRun
	for i, run := range runs {
		if !succeeded[i] {
			continue
		}
		if len(run.Fields) > 0 {
			return run
		}
		if fallback == nil {
			fallback = run
		}
	}
	return fallback
}
