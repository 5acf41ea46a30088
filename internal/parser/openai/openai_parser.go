// Package openai implements the extraction parser against any
// OpenAI-compatible chat-completions endpoint (OpenAI, OpenRouter, local
// gateways).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"docsense/internal/config"
	"docsense/internal/domain"
	"docsense/internal/parser"
	"docsense/internal/port"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Parser implements port.ExtractionParser using the Chat Completions API.
type Parser struct {
	apiKey     string
	model      string
	endpoint   string
	maxRetries int
	client     *http.Client
}

// NewParser creates an OpenAI-compatible extraction parser from a provider config.
func NewParser(cfg *config.ParserProviderConfig) *Parser {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return newParser(cfg, strings.TrimRight(base, "/")+"/chat/completions")
}

// NewParserWithEndpoint creates a parser pointing at a custom API endpoint (for testing).
func NewParserWithEndpoint(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	return newParser(cfg, endpoint)
}

func newParser(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Parser{
		apiKey:     cfg.APIKey,
		model:      model,
		endpoint:   endpoint,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: timeout},
	}
}

// Extract performs one extraction run. Transient failures are retried up to
// the configured count with randomized backoff; a 429 surfaces as a
// RateLimitError without further retries.
func (p *Parser) Extract(ctx context.Context, input port.ExtractionInput) (*domain.ExtractionRun, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		run, err := p.extractOnce(ctx, input)
		if err == nil {
			return run, nil
		}
		lastErr = err

		var rlErr *parser.RateLimitError
		if ctx.Err() != nil || errors.As(err, &rlErr) {
			return nil, err
		}

		log.Printf("parser.openai: attempt %d/%d failed: %v", attempt, p.maxRetries, err)
		if attempt < p.maxRetries {
			select {
			case <-time.After(backoff()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("openai extraction failed after %d attempts: %w", p.maxRetries, lastErr)
}

func (p *Parser) extractOnce(ctx context.Context, input port.ExtractionInput) (*domain.ExtractionRun, error) {
	reqBody := map[string]interface{}{
		"model":       p.model,
		"temperature": input.Temperature,
		"max_tokens":  4096,
		"messages": []map[string]interface{}{
			{"role": "system", "content": parser.SystemPrompt},
			{"role": "user", "content": parser.BuildUserPrompt(input)},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling chat completions API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := completionStatusError(resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, parser.NewRateLimitError("openai", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	return parseResponse(respBody)
}

// completionResponse models the subset of the chat-completions response we read.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func parseResponse(body []byte) (*domain.ExtractionRun, error) {
	var cr completionResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("unmarshaling completion response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("completion response has no choices")
	}
	return parser.DecodeRun(cr.Choices[0].Message.Content), nil
}

func completionStatusError(status int, body []byte) error {
	return fmt.Errorf("openai API error (status %d): %s", status, string(body))
}

// backoff returns a randomized 1-3s delay between retries.
func backoff() time.Duration {
	return time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))
}
