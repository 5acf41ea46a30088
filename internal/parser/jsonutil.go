package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"docsense/internal/domain"
)

var (
	jsonBlockRe     = regexp.MustCompile(`(?s)\{.*\}`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// DecodeRun parses a model completion into an extraction run, applying
// best-effort recovery for the common failure modes of JSON-constrained
// models: surrounding prose, single quotes, trailing commas. An
// unrecoverable completion degrades to an unknown-type run with no fields
// rather than an error.
func DecodeRun(raw string) *domain.ExtractionRun {
	var run domain.ExtractionRun
	if err := json.Unmarshal([]byte(raw), &run); err == nil {
		return &run
	}

	block := jsonBlockRe.FindString(raw)
	if block == "" {
		return degradedRun()
	}
	fixed := strings.ReplaceAll(block, "'", `"`)
	fixed = trailingCommaRe.ReplaceAllString(fixed, "$1")
	if err := json.Unmarshal([]byte(fixed), &run); err != nil {
		return degradedRun()
	}
	return &run
}

func degradedRun() *domain.ExtractionRun {
	return &domain.ExtractionRun{
		DocType: domain.DocTypeUnknown,
		Fields:  []domain.ExtractedField{},
	}
}
