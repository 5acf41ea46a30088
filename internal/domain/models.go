package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BBox is an axis-aligned bounding box in page pixel coordinates. It is
// serialized as a 4-element array [x1, y1, x2, y2] to match the OCR wire
// format.
type BBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// MarshalJSON encodes the box as [x1, y1, x2, y2].
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON decodes a [x1, y1, x2, y2] array.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("bbox must be an array: %w", err)
	}
	if len(arr) != 4 {
		return fmt.Errorf("bbox must have 4 elements, got %d", len(arr))
	}
	b.X1, b.Y1, b.X2, b.Y2 = arr[0], arr[1], arr[2], arr[3]
	return nil
}

// Token is a single OCR-recognized text unit with position and confidence.
// Tokens are produced by the OCR adapter and consumed read-only downstream.
type Token struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"conf"`
	BBox       BBox    `json:"bbox"`
	Page       int     `json:"page"`
}

// SourceRef locates a field's value on the original document.
type SourceRef struct {
	Page int  `json:"page"`
	BBox BBox `json:"bbox"`
}

// ExtractedField is one field as returned by a single LLM extraction run.
type ExtractedField struct {
	Name   string     `json:"name"`
	Value  *string    `json:"value"`
	Source *SourceRef `json:"source,omitempty"`
}

// UnmarshalJSON accepts any JSON type in value. Models regularly emit
// amounts as bare numbers or flags as booleans despite the prompt asking
// for strings; a failed strict decode would throw away the whole run.
func (f *ExtractedField) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string          `json:"name"`
		Value  json.RawMessage `json:"value"`
		Source *SourceRef      `json:"source"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Name = raw.Name
	f.Source = raw.Source
	f.Value = coerceToString(raw.Value)
	return nil
}

// coerceToString renders a raw JSON value as a string, keeping the literal
// form for non-strings (150.0 stays "150.0"). Null and absent stay nil.
func coerceToString(raw json.RawMessage) *string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	return &trimmed
}

// ConfidenceBreakdown explains how a field's fused confidence was computed.
type ConfidenceBreakdown struct {
	OCRScore       float64 `json:"ocr_score"`
	LLMAgreement   float64 `json:"llm_agreement"`
	ValidatorScore float64 `json:"validator_score"`
	Formula        string  `json:"formula"`
}

// FieldResult is one field in the final normalized output.
type FieldResult struct {
	Name       string              `json:"name"`
	Value      *string             `json:"value"`
	Confidence float64             `json:"confidence"`
	Source     *SourceRef          `json:"source"`
	Breakdown  ConfidenceBreakdown `json:"confidence_breakdown"`
}

// LineItem is one row of a bill or prescription.
type LineItem struct {
	Description string     `json:"description"`
	Quantity    *float64   `json:"quantity"`
	UnitPrice   *float64   `json:"unit_price"`
	Amount      *float64   `json:"amount"`
	Source      *SourceRef `json:"source,omitempty"`
	Confidence  float64    `json:"confidence"`
}

// QAReport is the pass/fail outcome of document-type-specific business rules.
type QAReport struct {
	PassedRules []string `json:"passed_rules"`
	FailedRules []string `json:"failed_rules"`
	Notes       string   `json:"notes"`
}

// ExtractionResult is the schema-shaped output of a full extraction. This is
// the interchange contract; field names must stay stable for downstream
// consumers.
type ExtractionResult struct {
	DocType           DocType       `json:"doc_type"`
	Fields            []FieldResult `json:"fields"`
	LineItems         []LineItem    `json:"line_items,omitempty"`
	OverallConfidence float64       `json:"overall_confidence"`
	QA                QAReport      `json:"qa"`
}

// ExtractionRun is the payload of a single self-consistency LLM run.
type ExtractionRun struct {
	DocType   DocType          `json:"doc_type"`
	Fields    []ExtractedField `json:"fields"`
	LineItems []LineItem       `json:"line_items,omitempty"`
}

// RawExtraction is the aggregate of all self-consistency runs. The first
// successful run supplies the primary field list and line items; Runs keeps
// every run for agreement scoring.
type RawExtraction struct {
	DocType   DocType          `json:"doc_type"`
	Fields    []ExtractedField `json:"fields"`
	LineItems []LineItem       `json:"line_items,omitempty"`
	Runs      []ExtractionRun  `json:"runs"`
}

// RouteScores maps document-type label to its classification score.
type RouteScores map[DocType]float64

// Extraction is the persisted extraction job aggregate.
type Extraction struct {
	ID                uuid.UUID        `db:"id" json:"id"`
	FileName          string           `db:"file_name" json:"file_name"`
	ContentType       string           `db:"content_type" json:"content_type"`
	S3Bucket          string           `db:"s3_bucket" json:"-"`
	S3Key             string           `db:"s3_key" json:"-"`
	DocType           DocType          `db:"doc_type" json:"doc_type"`
	RouteScores       json.RawMessage  `db:"route_scores" json:"route_scores,omitempty"`
	Result            json.RawMessage  `db:"result" json:"result,omitempty"`
	OverallConfidence float64          `db:"overall_confidence" json:"overall_confidence"`
	Status            ExtractionStatus `db:"status" json:"status"`
	Error             string           `db:"error" json:"error,omitempty"`
	Attempts          int              `db:"attempts" json:"attempts"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
	ParsedAt          *time.Time       `db:"parsed_at" json:"parsed_at,omitempty"`
}
