package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/domain"
	"docsense/internal/normalize"
)

func strPtr(s string) *string { return &s }

func invoiceRaw() *domain.RawExtraction {
	number := strPtr("INV-1001")
	total := strPtr("100.00")
	run := domain.ExtractionRun{
		DocType: domain.DocTypeInvoice,
		Fields: []domain.ExtractedField{
			{Name: "InvoiceNumber", Value: number, Source: &domain.SourceRef{
				Page: 1, BBox: domain.BBox{X1: 100, Y1: 10, X2: 200, Y2: 40},
			}},
			{Name: "TotalAmount", Value: total},
		},
	}
	degraded := domain.ExtractionRun{
		DocType: domain.DocTypeInvoice,
		Fields: []domain.ExtractedField{
			{Name: "InvoiceNumber", Value: number},
		},
	}
	return &domain.RawExtraction{
		DocType:   domain.DocTypeInvoice,
		Fields:    run.Fields,
		LineItems: nil,
		Runs:      []domain.ExtractionRun{run, run, degraded},
	}
}

func TestNormalize_FusesPerFieldConfidence(t *testing.T) {
	tokens := []domain.Token{
		{Text: "INV-1001", Confidence: 0.9, Page: 1, BBox: domain.BBox{X1: 110, X2: 190}},
		{Text: "Total", Confidence: 0.8, Page: 1, BBox: domain.BBox{X1: 300, X2: 360}},
		{Text: "100.00", Confidence: 0.7, Page: 1, BBox: domain.BBox{X1: 400, X2: 460}},
	}

	result := normalize.Normalize(invoiceRaw(), tokens)

	require.Len(t, result.Fields, 2)
	assert.Equal(t, domain.DocTypeInvoice, result.DocType)

	number := result.Fields[0]
	assert.Equal(t, "InvoiceNumber", number.Name)
	// OCR: the single overlapping token (0.9); agreement: 3/3.
	// 0.45*0.9 + 0.45*1.0 + 0.10 = 0.955
	assert.InDelta(t, 0.96, number.Confidence, 1e-9)
	assert.InDelta(t, 0.9, number.Breakdown.OCRScore, 1e-9)
	assert.InDelta(t, 1.0, number.Breakdown.LLMAgreement, 1e-9)

	total := result.Fields[1]
	assert.Equal(t, "TotalAmount", total.Name)
	// No source: all three tokens (mean 0.8); present in 2 of 3 runs.
	// 0.45*0.8 + 0.45*(2/3) + 0.10 = 0.76
	assert.InDelta(t, 0.76, total.Confidence, 1e-9)
	assert.InDelta(t, 0.67, total.Breakdown.LLMAgreement, 1e-9)
}

func TestNormalize_OverallIsMeanOfFullPrecisionScores(t *testing.T) {
	tokens := []domain.Token{
		{Text: "INV-1001", Confidence: 0.9, Page: 1, BBox: domain.BBox{X1: 110, X2: 190}},
		{Text: "Total", Confidence: 0.8, Page: 1, BBox: domain.BBox{X1: 300, X2: 360}},
		{Text: "100.00", Confidence: 0.7, Page: 1, BBox: domain.BBox{X1: 400, X2: 460}},
	}

	result := normalize.Normalize(invoiceRaw(), tokens)

	// (0.955 + 0.76) / 2 = 0.8575, rounded once at the end.
	assert.InDelta(t, 0.86, result.OverallConfidence, 1e-9)
}

func TestNormalize_RunsQAOnFlattenedFields(t *testing.T) {
	result := normalize.Normalize(invoiceRaw(), nil)

	assert.Contains(t, result.QA.PassedRules, "invoice_number_format")
	assert.Contains(t, result.QA.PassedRules, "total_amount_currency")
	// No InvoiceDate field extracted at all.
	assert.Contains(t, result.QA.FailedRules, "invoice_date_valid")
	// Declared total 100.00 vs empty line items.
	assert.Contains(t, result.QA.FailedRules, "totals_match")
}

func TestNormalize_EmptyDocTypeBecomesUnknown(t *testing.T) {
	raw := &domain.RawExtraction{
		Fields: []domain.ExtractedField{},
		Runs:   []domain.ExtractionRun{{}},
	}

	result := normalize.Normalize(raw, nil)

	assert.Equal(t, domain.DocTypeUnknown, result.DocType)
	assert.Equal(t, "unknown doc_type", result.QA.Notes)
	assert.Zero(t, result.OverallConfidence)
}
