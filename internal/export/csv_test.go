package export_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/domain"
	"docsense/internal/export"
)

func strPtr(s string) *string { return &s }

func completedExtraction(t *testing.T) domain.Extraction {
	t.Helper()
	result := domain.ExtractionResult{
		DocType: domain.DocTypeInvoice,
		Fields: []domain.FieldResult{
			{Name: "InvoiceNumber", Value: strPtr("INV-2024-001"), Confidence: 0.92},
			{Name: "TotalAmount", Value: strPtr("1500.00"), Confidence: 0.88},
			{Name: "VendorName", Value: nil, Confidence: 0},
		},
		LineItems: []domain.LineItem{
			{Description: "Widget"},
			{Description: "Gadget"},
		},
		OverallConfidence: 0.85,
		QA:                QAFixture(),
	}
	raw, err := json.Marshal(result)
	require.NoError(t, err)

	parsedAt := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	return domain.Extraction{
		ID:                uuid.New(),
		FileName:          "acme-invoice.pdf",
		DocType:           domain.DocTypeInvoice,
		Status:            domain.ExtractionStatusCompleted,
		OverallConfidence: 0.85,
		Result:            raw,
		CreatedAt:         time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
		ParsedAt:          &parsedAt,
	}
}

func QAFixture() domain.QAReport {
	return domain.QAReport{
		PassedRules: []string{"invoice_number_present", "totals_match"},
		FailedRules: []string{"date_parseable"},
		Notes:       `invoice_date "tomorrow" is not a recognizable date`,
	}
}

func TestExtractionToRow_CompletedExtraction(t *testing.T) {
	ext := completedExtraction(t)

	row := export.ExtractionToRow(&ext)

	require.Len(t, row, len(export.Columns))
	assert.Equal(t, "acme-invoice.pdf", row[0])
	assert.Equal(t, "invoice", row[1])
	assert.Equal(t, "completed", row[2])
	assert.Equal(t, "0.85", row[3])
	assert.Equal(t, "invoice_number_present|totals_match", row[4])
	assert.Equal(t, "date_parseable", row[5])
	assert.Equal(t, `invoice_date "tomorrow" is not a recognizable date`, row[6])

	byName := make(map[string]string)
	for i, col := range export.Columns {
		byName[col] = row[i]
	}
	assert.Equal(t, "INV-2024-001", byName["InvoiceNumber"])
	assert.Equal(t, "1500.00", byName["TotalAmount"])
	assert.Empty(t, byName["VendorName"])
	assert.Equal(t, "2", byName["Line Item Count"])
	assert.Equal(t, "2026-08-15T10:30:00Z", byName["Parsed At"])
	assert.Equal(t, "2026-08-15T10:00:00Z", byName["Created At"])
}

func TestExtractionToRow_PendingExtractionHasMetadataOnly(t *testing.T) {
	ext := domain.Extraction{
		ID:        uuid.New(),
		FileName:  "pending.pdf",
		DocType:   domain.DocTypeUnknown,
		Status:    domain.ExtractionStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	row := export.ExtractionToRow(&ext)

	assert.Equal(t, "pending.pdf", row[0])
	assert.Equal(t, "queued", row[2])
	assert.Empty(t, row[4])
	for _, col := range []int{7, 8, 9, 10} {
		assert.Empty(t, row[col])
	}
}

func TestExtractionToRow_CorruptResultFallsBackToMetadata(t *testing.T) {
	ext := completedExtraction(t)
	ext.Result = json.RawMessage(`{not json`)

	row := export.ExtractionToRow(&ext)

	assert.Equal(t, "acme-invoice.pdf", row[0])
	assert.Empty(t, row[4])
}

func TestCSVWriter_RoundTrip(t *testing.T) {
	ext := completedExtraction(t)

	var buf bytes.Buffer
	w := export.NewCSVWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteExtractions([]domain.Extraction{ext}))
	w.Flush()
	require.NoError(t, w.Error())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, export.Columns, records[0])
	assert.Equal(t, "acme-invoice.pdf", records[1][0])
}

func TestWriteXLSX(t *testing.T) {
	ext := completedExtraction(t)

	buf, err := export.WriteXLSX([]domain.Extraction{ext})

	require.NoError(t, err)
	// XLSX files are ZIP archives.
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report_pdf"},
		{"my file (final).pdf", "my_file_final_pdf"},
		{"already-safe_name", "already-safe_name"},
		{"___leading and trailing___", "leading_and_trailing"},
		{"über invoice", "ber_invoice"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, export.SanitizeFilename(tc.in), "input %q", tc.in)
	}
}

func TestBuildFilename(t *testing.T) {
	got := export.BuildFilename("extractions", "csv")
	want := fmt.Sprintf("extractions_%s.csv", time.Now().Format("2006-01-02"))
	assert.Equal(t, want, got)
}
