// Package export renders completed extractions as CSV and XLSX downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docsense/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns defines the export header row. Metadata first, then the union of
// extracted field names across document types.
var Columns = []string{
	"File Name",
	"Doc Type",
	"Status",
	"Overall Confidence",
	"Passed Rules",
	"Failed Rules",
	"QA Notes",
	"InvoiceNumber",
	"InvoiceDate",
	"VendorName",
	"TotalAmount",
	"PatientName",
	"PatientID",
	"HospitalName",
	"BillNumber",
	"AdmissionDate",
	"DischargeDate",
	"DoctorName",
	"PrescriptionDate",
	"Line Item Count",
	"Parsed At",
	"Created At",
}

// offset of the first field column within Columns.
const fieldColOffset = 7

// fieldColumns maps a field name to its column index.
var fieldColumns = func() map[string]int {
	m := make(map[string]int)
	for i := fieldColOffset; i < len(Columns)-3; i++ {
		m[Columns[i]] = i
	}
	return m
}()

// CSVWriter wraps csv.Writer for exporting extractions as CSV.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(Columns)
}

// WriteExtractions converts a batch of extractions to CSV rows and writes them.
func (w *CSVWriter) WriteExtractions(exts []domain.Extraction) error {
	for i := range exts {
		row := ExtractionToRow(&exts[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

// ExtractionToRow converts a single extraction to a row matching Columns.
// If the extraction has no stored result, only metadata columns are filled.
func ExtractionToRow(ext *domain.Extraction) []string {
	row := make([]string, len(Columns))

	row[0] = ext.FileName
	row[1] = string(ext.DocType)
	row[2] = string(ext.Status)
	row[3] = strconv.FormatFloat(ext.OverallConfidence, 'f', 2, 64)
	row[len(Columns)-2] = formatTime(ext.ParsedAt)
	row[len(Columns)-1] = ext.CreatedAt.Format(time.RFC3339)

	if ext.Status != domain.ExtractionStatusCompleted || len(ext.Result) == 0 {
		return row
	}

	var res domain.ExtractionResult
	if err := json.Unmarshal(ext.Result, &res); err != nil {
		return row
	}

	row[4] = strings.Join(res.QA.PassedRules, "|")
	row[5] = strings.Join(res.QA.FailedRules, "|")
	row[6] = res.QA.Notes
	for _, f := range res.Fields {
		col, ok := fieldColumns[f.Name]
		if !ok || f.Value == nil {
			continue
		}
		row[col] = *f.Value
	}
	row[len(Columns)-3] = strconv.Itoa(len(res.LineItems))

	return row
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition. Replaces
// non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition
// header. Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
