package parser

import (
	"encoding/json"
	"strings"

	"docsense/internal/port"
)

// SystemPrompt is the fixed instruction for every extraction run.
const SystemPrompt = `You are a document parser. Given OCR text and bounding boxes, extract the requested fields exactly in JSON. Output MUST be valid JSON only - no explanatory text.`

// BuildUserPrompt assembles the per-run user message: OCR text, the token
// list with positions and confidences, the expected field names, and an
// optional document-type hint.
func BuildUserPrompt(input port.ExtractionInput) string {
	tokensJSON, _ := json.Marshal(input.Tokens)
	fieldsJSON, _ := json.Marshal(input.ExpectedFields)

	var b strings.Builder
	b.WriteString("OCR_TEXT:\n")
	b.WriteString(input.OCRText)
	b.WriteString("\n\nOCR_TOKENS (list of token objects: text, conf, bbox, page):\n")
	b.Write(tokensJSON)
	b.WriteString("\n\nEXTRACT FIELDS: ")
	b.Write(fieldsJSON)
	if input.DocTypeHint != "" {
		b.WriteString("\nDOC_TYPE_HINT: ")
		b.WriteString(string(input.DocTypeHint))
	}
	b.WriteString("\n\nReturn JSON with keys: doc_type, fields (list of {name, value, source:{page,bbox}}), line_items (if present, list of {description, quantity, unit_price, amount}).")
	return b.String()
}
