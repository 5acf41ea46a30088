package doctype

import (
	"regexp"

	"docsense/internal/domain"
)

// textHints are the keyword/phrase families counted against the full document
// text. Counts are whole-word (phrases allow internal spaces) and
// case-insensitive; each occurrence adds 1.0 to the label's text score.
var textHints = map[domain.DocType][]string{
	domain.DocTypeInvoice: {
		"invoice", "invoice no", "invoice number", "bill to", "ship to",
		"gstin", "vat", "subtotal", "total due", "balance due",
		"po number", "purchase order", "tax invoice",
	},
	domain.DocTypeMedicalBill: {
		"medical bill", "hospital", "clinic", "patient", "patient id",
		"uhid", "mrn", "ipd", "opd", "admission date", "discharge date",
		"ward", "room charges", "consultation", "procedure", "diagnosis",
		"pharmacy", "laboratory", "radiology", "bill no",
	},
	domain.DocTypePrescription: {
		"prescription", "rx", "℞", "doctor", "dr.", "reg no",
		"nmc", "mci", "patient", "age", "sex", "diagnosis",
		"tablet", "tab", "capsule", "cap", "syrup", "ointment", "drop",
		"dose", "dosage", "mg", "ml", "mcg", "refill",
		"od", "bid", "tid", "qid", "hs", "prn", "after food", "before food",
	},
}

// tokenHeuristic adds a fixed weight to a label's token score whenever its
// pattern matches a token's lowercased text.
type tokenHeuristic struct {
	label   domain.DocType
	pattern *regexp.Regexp
	weight  float64
}

var tokenHeuristics = []tokenHeuristic{
	{domain.DocTypePrescription, regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(mg|ml|mcg)\b`), 0.6},
	{domain.DocTypePrescription, regexp.MustCompile(`\b(bid|tid|qid|od|hs|prn)\b`), 0.8},
	{domain.DocTypeInvoice, regexp.MustCompile(`\binvoice\b`), 1.0},
	{domain.DocTypeInvoice, regexp.MustCompile(`\b(subtotal|gst|vat|balance\s*due|po\s*#?|po\s*number)\b`), 0.6},
	{domain.DocTypeMedicalBill, regexp.MustCompile(`\b(hospital|patient\s*id|uhid|ipd|opd|admission|discharge|ward|procedure)\b`), 0.8},
}

// prescriptionGlyphs are exact token matches that strongly indicate a
// prescription header.
var prescriptionGlyphs = map[string]float64{
	"Rx": 3.0,
	"℞":  3.0,
}

// hintPatterns holds the compiled whole-word regexes per label, built once.
var hintPatterns = buildHintPatterns()

func buildHintPatterns() map[domain.DocType][]*regexp.Regexp {
	out := make(map[domain.DocType][]*regexp.Regexp, len(textHints))
	for label, hints := range textHints {
		res := make([]*regexp.Regexp, 0, len(hints))
		for _, h := range hints {
			res = append(res, regexp.MustCompile(`\b`+regexp.QuoteMeta(h)+`\b`))
		}
		out[label] = res
	}
	return out
}
