// Package doctype classifies a scanned document into one of the supported
// document types by scoring OCR text and tokens against fixed keyword and
// pattern tables.
package doctype

import (
	"strings"

	"docsense/internal/domain"
)

// Low-evidence fallback thresholds: when the best score is below
// fallbackMinTop and the winning margin is below fallbackMinMargin, the
// classification defaults to invoice, the most common unlabeled case.
const (
	fallbackMinTop    = 2.0
	fallbackMinMargin = 1.0
)

// Classify scores the document against every known label and returns the
// winning label plus the full score mapping. It never fails: absent text and
// tokens produce all-zero scores and the invoice fallback.
func Classify(fullText string, tokens []domain.Token) (domain.DocType, domain.RouteScores) {
	scores := make(domain.RouteScores, len(domain.KnownDocTypes))
	text := strings.ToLower(fullText)
	for _, label := range domain.KnownDocTypes {
		scores[label] = textScore(text, label)
	}
	for label, s := range tokenScores(tokens) {
		scores[label] += s
	}

	// Argmax with lexicographic tie-break: KnownDocTypes is ordered, and a
	// strictly-greater comparison keeps the earliest label on ties.
	label := domain.KnownDocTypes[0]
	for _, l := range domain.KnownDocTypes[1:] {
		if scores[l] > scores[label] {
			label = l
		}
	}

	top, second := topTwo(scores)
	if top < fallbackMinTop && top-second < fallbackMinMargin {
		label = domain.DocTypeInvoice
	}
	return label, scores
}

// textScore counts whole-word occurrences of the label's hint phrases in the
// lowercased document text.
func textScore(text string, label domain.DocType) float64 {
	var total float64
	for _, re := range hintPatterns[label] {
		total += float64(len(re.FindAllStringIndex(text, -1)))
	}
	return total
}

// tokenScores applies token-level heuristics and returns per-label weighted
// increments.
func tokenScores(tokens []domain.Token) domain.RouteScores {
	scores := make(domain.RouteScores, len(domain.KnownDocTypes))
	for _, label := range domain.KnownDocTypes {
		scores[label] = 0
	}
	for _, tok := range tokens {
		text := strings.TrimSpace(tok.Text)
		if w, ok := prescriptionGlyphs[text]; ok {
			scores[domain.DocTypePrescription] += w
		}
		lower := strings.ToLower(text)
		for _, h := range tokenHeuristics {
			if h.pattern.MatchString(lower) {
				scores[h.label] += h.weight
			}
		}
	}
	return scores
}

// topTwo returns the two highest scores, treating missing entries as zero.
func topTwo(scores domain.RouteScores) (top, second float64) {
	for _, s := range scores {
		switch {
		case s > top:
			second = top
			top = s
		case s > second:
			second = s
		}
	}
	return top, second
}
