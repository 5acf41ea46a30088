// Package confidence fuses OCR token confidence, LLM self-consistency
// agreement, and the validator outcome into a single per-field trust score.
package confidence

import (
	"math"
	"strings"

	"docsense/internal/domain"
)

// Fusion weights. OCR fidelity and cross-run LLM stability matter equally and
// dominate; rule validation is a smaller corrective signal.
const (
	weightOCR       = 0.45
	weightLLM       = 0.45
	weightValidator = 0.10

	// Formula is reported verbatim in every breakdown for auditing.
	Formula = "0.45*OCR + 0.45*LLM agreement + 0.10*Validator"

	// bboxTolerancePx is the horizontal slack applied to a field's source
	// box when selecting overlapping tokens.
	bboxTolerancePx = 5.0
)

// Fuse computes the weighted confidence score for one field.
//
// tokenConfs are the confidences of the field's spatially-overlapping OCR
// tokens; runValues holds the value this field took in each self-consistency
// run, nil where a run did not return it; validatorOk is the rule-validation
// outcome. The returned score is clamped to [0,1].
func Fuse(tokenConfs []float64, runValues []*string, validatorOk bool) (float64, domain.ConfidenceBreakdown) {
	ocrScore := mean(tokenConfs)
	agreement := llmAgreement(runValues)
	validatorScore := 0.0
	if validatorOk {
		validatorScore = 1.0
	}

	score := weightOCR*ocrScore + weightLLM*agreement + weightValidator*validatorScore
	score = math.Max(0, math.Min(1, score))

	return score, domain.ConfidenceBreakdown{
		OCRScore:       Round2(ocrScore),
		LLMAgreement:   Round2(agreement),
		ValidatorScore: Round2(validatorScore),
		Formula:        Formula,
	}
}

// llmAgreement is the share of runs that produced the modal non-null value.
// Values are normalized by trimming whitespace and lowercasing before
// counting. All-null runs score 0.
func llmAgreement(runValues []*string) float64 {
	counts := make(map[string]int)
	for _, v := range runValues {
		if v == nil {
			continue
		}
		counts[strings.ToLower(strings.TrimSpace(*v))]++
	}
	if len(counts) == 0 {
		return 0
	}
	best := 0
	for _, n := range counts {
		if n > best {
			best = n
		}
	}
	return float64(best) / float64(len(runValues))
}

// SelectTokenConfidences returns the confidences of the tokens that overlap a
// field's source location: same page, horizontal span within the source box
// widened by the pixel tolerance on both edges. The vertical axis is not
// filtered. A field without a source falls back to every token in the
// document, a conservative low-precision default.
func SelectTokenConfidences(tokens []domain.Token, src *domain.SourceRef) []float64 {
	confs := make([]float64, 0, len(tokens))
	if src == nil {
		for _, t := range tokens {
			confs = append(confs, t.Confidence)
		}
		return confs
	}
	for _, t := range tokens {
		if t.Page != src.Page {
			continue
		}
		if t.BBox.X1 >= src.BBox.X1-bboxTolerancePx && t.BBox.X2 <= src.BBox.X2+bboxTolerancePx {
			confs = append(confs, t.Confidence)
		}
	}
	return confs
}

// Overall is the arithmetic mean of all per-field fused scores; 0 for none.
func Overall(fieldScores []float64) float64 {
	return mean(fieldScores)
}

// Round2 rounds to two decimal places, the precision of all reported scores.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
