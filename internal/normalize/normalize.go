// Package normalize composes the router, fusion, and validation components
// into the schema-shaped extraction result.
package normalize

import (
	"docsense/internal/confidence"
	"docsense/internal/domain"
	"docsense/internal/validator"
)

// Normalize turns a raw multi-run extraction and the document's OCR tokens
// into the final schema-compliant result. Field order follows the raw
// extraction; all reported confidences are rounded to two decimals while
// internal computation keeps full precision.
func Normalize(raw *domain.RawExtraction, tokens []domain.Token) *domain.ExtractionResult {
	docType := raw.DocType
	if docType == "" {
		docType = domain.DocTypeUnknown
	}

	fields := make([]domain.FieldResult, 0, len(raw.Fields))
	fieldScores := make([]float64, 0, len(raw.Fields))

	for _, f := range raw.Fields {
		tokenConfs := confidence.SelectTokenConfidences(tokens, f.Source)
		runValues := valuesAcrossRuns(f.Name, raw.Runs)

		// validatorOk is fixed true at fusion time: rule validation applies
		// at the document level through the QA report, and the per-field
		// validator wiring is intentionally left a constant contribution.
		score, breakdown := confidence.Fuse(tokenConfs, runValues, true)
		fieldScores = append(fieldScores, score)

		fields = append(fields, domain.FieldResult{
			Name:       f.Name,
			Value:      f.Value,
			Confidence: confidence.Round2(score),
			Source:     f.Source,
			Breakdown:  breakdown,
		})
	}

	qa := validator.Validate(docType, validator.FieldValues(fields), raw.LineItems)

	return &domain.ExtractionResult{
		DocType:           docType,
		Fields:            fields,
		LineItems:         raw.LineItems,
		OverallConfidence: confidence.Round2(confidence.Overall(fieldScores)),
		QA:                qa,
	}
}

// valuesAcrossRuns collects the value a field took in every self-consistency
// run. A run that did not return the field contributes nil; when a run
// repeats the name, the last occurrence wins.
func valuesAcrossRuns(name string, runs []domain.ExtractionRun) []*string {
	values := make([]*string, 0, len(runs))
	for _, run := range runs {
		var val *string
		for _, f := range run.Fields {
			if f.Name == name {
				val = f.Value
			}
		}
		values = append(values, val)
	}
	return values
}
