// Package validator runs document-type-specific business-rule checks over
// extracted fields and line items and reports pass/fail outcomes per rule.
package validator

import (
	"strings"

	"docsense/internal/domain"
)

// ruleSets maps each document type to its fixed rule battery.
var ruleSets = map[domain.DocType][]Rule{
	domain.DocTypeInvoice:      invoiceRules,
	domain.DocTypeMedicalBill:  medicalBillRules,
	domain.DocTypePrescription: prescriptionRules,
}

// Validate dispatches on docType and evaluates its rule set. It is total:
// missing or malformed fields produce rule failures with notes, never errors.
// An unrecognized document type yields an empty report with a note.
func Validate(docType domain.DocType, fields map[string]string, lineItems []domain.LineItem) domain.QAReport {
	rules, ok := ruleSets[docType]
	if !ok {
		return domain.QAReport{
			PassedRules: []string{},
			FailedRules: []string{},
			Notes:       "unknown doc_type",
		}
	}

	if fields == nil {
		fields = map[string]string{}
	}
	in := Input{Fields: fields, LineItems: lineItems}

	report := domain.QAReport{
		PassedRules: []string{},
		FailedRules: []string{},
	}
	var notes []string
	for _, rule := range rules {
		for _, res := range rule.Check(in) {
			switch res.Outcome {
			case OutcomePass:
				report.PassedRules = append(report.PassedRules, res.Rule)
			default:
				// Unknown counts as failed: a value we cannot parse cannot
				// satisfy the rule.
				report.FailedRules = append(report.FailedRules, res.Rule)
			}
			if res.Note != "" {
				notes = append(notes, res.Note)
			}
		}
	}
	report.Notes = strings.Join(notes, ";")
	return report
}

// FieldValues flattens extracted field results into the name→value map the
// rule sets evaluate. Nil values become empty strings; on duplicate names the
// last value wins.
func FieldValues(fields []domain.FieldResult) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.Value != nil {
			out[f.Name] = *f.Value
		} else {
			out[f.Name] = ""
		}
	}
	return out
}
