package validator

import (
	"regexp"
	"strings"
)

var dosageRe = regexp.MustCompile(`\b\d+(mg|ml|mcg)\b`)

// prescriptionRules is the fixed rule set for prescriptions.
var prescriptionRules = []Rule{
	{
		Key: "patient_name_present",
		Check: func(in Input) []RuleResult {
			ok := in.Fields["PatientName"] != ""
			return single("patient_name_present", boolOutcome(ok), "")
		},
	},
	{
		Key: "doctor_name_present",
		Check: func(in Input) []RuleResult {
			ok := in.Fields["DoctorName"] != ""
			return single("doctor_name_present", boolOutcome(ok), "")
		},
	},
	{
		Key: "prescription_date_valid",
		Check: func(in Input) []RuleResult {
			_, ok := parseDate(in.Fields["PrescriptionDate"])
			return single("prescription_date_valid", boolOutcome(ok), "")
		},
	},
	{
		Key: "medications_present",
		Check: func(in Input) []RuleResult {
			return single("medications_present", boolOutcome(len(in.LineItems) > 0), "")
		},
	},
	{
		// Evaluated once per line item; the rule name may appear in both
		// lists across items.
		Key: "dosage_format",
		Check: func(in Input) []RuleResult {
			results := make([]RuleResult, 0, len(in.LineItems))
			for _, li := range in.LineItems {
				ok := dosageRe.MatchString(strings.ToLower(li.Description))
				results = append(results, RuleResult{Rule: "dosage_format", Outcome: boolOutcome(ok)})
			}
			return results
		},
	},
}
