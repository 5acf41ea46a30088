package validator

import (
	"fmt"
	"regexp"
)

var patientIDRe = regexp.MustCompile(`^[A-Za-z0-9\-]+$`)

// medicalBillRules is the fixed rule set for medical bills.
var medicalBillRules = []Rule{
	{
		Key: "patient_name_present",
		Check: func(in Input) []RuleResult {
			ok := in.Fields["PatientName"] != ""
			return single("patient_name_present", boolOutcome(ok), "")
		},
	},
	{
		Key: "patient_id_format",
		Check: func(in Input) []RuleResult {
			ok := patientIDRe.MatchString(in.Fields["PatientID"])
			return single("patient_id_format", boolOutcome(ok), "")
		},
	},
	{
		Key: "admission_before_discharge",
		Check: func(in Input) []RuleResult {
			adm, admOK := parseDate(in.Fields["AdmissionDate"])
			dis, disOK := parseDate(in.Fields["DischargeDate"])
			if !admOK || !disOK {
				return single("admission_before_discharge", OutcomeUnknown,
					fmt.Sprintf("unparseable dates admission=%q discharge=%q",
						in.Fields["AdmissionDate"], in.Fields["DischargeDate"]))
			}
			return single("admission_before_discharge", boolOutcome(adm.Before(dis)), "")
		},
	},
	{
		Key:   "totals_match",
		Check: totalsMatch,
	},
}
