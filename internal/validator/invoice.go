package validator

import (
	"fmt"
	"regexp"
)

const totalsTolerance = 1.0

var invoiceNumberRe = regexp.MustCompile(`(?i)^(INV[-/]?\d+|\d+)$`)

// invoiceRules is the fixed rule set for invoices.
var invoiceRules = []Rule{
	{
		Key: "invoice_number_format",
		Check: func(in Input) []RuleResult {
			ok := invoiceNumberRe.MatchString(in.Fields["InvoiceNumber"])
			return single("invoice_number_format", boolOutcome(ok), "")
		},
	},
	{
		Key: "invoice_date_valid",
		Check: func(in Input) []RuleResult {
			_, ok := parseDate(in.Fields["InvoiceDate"])
			return single("invoice_date_valid", boolOutcome(ok), "")
		},
	},
	{
		Key: "total_amount_currency",
		Check: func(in Input) []RuleResult {
			_, ok := parseCurrency(in.Fields["TotalAmount"])
			return single("total_amount_currency", boolOutcome(ok), "")
		},
	},
	{
		Key:   "totals_match",
		Check: totalsMatch,
	},
}

// totalsMatch compares the declared total against the sum of line item
// amounts within an absolute tolerance. Shared between invoice and medical
// bill rule sets. An unparseable total is an unknown outcome.
func totalsMatch(in Input) []RuleResult {
	total, ok := parseCurrency(in.Fields["TotalAmount"])
	if !ok {
		return single("totals_match", OutcomeUnknown, fmt.Sprintf("total %q is not numeric", in.Fields["TotalAmount"]))
	}
	sum := sumAmounts(in.LineItems)
	if diff := total - sum; diff < totalsTolerance && diff > -totalsTolerance {
		return single("totals_match", OutcomePass, "")
	}
	return single("totals_match", OutcomeFail, fmt.Sprintf("total=%.2f sum_line_items=%.2f", total, sum))
}
