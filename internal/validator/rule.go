package validator

import "docsense/internal/domain"

// Outcome is the tri-state result of a single check. Parse failures surface
// as OutcomeUnknown rather than errors; the engine reports unknown outcomes
// as failures with a diagnostic note, so the engine is total over its input
// domain.
type Outcome int

const (
	OutcomePass Outcome = iota
	OutcomeFail
	OutcomeUnknown
)

// RuleResult is one evaluation of a named rule. Rules that evaluate per line
// item emit one result per item under the same rule name.
type RuleResult struct {
	Rule    string
	Outcome Outcome
	Note    string
}

// Input carries the data a rule set evaluates: the flattened field map (missing
// fields are empty strings) and the document's line items.
type Input struct {
	Fields    map[string]string
	LineItems []domain.LineItem
}

// Rule is a single named business-rule check.
type Rule struct {
	Key   string
	Check func(in Input) []RuleResult
}

// single wraps a boolean check into a one-result rule evaluation.
func single(key string, outcome Outcome, note string) []RuleResult {
	return []RuleResult{{Rule: key, Outcome: outcome, Note: note}}
}

func boolOutcome(ok bool) Outcome {
	if ok {
		return OutcomePass
	}
	return OutcomeFail
}
