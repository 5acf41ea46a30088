package validator

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"docsense/internal/domain"
)

var currencyStripper = strings.NewReplacer(",", "", "$", "", "₹", "", "€", "", "£", "")

// parseCurrency parses a currency value after stripping commas and currency
// symbols. Returns false for anything non-numeric.
func parseCurrency(s string) (float64, bool) {
	cleaned := strings.TrimSpace(currencyStripper.Replace(s))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseDate attempts a lenient parse of common date formats.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// sumAmounts totals the line item amounts, skipping items without one.
func sumAmounts(items []domain.LineItem) float64 {
	var sum float64
	for _, li := range items {
		if li.Amount != nil {
			sum += *li.Amount
		}
	}
	return sum
}
