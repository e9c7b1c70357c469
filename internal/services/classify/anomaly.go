package classify

import (
	"strings"

	"finance-ledger-backend/internal/models"
)

// UnusualAmountThreshold is the amount above which a transaction is
// flagged for review, in the source currency unit.
const UnusualAmountThreshold = 1000.0

// FlagReasons returns the anomaly reason codes for a candidate, empty
// when nothing looks off.
func FlagReasons(description string, amount float64) []string {
	var reasons []string
	if strings.TrimSpace(description) == "" {
		reasons = append(reasons, models.FlagMissingDescription)
	}
	if amount > UnusualAmountThreshold {
		reasons = append(reasons, models.FlagUnusualAmount)
	}
	return reasons
}
