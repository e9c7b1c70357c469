package classify

import (
	"strconv"
	"strings"

	"finance-ledger-backend/internal/models"
)

// Resolve evaluates an ordered snapshot of active rules against a
// candidate and returns the first matching rule's category, or nil when
// nothing matches. The slice must already be filtered to active rules
// and sorted by ascending ID; callers capture it once per run and never
// re-fetch mid-run.
func Resolve(rules []models.Rule, description string, amount float64) *uint {
	desc := NormalizeDescription(description)
	for _, r := range rules {
		if matches(r, desc, amount) {
			return r.ActionCategoryID
		}
	}
	return nil
}

func matches(r models.Rule, normalizedDesc string, amount float64) bool {
	switch r.ConditionType {
	case models.ConditionDescriptionContains:
		return strings.Contains(normalizedDesc, NormalizeDescription(r.ConditionValue))
	case models.ConditionDescriptionExact:
		return normalizedDesc == NormalizeDescription(r.ConditionValue)
	case models.ConditionAmountEquals:
		v, err := strconv.ParseFloat(r.ConditionValue, 64)
		return err == nil && amount == v
	case models.ConditionAmountGreaterThan:
		v, err := strconv.ParseFloat(r.ConditionValue, 64)
		return err == nil && amount > v
	case models.ConditionAmountLessThan:
		v, err := strconv.ParseFloat(r.ConditionValue, 64)
		return err == nil && amount < v
	}
	// Unknown kinds (e.g. corrupted rule rows) never match.
	return false
}
