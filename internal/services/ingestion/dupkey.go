package ingestion

import (
	"strconv"
	"time"

	"finance-ledger-backend/internal/services/classify"
)

const keyDelimiter = "__"

// BuildDuplicateKey derives the canonical dedup key for a transaction.
// The description is normalized (trimmed, lower-cased, whitespace
// collapsed), the date reduced to its calendar day, and the amount
// rendered in fixed two-decimal notation so "5" and "5.00" produce the
// same key regardless of how the import source formatted them. The
// delimiter cannot occur inside a normalized description because
// whitespace runs collapse to single spaces.
func BuildDuplicateKey(description string, date time.Time, amount float64) string {
	return classify.NormalizeDescription(description) +
		keyDelimiter + date.Format("2006-01-02") +
		keyDelimiter + canonicalAmount(amount)
}

func canonicalAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', 2, 64)
}
