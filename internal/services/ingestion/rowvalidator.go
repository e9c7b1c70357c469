package ingestion

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRow is one externally supplied row before validation.
type RawRow struct {
	Date          string `json:"date"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	CategoryLabel string `json:"category"`
}

// Candidate is a validated row ready for classification and insert.
type Candidate struct {
	Date          time.Time
	Description   string
	Amount        float64
	CategoryLabel string
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", time.RFC3339}

// ValidateRow parses one raw row into a candidate. A row with an
// unparseable date or amount is dropped, not fatal: ok is false and the
// batch continues.
func ValidateRow(row RawRow) (Candidate, bool) {
	date, err := parseDate(row.Date)
	if err != nil {
		return Candidate{}, false
	}
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return Candidate{}, false
	}
	return Candidate{
		Date:          date,
		Description:   row.Description,
		Amount:        amount,
		CategoryLabel: strings.TrimSpace(row.CategoryLabel),
	}, true
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// parseAmount converts a string like "1,234.56" to float64.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, strconv.ErrRange
	}
	return f, nil
}
