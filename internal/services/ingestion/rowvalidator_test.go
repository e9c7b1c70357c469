package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateRow(t *testing.T) {
	t.Parallel()

	t.Run("valid row", func(t *testing.T) {
		t.Parallel()
		cand, ok := ValidateRow(RawRow{Date: "2024-01-05", Description: "Coffee Shop", Amount: "4.50", CategoryLabel: " Food "})
		require.True(t, ok)
		require.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), cand.Date)
		require.Equal(t, "Coffee Shop", cand.Description)
		require.InDelta(t, 4.5, cand.Amount, 1e-9)
		require.Equal(t, "Food", cand.CategoryLabel)
	})

	t.Run("dd-mm-yyyy date", func(t *testing.T) {
		t.Parallel()
		cand, ok := ValidateRow(RawRow{Date: "05-01-2024", Amount: "10"})
		require.True(t, ok)
		require.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), cand.Date)
	})

	t.Run("thousands separator in amount", func(t *testing.T) {
		t.Parallel()
		cand, ok := ValidateRow(RawRow{Date: "2024-01-05", Amount: "1,234.56"})
		require.True(t, ok)
		require.InDelta(t, 1234.56, cand.Amount, 1e-9)
	})

	t.Run("missing description defaults to empty", func(t *testing.T) {
		t.Parallel()
		cand, ok := ValidateRow(RawRow{Date: "2024-01-05", Amount: "5"})
		require.True(t, ok)
		require.Empty(t, cand.Description)
	})

	t.Run("bad date drops the row", func(t *testing.T) {
		t.Parallel()
		_, ok := ValidateRow(RawRow{Date: "not-a-date", Amount: "5"})
		require.False(t, ok)
	})

	t.Run("bad amount drops the row", func(t *testing.T) {
		t.Parallel()
		_, ok := ValidateRow(RawRow{Date: "2024-01-05", Amount: "five"})
		require.False(t, ok)
	})

	t.Run("empty row drops", func(t *testing.T) {
		t.Parallel()
		_, ok := ValidateRow(RawRow{})
		require.False(t, ok)
	})
}
