package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildDuplicateKeyForm(t *testing.T) {
	t.Parallel()

	key := BuildDuplicateKey("Coffee Shop", day(2024, time.January, 5), 4.5)
	require.Equal(t, "coffee shop__2024-01-05__4.50", key)
}

func TestBuildDuplicateKeyCaseAndWhitespaceInvariant(t *testing.T) {
	t.Parallel()

	date := day(2024, time.January, 5)
	base := BuildDuplicateKey("coffee shop", date, 4.5)
	require.Equal(t, base, BuildDuplicateKey("COFFEE SHOP", date, 4.5))
	require.Equal(t, base, BuildDuplicateKey("  Coffee   Shop\t", date, 4.5))
	require.Equal(t, base, BuildDuplicateKey("coffee\nshop", date, 4.5))
}

func TestBuildDuplicateKeyAmountCanonicalization(t *testing.T) {
	t.Parallel()

	date := day(2024, time.March, 1)
	// "5" and "5.00" must dedupe together regardless of source formatting.
	require.Equal(t,
		BuildDuplicateKey("rent", date, 5),
		BuildDuplicateKey("rent", date, 5.00),
	)
	require.NotEqual(t,
		BuildDuplicateKey("rent", date, 5),
		BuildDuplicateKey("rent", date, 5.01),
	)
	require.Equal(t, "rent__2024-03-01__-12.30", BuildDuplicateKey("rent", date, -12.3))
}

func TestBuildDuplicateKeyDropsTimeOfDay(t *testing.T) {
	t.Parallel()

	morning := time.Date(2024, time.June, 9, 8, 15, 0, 0, time.UTC)
	evening := time.Date(2024, time.June, 9, 22, 40, 11, 0, time.UTC)
	require.Equal(t,
		BuildDuplicateKey("lunch", morning, 12),
		BuildDuplicateKey("lunch", evening, 12),
	)
}

func TestBuildDuplicateKeyDistinguishesParts(t *testing.T) {
	t.Parallel()

	date := day(2024, time.January, 5)
	base := BuildDuplicateKey("coffee", date, 4.5)
	require.NotEqual(t, base, BuildDuplicateKey("tea", date, 4.5))
	require.NotEqual(t, base, BuildDuplicateKey("coffee", day(2024, time.January, 6), 4.5))
	require.NotEqual(t, base, BuildDuplicateKey("coffee", date, 4.51))
}
