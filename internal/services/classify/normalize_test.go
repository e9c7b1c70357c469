package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDescription(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "COFFEE SHOP", "coffee shop"},
		{"trims", "  rent  ", "rent"},
		{"collapses runs", "coffee \t  shop\n downtown", "coffee shop downtown"},
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"already normal", "coffee shop", "coffee shop"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, NormalizeDescription(tc.in))
		})
	}
}
