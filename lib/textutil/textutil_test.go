package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "Andorra", expected: "andorra"},
		{in: "  andorra\n", expected: "andorra"},
		{in: "United\t\tKingdom", expected: "united kingdom"},
		{in: "Cote\u0000 d'Ivoire", expected: "cote d'ivoire"},
		{in: "", expected: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, NormalizeName(test.in), test.in)
	}
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("Step 3: Medical Examination", []string{"step", "fee"}))
	require.False(t, MatchName("Overview", []string{"step", "fee"}))
}
