package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	testCases := []struct {
		value    float64
		expected string
	}{
		{value: 100, expected: "100.0"},
		{value: 93, expected: "93.0"},
		{value: 402.62, expected: "402.62"},
		{value: 8200, expected: "8200.0"},
		{value: 0, expected: "0.0"},
		{value: -1.5, expected: "-1.5"},
		{value: 0.0001, expected: "0.0001"},
		{value: 0.00001, expected: "1e-05"},
		{value: 1e16, expected: "1e+16"},
		{value: math.NaN(), expected: ""},
		{value: math.Inf(1), expected: "inf"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, FormatFloat(test.value))
	}
}
