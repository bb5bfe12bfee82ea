package frame

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders a float the way python's repr does, the shortest
// representation that parses back to the same value, always with a decimal
// point or exponent (100 -> "100.0", 1e16 -> "1e+16"). NaN is an empty cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	out := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}
