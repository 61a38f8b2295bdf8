package intake

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// parseAmount reads the longest numeric prefix of s ("12.5abc" is 12.5).
// Anything without a numeric prefix, and zero itself, yields 0.
func parseAmount(s string) float64 {
	s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '\ufeff' })
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0
	}
	if strings.HasSuffix(m, "Infinity") {
		if strings.HasPrefix(m, "-") {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
			return 0
		}
	}
	if f == 0 || math.IsNaN(f) {
		return 0
	}
	return f
}

// round2 rounds to two decimals with ties toward positive infinity, so
// -0.125 becomes -0.12 rather than -0.13. The product is taken in binary
// floating point: a value printed as 1.005 is stored slightly below the tie
// and rounds to 1.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// formatAmount renders x in its shortest round-trip form.
func formatAmount(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	case x == 0:
		return "0"
	case math.Abs(x) >= 1e21:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
}
