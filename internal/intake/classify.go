package intake

import "strings"

var amountNoise = strings.NewReplacer("$", "", ",", "")

// IsIgnorable reports whether a row is a subtotal/footer or carries no data.
// A row is ignorable when any cell mentions "total", or when every cell,
// with currency symbols and separators removed, is blank, "-" or "0".
func IsIgnorable(cells []string) bool {
	for _, v := range cells {
		if strings.Contains(strings.ToLower(v), "total") {
			return true
		}
	}
	for _, v := range cells {
		switch strings.TrimSpace(amountNoise.Replace(v)) {
		case "", "-", "0":
		default:
			return false
		}
	}
	return true
}
