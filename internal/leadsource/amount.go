package leadsource

import (
	"math"
	"strconv"
	"strings"
)

var amountSuffixes = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

// ParseAmount reads a human-written number such as "12,345", "$1.2M", or
// "500k". It reports false for blanks and anything unparseable.
func ParseAmount(s string) (float64, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	mult := 1.0
	if m, ok := amountSuffixes[s[len(s)-1]]; ok {
		mult = m
		s = s[:len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	v *= mult
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseCount reads a whole-number field such as employee count or rank.
func parseCount(s string) (int, bool) {
	v, ok := ParseAmount(s)
	if !ok || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(math.Round(v)), true
}

// parseFlag reads yes/no style booleans. Unrecognised values are unknown.
func parseFlag(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}
