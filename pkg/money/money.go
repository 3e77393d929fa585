// Package money converts between the gateway's minor-unit integer amounts
// and the decimal major-unit amounts shown to clients. Amounts are carried
// as int64 minor units everywhere inside the system; binary floating point
// is never used to hold or accumulate currency.
package money

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseMajor parses a decimal major-unit string ("12.50", "20") into minor
// units (1250, 2000). At most two fractional digits are accepted.
func ParseMajor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount %q", s)
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two fractional digits", s)
	}
	for _, c := range frac {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
	}
	// pad "5" -> "50" so cents scale correctly
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	return units*100 + cents, nil
}

// FromNumber parses a JSON number (or numeric string) into minor units.
func FromNumber(n json.Number) (int64, error) {
	return ParseMajor(n.String())
}

// FormatMinor renders minor units as a major-unit decimal string:
// 1250 -> "12.50".
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// MajorFloat is for presentation only, never for arithmetic.
func MajorFloat(minor int64) float64 {
	return float64(minor) / 100
}
