package analysis

import (
	"strconv"
	"strings"
)

// PriceValue parses a "PHP 1,234,567" price string into a number. ok is
// false when nothing parseable remains.
func PriceValue(price string) (float64, bool) {
	s := strings.ReplaceAll(price, "PHP", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SizeValue parses an "89 sqm" size string into a number. ok is false when
// nothing parseable remains.
func SizeValue(size string) (float64, bool) {
	s := strings.ReplaceAll(size, "sqm", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
