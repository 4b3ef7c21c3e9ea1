package lottery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency symbols, thousands separators and any whitespace (incl. nbsp).
var moneyNoiseRegex = regexp.MustCompile(`[$€£,\s\x{00a0}]`)

// "1 in 4.50", "1:4.5", "1 in 1,200"
var oddsPrefixRegex = regexp.MustCompile(`(?i)^\s*1\s*(?:in|:)\s*`)

// ParseCurrency parses a money cell such as "$1,000" or "€5.50".
func ParseCurrency(s string) (decimal.Decimal, error) {
	clean := moneyNoiseRegex.ReplaceAllString(s, "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount %q", s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// ParseOdds parses an odds cell; both "1 in 4.5" and "4.5" are accepted.
func ParseOdds(s string) (decimal.Decimal, error) {
	clean := oddsPrefixRegex.ReplaceAllString(s, "")
	clean = moneyNoiseRegex.ReplaceAllString(clean, "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty odds %q", s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid odds %q: %w", s, err)
	}
	return d, nil
}

// ParseCount parses a whole-number prize count such as "1,250".
func ParseCount(s string) (int64, error) {
	clean := moneyNoiseRegex.ReplaceAllString(s, "")
	if clean == "" {
		return 0, fmt.Errorf("empty count %q", s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", s, err)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("count %q is not a whole number", s)
	}
	return d.IntPart(), nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
