package money

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for every currency amount.
const Places = 2

// MaxExponent bounds the scientific exponent accepted in form input. Larger
// exponents would make rounding and formatting cost grow without limit.
const MaxExponent = 15

var (
	leadingDecimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)(?:[eE]([+-]?\d+))?`)
	leadingInteger = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseAmount converts untyped form input into a currency amount rounded to two
// decimal places. Only the leading numeric prefix is read ("12.5 USD" -> 12.50).
// Input without a numeric prefix, or with an exponent beyond MaxExponent,
// resolves to fallback.
func ParseAmount(raw string, fallback decimal.Decimal) decimal.Decimal {
	m := leadingDecimal.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return fallback.Round(Places)
	}
	if m[2] != "" {
		exp, err := strconv.Atoi(m[2])
		if err != nil || exp > MaxExponent || exp < -MaxExponent {
			return fallback.Round(Places)
		}
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(m[0], "."))
	if err != nil {
		return fallback.Round(Places)
	}
	return d.Round(Places)
}

// ParseQuantity reads the leading base-10 integer of raw ("3 boxes" -> 3, "2.5" -> 2).
func ParseQuantity(raw string, fallback int) int {
	prefix := leadingInteger.FindString(strings.TrimSpace(raw))
	if prefix == "" {
		return fallback
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return fallback
	}
	return n
}

// Format renders an amount with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
