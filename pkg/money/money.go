// Package money implements integer-cents currency arithmetic. Every amount
// that crosses a trust boundary is an int64 number of minor units; floating
// point only appears transiently inside rounding helpers.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// ErrInvalidMoneyInput reports malformed or non-finite numeric input.
var ErrInvalidMoneyInput = errors.New("invalid_money_input")

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMoneyInput, fmt.Sprintf(format, args...))
}

// ParseCents converts heterogeneous user input into exact cents.
//
// Accepted forms: int/int64 (major units), float64 (major units, rounded half
// away from zero), and strings with an optional sign, optional currency symbol
// (EUR, USD, GBP, JPY), grouping separators, and a decimal separator of either
// `.` or `,` followed by one or two fraction digits.
func ParseCents(input any) (int64, error) {
	switch v := input.(type) {
	case int:
		return int64(v) * 100, nil
	case int64:
		return v * 100, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, invalidInput("non-finite number")
		}
		return roundHalfAway(v * 100), nil
	case string:
		return parseString(v)
	default:
		return 0, invalidInput("unsupported type %T", input)
	}
}

func parseString(raw string) (int64, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
		case r == '\u20ac' || r == '$' || r == '\u00a3' || r == '\u00a5':
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return 0, invalidInput("empty amount")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, invalidInput("empty amount %q", raw)
	}

	intPart, fracPart, err := splitAmount(s, raw)
	if err != nil {
		return 0, err
	}

	cents := int64(0)
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return 0, invalidInput("unexpected character %q in %q", r, raw)
		}
		if cents > (math.MaxInt64-int64(r-'0'))/10 {
			return 0, invalidInput("amount overflows %q", raw)
		}
		cents = cents*10 + int64(r-'0')
	}
	if cents > math.MaxInt64/100 {
		return 0, invalidInput("amount overflows %q", raw)
	}
	cents *= 100

	switch len(fracPart) {
	case 0:
	case 1, 2:
		for _, r := range fracPart {
			if r < '0' || r > '9' {
				return 0, invalidInput("unexpected character %q in %q", r, raw)
			}
		}
		frac := int64(fracPart[0]-'0') * 10
		if len(fracPart) == 2 {
			frac += int64(fracPart[1] - '0')
		}
		cents += frac
	default:
		return 0, invalidInput("too many fraction digits in %q", raw)
	}

	if negative {
		cents = -cents
	}
	return cents, nil
}

// splitAmount separates the integer digits from the fraction digits, removing
// grouping separators. When both `.` and `,` appear the rightmost one is the
// decimal separator; a lone separator followed by exactly three digits is
// treated as grouping.
func splitAmount(s, raw string) (string, string, error) {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		decIdx := lastDot
		group := byte(',')
		if lastComma > lastDot {
			decIdx = lastComma
			group = '.'
		}
		intPart := strings.ReplaceAll(s[:decIdx], string(group), "")
		if strings.ContainsAny(intPart, ".,") {
			return "", "", invalidInput("conflicting separators in %q", raw)
		}
		frac := s[decIdx+1:]
		if len(frac) < 1 || len(frac) > 2 {
			return "", "", invalidInput("expected 1-2 fraction digits in %q", raw)
		}
		return intPart, frac, nil

	case lastDot >= 0 || lastComma >= 0:
		sep := byte('.')
		if lastComma >= 0 {
			sep = ','
		}
		parts := strings.Split(s, string(sep))
		if len(parts) == 2 {
			frac := parts[1]
			if len(frac) == 3 && parts[0] != "" {
				// "1.234" style grouping, no decimal part.
				return parts[0] + frac, "", nil
			}
			if len(frac) < 1 || len(frac) > 2 {
				return "", "", invalidInput("expected 1-2 fraction digits in %q", raw)
			}
			return parts[0], frac, nil
		}
		// "1.234.567" style grouping.
		for i, p := range parts {
			if p == "" || (i > 0 && len(p) != 3) {
				return "", "", invalidInput("malformed grouping in %q", raw)
			}
		}
		return strings.Join(parts, ""), "", nil

	default:
		return s, "", nil
	}
}

// Multiply computes unitCents*qty rounded to the nearest cent. Fractional
// quantities are supported.
func Multiply(unitCents int64, qty float64) (int64, error) {
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 0, invalidInput("non-finite quantity")
	}
	return roundHalfAway(float64(unitCents) * qty), nil
}

// PercentOf computes pct percent of cents, rounded to the nearest cent.
func PercentOf(cents int64, pct float64) (int64, error) {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, invalidInput("non-finite percentage")
	}
	return roundHalfAway(float64(cents) * pct / 100), nil
}

// Sum adds cent values.
func Sum(values []int64) int64 {
	var total int64
	for _, v := range values {
		total += v
	}
	return total
}

// SumValues adds float64 cent values, rejecting any non-integral element
// rather than silently truncating.
func SumValues(values []float64) (int64, error) {
	var total int64
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, invalidInput("element %d is not integer cents", i)
		}
		total += int64(v)
	}
	return total, nil
}

// Negate flips the sign of a cent value. Zero stays exactly zero.
func Negate(cents int64) int64 {
	return -cents
}

func roundHalfAway(v float64) int64 {
	if v >= 0 {
		return int64(math.Floor(v + 0.5))
	}
	return int64(math.Ceil(v - 0.5))
}
