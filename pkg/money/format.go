package money

import (
	"strconv"
	"strings"
)

type currencyInfo struct {
	symbol   string
	decimals int
}

var currencies = map[string]currencyInfo{
	"EUR": {symbol: "€", decimals: 2},
	"USD": {symbol: "$", decimals: 2},
	"GBP": {symbol: "£", decimals: 2},
	"JPY": {symbol: "¥", decimals: 0},
}

type localeInfo struct {
	decimalSep   string
	groupSep     string
	symbolBefore bool
	symbolSpace  bool
}

var locales = map[string]localeInfo{
	"de-DE": {decimalSep: ",", groupSep: ".", symbolBefore: false, symbolSpace: true},
	"fr-FR": {decimalSep: ",", groupSep: " ", symbolBefore: false, symbolSpace: true},
	"en-US": {decimalSep: ".", groupSep: ",", symbolBefore: true},
	"en-GB": {decimalSep: ".", groupSep: ",", symbolBefore: true},
	"ja-JP": {decimalSep: ".", groupSep: ",", symbolBefore: true},
}

// FormatCents renders integer cents as a display string with locale-aware
// separators and currency symbol placement. Unknown currencies fall back to
// the ISO code, unknown locales to en-US conventions.
func FormatCents(cents int64, currency, locale string) string {
	cur, ok := currencies[strings.ToUpper(strings.TrimSpace(currency))]
	if !ok {
		cur = currencyInfo{symbol: strings.ToUpper(strings.TrimSpace(currency)), decimals: 2}
	}
	loc, ok := locales[strings.TrimSpace(locale)]
	if !ok {
		loc = locales["en-US"]
	}

	negative := cents < 0
	magnitude := cents
	if negative {
		magnitude = -magnitude
	}

	var intPart, fracPart string
	if cur.decimals == 0 {
		intPart = strconv.FormatInt(magnitude, 10)
	} else {
		intPart = strconv.FormatInt(magnitude/100, 10)
		fracPart = loc.decimalSep + pad2(magnitude%100)
	}

	number := groupDigits(intPart, loc.groupSep) + fracPart
	if negative {
		number = "-" + number
	}

	if loc.symbolBefore {
		return cur.symbol + number
	}
	if loc.symbolSpace {
		return number + " " + cur.symbol
	}
	return number + cur.symbol
}

// FormatCentsValue is the float64 entry point used where amounts arrive from
// JSON. It rejects non-integral cents instead of truncating.
func FormatCentsValue(cents float64, currency, locale string) (string, error) {
	if cents != float64(int64(cents)) {
		return "", invalidInput("cents %v is not an integer", cents)
	}
	return FormatCents(int64(cents), currency, locale), nil
}

func pad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

func groupDigits(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
