package money_test

import (
	"testing"

	"github.com/smallbiznis/faktura/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCentsStrings(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"12,50", 1250},
		{"12.50", 1250},
		{"€ 12.50", 1250},
		{"$0.05", 5},
		{"£1", 100},
		{"0", 0},
		{"7", 700},
		{"1.234,56", 123456},
		{"1,234.56", 123456},
		{"1.234", 123400},
		{"1.234.567", 123456700},
		{"-12,5", -1250},
		{"+3,1", 310},
		{" 99 ", 9900},
	}
	for _, tc := range cases {
		got, err := money.ParseCents(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseCentsNumbers(t *testing.T) {
	got, err := money.ParseCents(12)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), got)

	got, err = money.ParseCents(12.34)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got)

	// 0.125 is exactly representable, so this exercises the half-away rule.
	got, err = money.ParseCents(0.125)
	require.NoError(t, err)
	assert.Equal(t, int64(13), got)

	got, err = money.ParseCents(-0.125)
	require.NoError(t, err)
	assert.Equal(t, int64(-13), got)
}

func TestParseCentsRejectsGarbage(t *testing.T) {
	for _, in := range []any{"abc", "", "12,345,6", "1..2", "12.3456", []byte("12"), true} {
		_, err := money.ParseCents(in)
		assert.ErrorIs(t, err, money.ErrInvalidMoneyInput, "input %v", in)
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "1.234,56 €", money.FormatCents(123456, "EUR", "de-DE"))
	assert.Equal(t, "$1,234.56", money.FormatCents(123456, "USD", "en-US"))
	assert.Equal(t, "-0,01 €", money.FormatCents(-1, "EUR", "de-DE"))
	assert.Equal(t, "¥1,234", money.FormatCents(1234, "JPY", "ja-JP"))
}

func TestFormatCentsValueRejectsFractions(t *testing.T) {
	_, err := money.FormatCentsValue(10.5, "EUR", "de-DE")
	assert.ErrorIs(t, err, money.ErrInvalidMoneyInput)

	s, err := money.FormatCentsValue(1000, "EUR", "de-DE")
	require.NoError(t, err)
	assert.Equal(t, "10,00 €", s)
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 123456, 100000000, -1250} {
		formatted := money.FormatCents(cents, "EUR", "de-DE")
		back, err := money.ParseCents(formatted)
		require.NoError(t, err, "formatted %q", formatted)
		assert.Equal(t, cents, back, "formatted %q", formatted)
	}
}

func TestMultiplyMatchesRepeatedSum(t *testing.T) {
	unit := int64(333)
	product, err := money.Multiply(unit, 7)
	require.NoError(t, err)

	values := make([]int64, 7)
	for i := range values {
		values[i] = unit
	}
	assert.Equal(t, money.Sum(values), product)

	half, err := money.Multiply(999, 0.5)
	require.NoError(t, err)
	assert.Equal(t, int64(500), half)
}

func TestPercentOf(t *testing.T) {
	v, err := money.PercentOf(10000, 19)
	require.NoError(t, err)
	assert.Equal(t, int64(1900), v)

	v, err = money.PercentOf(333, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(167), v)
}

func TestNegateZero(t *testing.T) {
	assert.Equal(t, int64(0), money.Negate(0))
	assert.Equal(t, int64(-500), money.Negate(500))
}

func TestSumValuesRejectsNonIntegral(t *testing.T) {
	_, err := money.SumValues([]float64{100, 0.5})
	assert.ErrorIs(t, err, money.ErrInvalidMoneyInput)

	total, err := money.SumValues([]float64{100, 250})
	require.NoError(t, err)
	assert.Equal(t, int64(350), total)
}
