package staking

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("123.45")
	assert.Nil(t, err)
	assert.Equal(t, "123.45", d.String())

	d, err = ParseAmount("  0.5 ")
	assert.Nil(t, err)
	assert.Equal(t, "0.5", d.String())

	for _, s := range []string{"", "   ", "abc", "12,5", "1e", "--3"} {
		_, err = ParseAmount(s)
		assert.Equal(t, KindInvalidAmount, KindOf(err), "input %q", s)
	}
	for _, s := range []string{"0", "-1", "-0.0001"} {
		_, err = ParseAmount(s)
		assert.Equal(t, KindInvalidAmount, KindOf(err), "input %q", s)
	}
}

func TestScaleDescaleRoundTrip(t *testing.T) {
	d, err := ParseAmount("12.345")
	assert.Nil(t, err)
	scaled := Scale(d, 18)
	expect, _ := new(big.Int).SetString("12345000000000000000", 10)
	assert.Equal(t, 0, scaled.Cmp(expect))
	assert.Equal(t, "12.345", Descale(scaled, 18))
}

func TestScaleTruncates(t *testing.T) {
	// digits finer than the token exponent are dropped, not rounded
	d := decimal.RequireFromString("1.0000009")
	scaled := Scale(d, 6)
	assert.Equal(t, int64(1000000), scaled.Int64())
}

func TestDescaleNil(t *testing.T) {
	assert.Equal(t, "0", Descale(nil, 18))
}
