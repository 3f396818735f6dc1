package staking

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

/*
Amounts exist in two forms: the decimal string a user types and the
integer the contracts consume, scaled by the token's decimal exponent.
Everything that leaves this package towards a contract is scaled,
everything that leaves towards the API is decimal.
*/

//ParseAmount parse a user entered amount, it must be a positive finite decimal
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, newError(KindInvalidAmount, "amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, wrapError(KindInvalidAmount, "amount is not a number", err)
	}
	if d.Sign() <= 0 {
		return decimal.Zero, newError(KindInvalidAmount, "amount must be positive")
	}
	return d, nil
}

//Scale convert a decimal amount to the on chain integer form,
//digits finer than the token's exponent are truncated, never rounded up
func Scale(d decimal.Decimal, decimals uint8) *big.Int {
	return d.Shift(int32(decimals)).Truncate(0).BigInt()
}

//Descale convert a scaled integer back to its decimal string form
func Descale(b *big.Int, decimals uint8) string {
	if b == nil {
		return "0"
	}
	return decimal.NewFromBigInt(b, -int32(decimals)).String()
}
