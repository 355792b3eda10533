// Package amount converts between human-decimal strings and fixed-point
// integer token units. String→integer truncates at the token's decimal
// precision; integer→string reproduces the exact truncated decimal.
package amount

import (
	"fmt"
	"math/big"
	"strings"

	"flowonarc/internal/model"
)

// ToBaseUnits parses a decimal string into integer base units for a
// token with the given decimal count, truncating any excess precision.
// Empty string and "0" yield zero without error.
func ToBaseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return big.NewInt(0), nil
	}

	whole, frac, err := splitDecimal(s)
	if err != nil {
		return nil, err
	}

	if len(frac) > int(decimals) {
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	digits := whole + frac
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidAmount, s)
	}
	return value, nil
}

// ToDecimalString formats integer base units as a decimal string,
// trimming trailing zeros. It is the exact inverse of ToBaseUnits up to
// truncation.
func ToDecimalString(v *big.Int, decimals uint8) string {
	if v == nil || v.Sign() == 0 {
		return "0"
	}

	sign := ""
	abs := new(big.Int).Abs(v)
	if v.Sign() < 0 {
		sign = "-"
	}
	if decimals == 0 {
		return sign + abs.String()
	}

	denom := pow10(decimals)
	whole := new(big.Int)
	rem := new(big.Int)
	whole.QuoRem(abs, denom, rem)
	if rem.Sign() == 0 {
		return sign + whole.String()
	}

	frac := fmt.Sprintf("%0*s", decimals, rem.String())
	frac = strings.TrimRight(frac, "0")
	return sign + whole.String() + "." + frac
}

// ScaleTo18 rescales base units from the token's decimal base to the
// 18-decimal base shared by all USD math.
func ScaleTo18(v *big.Int, decimals uint8) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	if decimals == model.USDDecimals {
		return new(big.Int).Set(v)
	}
	if decimals < model.USDDecimals {
		return new(big.Int).Mul(v, pow10(model.USDDecimals-decimals))
	}
	return new(big.Int).Quo(v, pow10(decimals-model.USDDecimals))
}

// ValueUSD computes amount × price as an 18-decimal USD value, where
// price is the 18-decimal price per whole token.
func ValueUSD(v *big.Int, price *big.Int, decimals uint8) *big.Int {
	if v == nil || price == nil {
		return big.NewInt(0)
	}
	usd := ScaleTo18(v, decimals)
	usd.Mul(usd, price)
	return usd.Quo(usd, pow10(model.USDDecimals))
}

// FromUSD converts an 18-decimal USD value back to base units of a
// token with the given 18-decimal price per whole token.
func FromUSD(usd *big.Int, price *big.Int, decimals uint8) *big.Int {
	if usd == nil || price == nil || price.Sign() == 0 {
		return big.NewInt(0)
	}
	scaled := new(big.Int).Mul(usd, pow10(model.USDDecimals))
	scaled.Quo(scaled, price)
	if decimals == model.USDDecimals {
		return scaled
	}
	if decimals < model.USDDecimals {
		return scaled.Quo(scaled, pow10(model.USDDecimals-decimals))
	}
	return scaled.Mul(scaled, pow10(decimals-model.USDDecimals))
}

// WholeUnit returns 10^decimals, one whole token in base units.
func WholeUnit(decimals uint8) *big.Int {
	return pow10(decimals)
}

func splitDecimal(s string) (whole string, frac string, err error) {
	parts := strings.SplitN(s, ".", 2)
	whole = parts[0]
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return "", "", fmt.Errorf("%w: %q", model.ErrInvalidAmount, s)
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return "", "", fmt.Errorf("%w: %q", model.ErrInvalidAmount, s)
	}
	return whole, frac, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
