package fxvault

import "math/big"

// Oracle feeds publish prices as mantissa*10^expo. Conversions to PriceScale
// beyond this exponent distance would either overflow any sane rate or
// truncate it to nothing, so they are rejected outright.
const maxExpoDistance = 18

// PriceFromMantissa converts an oracle observation expressed as
// mantissa*10^expo into the engine's PriceScale fixed-point representation.
// Non-positive mantissas are rejected; scaling down truncates, and a price
// truncated to zero is rejected as precision loss rather than returned.
func PriceFromMantissa(mantissa int64, expo int32) (*big.Int, error) {
	if mantissa <= 0 {
		return nil, ErrInvalidPrice
	}
	// PriceScale is 10^9, so the scaled price is mantissa*10^(9+expo).
	shift := int64(9) + int64(expo)
	if shift > maxExpoDistance || shift < -maxExpoDistance {
		return nil, ErrPriceOverflow
	}
	price := big.NewInt(mantissa)
	if shift >= 0 {
		price.Mul(price, pow10(shift))
	} else {
		price.Quo(price, pow10(-shift))
	}
	if price.Sign() <= 0 {
		return nil, ErrPriceOverflow
	}
	return price, nil
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

// PriceFromRat converts an exchange rate expressed as a rational into the
// PriceScale representation, truncating. Rates that are non-positive or
// truncate to zero are rejected.
func PriceFromRat(rate *big.Rat) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	price := new(big.Int).Mul(rate.Num(), big.NewInt(PriceScale))
	price.Quo(price, rate.Denom())
	if price.Sign() <= 0 {
		return nil, ErrPriceOverflow
	}
	return price, nil
}
