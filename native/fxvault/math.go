package fxvault

import "math/big"

// mulDiv computes trunc(a * b / den). Division by zero or a negative
// denominator yields zero; callers validate their inputs beforehand.
func mulDiv(a, b, den *big.Int) *big.Int {
	if a == nil || b == nil || den == nil || den.Sign() <= 0 {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, den)
}

// bpsOf applies a basis-point rate to an amount, truncating.
func bpsOf(amount *big.Int, bps uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	return mulDiv(amount, new(big.Int).SetUint64(bps), big.NewInt(bpsDenominator))
}

// percentOf applies a whole-percent rate to an amount, truncating.
func percentOf(amount *big.Int, pct uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || pct == 0 {
		return big.NewInt(0)
	}
	return mulDiv(amount, new(big.Int).SetUint64(pct), big.NewInt(100))
}

// ratMulTrunc computes trunc(amount * r) for a non-negative rational factor.
func ratMulTrunc(amount *big.Int, r *big.Rat) *big.Int {
	if amount == nil || r == nil || r.Sign() <= 0 {
		return big.NewInt(0)
	}
	return mulDiv(amount, r.Num(), r.Denom())
}

// ratRoundHalfAway rounds a non-negative rational to the nearest integer,
// halves away from zero.
func ratRoundHalfAway(r *big.Rat) uint64 {
	if r == nil || r.Sign() <= 0 {
		return 0
	}
	num := new(big.Int).Lsh(r.Num(), 1) // 2*num
	num.Add(num, r.Denom())             // 2*num + den
	den := new(big.Int).Lsh(r.Denom(), 1)
	num.Quo(num, den) // floor((2n+d)/2d) == round-half-up for positives
	return num.Uint64()
}
