package fxvault

import "math/big"

// Health measures the balance between two vaults as min/max of their
// balances. The result lies in [0, 1]: 1 means perfectly balanced, 0 means at
// least one side holds nothing. The zero guard doubles as the explicit
// "no liquidity" signal, so the function is total and never divides by zero.
// Health is symmetric in its arguments.
func Health(a, b *big.Int) *big.Rat {
	if a == nil || b == nil || a.Sign() <= 0 || b.Sign() <= 0 {
		return new(big.Rat)
	}
	lo, hi := a, b
	if lo.Cmp(hi) > 0 {
		lo, hi = hi, lo
	}
	return new(big.Rat).SetFrac(lo, hi)
}
