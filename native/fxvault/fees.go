package fxvault

import "math/big"

// feeBandPercents returns the rebalancer and protocol percentages of the
// total fee for the supplied vault health. Bands are tested in descending
// order; the first match wins. Together with the fixed 70% LP share the
// percentages always sum to 100.
func feeBandPercents(health *big.Rat) (rebalancerPct, protocolPct uint64) {
	if health == nil {
		health = new(big.Rat)
	}
	switch {
	case health.Cmp(big.NewRat(70, 100)) > 0:
		return 15, 15
	case health.Cmp(big.NewRat(50, 100)) > 0:
		return 20, 10
	case health.Cmp(big.NewRat(30, 100)) > 0:
		return 25, 5
	default:
		return 30, 0
	}
}

// SplitFees divides a fee amount between liquidity providers, the
// rebalancing treasury, and the protocol. LPs always receive 70%; the
// remaining 30% is split by vault health, shifting toward the rebalancing
// treasury as imbalance deepens.
//
// Shares are computed with truncating integer division and the remainder is
// assigned to the LP share, so the three shares sum to the input exactly for
// every amount.
func SplitFees(total *big.Int, health *big.Rat) (FeeSplit, error) {
	if total == nil || total.Sign() < 0 {
		return FeeSplit{}, ErrInvalidAmount
	}
	rebalancerPct, protocolPct := feeBandPercents(health)

	lp := percentOf(total, LPFeePercent)
	rebalancer := percentOf(total, rebalancerPct)
	protocol := percentOf(total, protocolPct)

	remainder := new(big.Int).Set(total)
	remainder.Sub(remainder, lp)
	remainder.Sub(remainder, rebalancer)
	remainder.Sub(remainder, protocol)
	lp.Add(lp, remainder)

	return FeeSplit{LPShare: lp, RebalancerShare: rebalancer, ProtocolShare: protocol}, nil
}
