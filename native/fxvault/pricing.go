package fxvault

import "math/big"

// SpreadBps evaluates the spread curve for the supplied vault health and
// returns the fee rate in basis points. The curve is flat at the floor above
// the knee and rises linearly below it:
//
//	spread = max(floor, floor - slope * (health - 0.9))
//
// The percentage result is converted to integer basis points rounding half
// away from zero and clamped to [MinSpreadBps, MaxSpreadBps].
func SpreadBps(health *big.Rat) uint64 {
	if health == nil {
		health = new(big.Rat)
	}
	if health.Cmp(healthKnee) > 0 {
		return MinSpreadBps
	}
	// Below the knee the adjustment slope*(health-0.9) is negative, so the
	// spread grows by slope*(0.9-health) above the floor.
	gap := new(big.Rat).Sub(healthKnee, health)
	pct := new(big.Rat).Mul(spreadSlopePct, gap)
	pct.Add(pct, minSpreadPct)
	if pct.Cmp(minSpreadPct) < 0 {
		pct.Set(minSpreadPct)
	}
	bps := ratRoundHalfAway(new(big.Rat).Mul(pct, big.NewRat(100, 1)))
	if bps < MinSpreadBps {
		bps = MinSpreadBps
	}
	if bps > MaxSpreadBps {
		bps = MaxSpreadBps
	}
	return bps
}

// Drift evaluates the drift curve for the supplied vault health and returns
// the rate adjustment as a fraction (0.0065 == 0.65%). Drift is zero at and
// above the knee and grows linearly below it; the direction of the
// adjustment is applied by AdjustPrice.
func Drift(health *big.Rat) *big.Rat {
	if health == nil {
		health = new(big.Rat)
	}
	if health.Cmp(healthKnee) >= 0 {
		return new(big.Rat)
	}
	gap := new(big.Rat).Sub(healthKnee, health)
	frac := new(big.Rat).Mul(driftSlopePct, gap)
	frac.Quo(frac, big.NewRat(100, 1))
	if frac.Sign() < 0 {
		return new(big.Rat)
	}
	return frac
}

// AdjustPrice applies drift to the oracle price. A swap that delivers the
// source currency and receives the target (sourceToTarget) is worsening the
// imbalance it is priced against, so the rate is reduced; the opposite
// direction pays an increased rate. Imbalance-correcting trades therefore
// cross at a better price than imbalance-worsening ones.
func AdjustPrice(oraclePrice *big.Int, drift *big.Rat, sourceToTarget bool) *big.Int {
	if oraclePrice == nil {
		return big.NewInt(0)
	}
	adjustment := ratMulTrunc(oraclePrice, drift)
	adjusted := new(big.Int).Set(oraclePrice)
	if sourceToTarget {
		adjusted.Sub(adjusted, adjustment)
	} else {
		adjusted.Add(adjusted, adjustment)
	}
	return adjusted
}

// ComputeQuote prices a swap of amountIn against the supplied vault balances
// and oracle price. All amount arithmetic is integer fixed point: prices are
// scaled by PriceScale and divisions truncate, so identical inputs always
// produce identical outputs. The quote is ephemeral and never persisted.
//
// Zero balances are legitimate only before a vault's first liquidity; the
// health guard still yields a computable quote at the maximal spread and
// drift so callers can inspect the would-be rate, but the ledger refuses to
// execute swaps against an empty vault.
func ComputeQuote(amountIn, oraclePrice, sourceBalance, targetBalance *big.Int, sourceToTarget bool) (*SwapQuote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if oraclePrice == nil || oraclePrice.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if (sourceBalance != nil && sourceBalance.Sign() < 0) || (targetBalance != nil && targetBalance.Sign() < 0) {
		return nil, ErrInvalidBalance
	}

	health := Health(sourceBalance, targetBalance)
	spreadBps := SpreadBps(health)
	drift := Drift(health)
	adjusted := AdjustPrice(oraclePrice, drift, sourceToTarget)
	if adjusted.Sign() <= 0 {
		return nil, ErrPriceOverflow
	}

	scale := big.NewInt(PriceScale)
	var gross, undrifted *big.Int
	if sourceToTarget {
		gross = mulDiv(amountIn, adjusted, scale)
		undrifted = mulDiv(amountIn, oraclePrice, scale)
	} else {
		gross = mulDiv(amountIn, scale, adjusted)
		undrifted = mulDiv(amountIn, scale, oraclePrice)
	}

	fee := bpsOf(gross, spreadBps)
	net := new(big.Int).Sub(gross, fee)

	impact := new(big.Rat)
	if undrifted.Sign() > 0 {
		impact.SetFrac(new(big.Int).Sub(undrifted, net), undrifted)
		impact.Mul(impact, big.NewRat(100, 1))
	}

	return &SwapQuote{
		AmountIn:             new(big.Int).Set(amountIn),
		AmountOut:            net,
		AmountOutWithoutFees: gross,
		SpreadBps:            spreadBps,
		Drift:                drift,
		FeeAmount:            fee,
		AdjustedPrice:        adjusted,
		PriceImpactPct:       impact,
		Health:               health,
	}, nil
}
