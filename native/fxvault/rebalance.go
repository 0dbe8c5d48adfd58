package fxvault

import "math/big"

// injectionRate maps vault health to the percentage of the deficit the
// rebalancing treasury should inject. Bands are half-open on the left and
// closed on the right. Health above 0.50 needs no automatic action; health
// at or below 0.20 is deliberately excluded from automatic injection and
// surfaced as ErrHealthCritical so operators decide, never a silent no-op.
func injectionRate(health *big.Rat) (pct uint64, band RebalanceBand, err error) {
	if health == nil {
		health = new(big.Rat)
	}
	switch {
	case health.Cmp(big.NewRat(50, 100)) > 0:
		return 0, "", ErrRebalanceNotNeeded
	case health.Cmp(big.NewRat(40, 100)) > 0:
		return 30, BandMild, nil
	case health.Cmp(big.NewRat(30, 100)) > 0:
		return 50, BandModerate, nil
	case health.Cmp(big.NewRat(20, 100)) > 0:
		return 75, BandSevere, nil
	default:
		return 0, "", ErrHealthCritical
	}
}

// PlanInjection computes a rebalance directive for a vault measured at the
// supplied balances. The deficit is the amount needed to reach the counter
// vault's balance, max(0, counter - vault); the injected fraction of it is
// set by the health band. The returned directive binds the balance snapshot
// it was derived from, so a stale directive cannot be applied twice.
func PlanInjection(vaultID string, vaultBalance, counterBalance *big.Int) (*RebalanceDirective, error) {
	if vaultBalance == nil || vaultBalance.Sign() < 0 || counterBalance == nil || counterBalance.Sign() < 0 {
		return nil, ErrInvalidBalance
	}
	health := Health(vaultBalance, counterBalance)
	pct, band, err := injectionRate(health)
	if err != nil {
		return nil, err
	}
	deficit := new(big.Int).Sub(counterBalance, vaultBalance)
	if deficit.Sign() < 0 {
		deficit.SetInt64(0)
	}
	return &RebalanceDirective{
		VaultID:         vaultID,
		InjectionAmount: percentOf(deficit, pct),
		Band:            band,
		VaultBalance:    new(big.Int).Set(vaultBalance),
		CounterBalance:  new(big.Int).Set(counterBalance),
	}, nil
}
