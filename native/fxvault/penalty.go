package fxvault

import "math/big"

// WithdrawalPenaltyBps returns the early-withdrawal penalty rate for a
// position deposited at depositTime and withdrawn at now, both unix seconds
// supplied explicitly by the caller. The schedule is a non-increasing step
// function of elapsed time: 2.00% under 60 hours, then 1.50%, 1.00%, 0.50%,
// and zero from 240 hours on. A clock that appears to run backwards is
// treated as zero elapsed time and charged at the maximum tier.
func WithdrawalPenaltyBps(depositTime, now int64) uint64 {
	elapsed := now - depositTime
	if elapsed < 0 {
		elapsed = 0
	}
	switch {
	case elapsed < hours60:
		return withdrawalTier1Bps
	case elapsed < hours120:
		return withdrawalTier2Bps
	case elapsed < hours180:
		return withdrawalTier3Bps
	case elapsed < hours240:
		return withdrawalTier4Bps
	default:
		return 0
	}
}

// WithdrawalPenalty applies the penalty schedule to a withdrawn principal,
// truncating. The full penalty routes to the rebalancing treasury; LPs and
// the protocol receive no share of it.
func WithdrawalPenalty(amount *big.Int, depositTime, now int64) *big.Int {
	return bpsOf(amount, WithdrawalPenaltyBps(depositTime, now))
}
