package fxvault

import "math/big"

// PriceScale is the fixed-point scaling factor for oracle prices. A rate of
// 1 EUR = 1.1 USD is therefore represented as 1_100_000_000.
const PriceScale = 1_000_000_000

// Spread limits in basis points. The floor applies whenever the vault pair is
// balanced; the ceiling caps the imbalance surcharge.
const (
	MinSpreadBps uint64 = 3
	MaxSpreadBps uint64 = 50
)

// LPFeePercent is the share of every swap fee routed to liquidity providers.
// The remaining 30% is split between the rebalancing treasury and the
// protocol according to the vault-health bands in fees.go.
const LPFeePercent uint64 = 70

// Slope factors for the spread and drift curves, expressed in percent. Both
// are exact rationals so the curves evaluate identically everywhere.
var (
	spreadSlopePct = big.NewRat(2833, 10000) // 0.2833% per unit of health below the knee
	driftSlopePct  = big.NewRat(8333, 10000) // 0.8333% per unit of health below the knee

	// healthKnee is the health level above which pricing is flat: floor
	// spread, zero drift.
	healthKnee = big.NewRat(9, 10)

	minSpreadPct = new(big.Rat).SetFrac64(int64(MinSpreadBps), 100)
)

// Withdrawal penalty schedule. Each band is left-closed on elapsed time since
// deposit; the penalty is charged in basis points on the withdrawn principal
// and routed in full to the rebalancing treasury.
const (
	withdrawalTier1Bps uint64 = 200 // under 60 hours
	withdrawalTier2Bps uint64 = 150 // under 120 hours
	withdrawalTier3Bps uint64 = 100 // under 180 hours
	withdrawalTier4Bps uint64 = 50  // under 240 hours
)

const (
	hours60  int64 = 60 * 60 * 60
	hours120 int64 = 120 * 60 * 60
	hours180 int64 = 180 * 60 * 60
	hours240 int64 = 240 * 60 * 60
)

const bpsDenominator = 10_000
