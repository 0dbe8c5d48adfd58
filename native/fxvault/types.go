package fxvault

import "math/big"

// Treasury identifiers used by the ledger. The rebalancing treasury funds
// liquidity injections and collects withdrawal penalties; the protocol
// treasury collects its fee share.
const (
	TreasuryRebalancer = "rebalancer"
	TreasuryProtocol   = "protocol"
)

// Vault is a per-currency pool of deposited value. Balance counts the active
// liquidity; AccruedFees holds swap fees pending distribution and is tracked
// outside Balance so the two never double count. Amounts are integers in the
// smallest currency unit. A vault is created on first deposit and never
// destroyed.
type Vault struct {
	Currency    string
	Balance     *big.Int
	AccruedFees *big.Int
}

// Clone returns a deep copy so callers cannot mutate shared pointers.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}
	clone := &Vault{Currency: v.Currency}
	if v.Balance != nil {
		clone.Balance = new(big.Int).Set(v.Balance)
	}
	if v.AccruedFees != nil {
		clone.AccruedFees = new(big.Int).Set(v.AccruedFees)
	}
	return clone
}

// LPPosition records one provider's deposit into one vault. Repeated
// deposits merge into the same position with a weighted-average timestamp so
// the withdrawal penalty schedule stays fair across top-ups. RewardAccrued
// holds distributed fee shares awaiting claim.
type LPPosition struct {
	Owner         string
	Vault         string
	Amount        *big.Int
	DepositTime   int64
	RewardAccrued *big.Int
}

// Clone returns a deep copy of the position.
func (p *LPPosition) Clone() *LPPosition {
	if p == nil {
		return nil
	}
	clone := &LPPosition{Owner: p.Owner, Vault: p.Vault, DepositTime: p.DepositTime}
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	}
	if p.RewardAccrued != nil {
		clone.RewardAccrued = new(big.Int).Set(p.RewardAccrued)
	}
	return clone
}

// SwapQuote is the ephemeral result of pricing one swap. AmountOut is net of
// the spread fee; AmountOutWithoutFees is the drift-adjusted gross.
// PriceImpactPct compares the net output against the undrifted, oracle-only
// gross amount, expressed in percent.
type SwapQuote struct {
	AmountIn             *big.Int
	AmountOut            *big.Int
	AmountOutWithoutFees *big.Int
	SpreadBps            uint64
	Drift                *big.Rat
	FeeAmount            *big.Int
	AdjustedPrice        *big.Int
	PriceImpactPct       *big.Rat
	Health               *big.Rat
}

// FeeSplit is the exact three-way division of a fee amount. The shares
// always sum to the input; any truncation remainder is assigned to LPShare.
type FeeSplit struct {
	LPShare         *big.Int
	RebalancerShare *big.Int
	ProtocolShare   *big.Int
}

// Total returns the sum of the three shares.
func (s FeeSplit) Total() *big.Int {
	total := big.NewInt(0)
	if s.LPShare != nil {
		total.Add(total, s.LPShare)
	}
	if s.RebalancerShare != nil {
		total.Add(total, s.RebalancerShare)
	}
	if s.ProtocolShare != nil {
		total.Add(total, s.ProtocolShare)
	}
	return total
}

// RebalanceDirective instructs the ledger to inject liquidity into a
// deficient vault. The directive carries the balance snapshot it was
// computed from; application is refused if the vault has since moved, which
// makes re-evaluation before commit idempotent.
type RebalanceDirective struct {
	VaultID         string
	InjectionAmount *big.Int
	Band            RebalanceBand

	// Snapshot of the measured balances backing this directive.
	VaultBalance   *big.Int
	CounterBalance *big.Int
}

// RebalanceBand labels the health band that triggered a directive.
type RebalanceBand string

const (
	// BandMild covers health in (0.40, 0.50]: inject 30% of the deficit.
	BandMild RebalanceBand = "mild"
	// BandModerate covers health in (0.30, 0.40]: inject 50% of the deficit.
	BandModerate RebalanceBand = "moderate"
	// BandSevere covers health in (0.20, 0.30]: inject 75% of the deficit.
	BandSevere RebalanceBand = "severe"
)

// WithdrawReceipt summarises an executed withdrawal. Paid is the principal
// net of penalty; the penalty is routed to the rebalancing treasury.
type WithdrawReceipt struct {
	Amount     *big.Int
	PenaltyBps uint64
	Penalty    *big.Int
	Paid       *big.Int
}

// SwapReceipt summarises an executed swap.
type SwapReceipt struct {
	Quote          *SwapQuote
	SourceCurrency string
	TargetCurrency string
}
