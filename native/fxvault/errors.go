package fxvault

import "errors"

var (
	// ErrInvalidAmount indicates a non-positive amount was supplied.
	ErrInvalidAmount = errors.New("fxvault: amount must be positive")
	// ErrInvalidPrice indicates a non-positive oracle price was supplied.
	ErrInvalidPrice = errors.New("fxvault: oracle price must be positive")
	// ErrInvalidBalance indicates a negative balance reached the pricing path.
	ErrInvalidBalance = errors.New("fxvault: balance must not be negative")
	// ErrPriceOverflow indicates a fixed-point conversion left the representable domain.
	ErrPriceOverflow = errors.New("fxvault: price conversion overflow")
	// ErrVaultNotFound indicates the referenced currency vault has not been initialised.
	ErrVaultNotFound = errors.New("fxvault: vault not found")
	// ErrPositionNotFound indicates the caller holds no position in the vault.
	ErrPositionNotFound = errors.New("fxvault: position not found")
	// ErrNoLiquidity indicates a swap was attempted against a vault that has
	// never received liquidity. Quotes remain computable at the maximal
	// spread and drift, but execution is refused.
	ErrNoLiquidity = errors.New("fxvault: vault has no liquidity")
	// ErrInsufficientLiquidity indicates the target vault cannot cover the swap output.
	ErrInsufficientLiquidity = errors.New("fxvault: insufficient liquidity in target vault")
	// ErrInsufficientPosition indicates a withdrawal exceeds the recorded deposit.
	ErrInsufficientPosition = errors.New("fxvault: withdrawal exceeds position")
	// ErrSlippageExceeded indicates the computed output fell below the caller's minimum.
	ErrSlippageExceeded = errors.New("fxvault: slippage tolerance exceeded")
	// ErrNoFeesAccrued indicates a distribution was requested with nothing pending.
	ErrNoFeesAccrued = errors.New("fxvault: no fees accrued")
	// ErrNoRewards indicates the position has no claimable reward share.
	ErrNoRewards = errors.New("fxvault: no rewards to claim")
	// ErrRebalanceNotNeeded indicates vault health is above the automatic
	// injection bands.
	ErrRebalanceNotNeeded = errors.New("fxvault: rebalance not needed")
	// ErrHealthCritical indicates vault health is at or below 0.20, outside
	// the automatic bands; the condition requires operator intervention and
	// is surfaced explicitly rather than silently skipped.
	ErrHealthCritical = errors.New("fxvault: vault health critical, manual rebalance required")
	// ErrStaleSnapshot indicates balances moved between planning and applying
	// a rebalance directive.
	ErrStaleSnapshot = errors.New("fxvault: rebalance snapshot out of date")
	// ErrInsufficientTreasury indicates the rebalancing treasury cannot fund the injection.
	ErrInsufficientTreasury = errors.New("fxvault: insufficient treasury balance")
)
