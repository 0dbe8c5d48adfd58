package fxvault

import (
	"math/big"
	"testing"
	"time"
)

func hoursAfter(base int64, hours int64) int64 {
	return base + hours*int64(time.Hour/time.Second)
}

func TestWithdrawalPenaltyBps(t *testing.T) {
	const deposited = int64(1_700_000_000)
	tests := []struct {
		name  string
		hours int64
		want  uint64
	}{
		{"immediately", 0, 200},
		{"thirty hours", 30, 200},
		{"sixty hours", 60, 150},
		{"ninety hours", 90, 150},
		{"onehundredtwenty hours", 120, 100},
		{"onehundredeighty hours", 180, 50},
		{"twohundredforty hours", 240, 0},
		{"long after", 1000, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			now := hoursAfter(deposited, tc.hours)
			if got := WithdrawalPenaltyBps(deposited, now); got != tc.want {
				t.Fatalf("penalty after %dh = %d bps, want %d", tc.hours, got, tc.want)
			}
		})
	}
}

func TestWithdrawalPenaltyBpsClockSkew(t *testing.T) {
	// A timestamp before the deposit charges the maximum tier.
	if got := WithdrawalPenaltyBps(1000, 500); got != 200 {
		t.Fatalf("penalty with negative elapsed = %d bps, want 200", got)
	}
}

func TestWithdrawalPenaltyBpsNonIncreasing(t *testing.T) {
	const deposited = int64(1_700_000_000)
	prev := WithdrawalPenaltyBps(deposited, deposited)
	for hours := int64(1); hours <= 300; hours++ {
		got := WithdrawalPenaltyBps(deposited, hoursAfter(deposited, hours))
		if got > prev {
			t.Fatalf("penalty rose from %d to %d bps at %dh", prev, got, hours)
		}
		prev = got
	}
}

func TestWithdrawalPenaltyAmount(t *testing.T) {
	const deposited = int64(1_700_000_000)
	// 2.00% of 500 units after 30 hours.
	got := WithdrawalPenalty(units(500), deposited, hoursAfter(deposited, 30))
	if got.Cmp(units(10)) != 0 {
		t.Fatalf("penalty = %s, want %s", got, units(10))
	}
	// Truncation: 200 bps of 49 base units is 0.
	got = WithdrawalPenalty(big.NewInt(49), deposited, deposited)
	if got.Sign() != 0 {
		t.Fatalf("penalty on dust = %s, want 0", got)
	}
	// No penalty from 240 hours on.
	got = WithdrawalPenalty(units(500), deposited, hoursAfter(deposited, 250))
	if got.Sign() != 0 {
		t.Fatalf("penalty after vesting = %s, want 0", got)
	}
}
