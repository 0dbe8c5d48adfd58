package fxvault

import (
	"errors"
	"math/big"
	"testing"
)

func TestPlanInjectionBands(t *testing.T) {
	tests := []struct {
		name    string
		vault   int64
		counter int64
		band    RebalanceBand
		// percentage of the deficit injected
		pct int64
	}{
		// health 0.45: mild band injects 30% of the 5500 deficit.
		{"mild", 4500, 10000, BandMild, 30},
		// health 0.35: moderate band injects half.
		{"moderate", 3500, 10000, BandModerate, 50},
		// health 0.25: severe band injects three quarters.
		{"severe", 2500, 10000, BandSevere, 75},
		// exactly 0.50 sits inside the mild band
		{"edge half", 5000, 10000, BandMild, 30},
		{"edge forty", 4000, 10000, BandModerate, 50},
		{"edge thirty", 3000, 10000, BandSevere, 75},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			directive, err := PlanInjection("EUR", units(tc.vault), units(tc.counter))
			if err != nil {
				t.Fatalf("PlanInjection: %v", err)
			}
			if directive.Band != tc.band {
				t.Fatalf("band = %s, want %s", directive.Band, tc.band)
			}
			deficit := new(big.Int).Sub(units(tc.counter), units(tc.vault))
			want := percentOf(deficit, uint64(tc.pct))
			if directive.InjectionAmount.Cmp(want) != 0 {
				t.Fatalf("injection = %s, want %s", directive.InjectionAmount, want)
			}
			if directive.VaultBalance.Cmp(units(tc.vault)) != 0 || directive.CounterBalance.Cmp(units(tc.counter)) != 0 {
				t.Fatalf("directive snapshot %s/%s does not match measured balances", directive.VaultBalance, directive.CounterBalance)
			}
		})
	}
}

func TestPlanInjectionNotNeeded(t *testing.T) {
	for _, vault := range []int64{5100, 7000, 10000, 20000} {
		if _, err := PlanInjection("EUR", units(vault), units(10000)); !errors.Is(err, ErrRebalanceNotNeeded) {
			t.Fatalf("vault %d: err = %v, want %v", vault, err, ErrRebalanceNotNeeded)
		}
	}
}

func TestPlanInjectionCritical(t *testing.T) {
	for _, vault := range []int64{2000, 1000, 0} {
		if _, err := PlanInjection("EUR", units(vault), units(10000)); !errors.Is(err, ErrHealthCritical) {
			t.Fatalf("vault %d: err = %v, want %v", vault, err, ErrHealthCritical)
		}
	}
}

func TestPlanInjectionSurplusVault(t *testing.T) {
	// The larger vault of an unhealthy pair has no deficit; its directive is
	// a zero injection rather than an error.
	directive, err := PlanInjection("USD", units(10000), units(2500))
	if err != nil {
		t.Fatalf("PlanInjection: %v", err)
	}
	if directive.InjectionAmount.Sign() != 0 {
		t.Fatalf("surplus vault injection = %s, want 0", directive.InjectionAmount)
	}
	if directive.Band != BandSevere {
		t.Fatalf("band = %s, want %s", directive.Band, BandSevere)
	}
}

func TestPlanInjectionInvalidBalances(t *testing.T) {
	if _, err := PlanInjection("EUR", nil, units(1)); !errors.Is(err, ErrInvalidBalance) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidBalance)
	}
	if _, err := PlanInjection("EUR", big.NewInt(-1), units(1)); !errors.Is(err, ErrInvalidBalance) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidBalance)
	}
}
