package rebalance

import (
	"context"
	"math/big"
	"testing"
	"time"

	"fxvault/native/fxvault"
)

func unitsOf(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000))
}

func seedLedger(t *testing.T, usd, eur int64) *fxvault.Ledger {
	t.Helper()
	ledger, err := fxvault.NewLedger(nil)
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	ctx := context.Background()
	if _, err := ledger.Deposit(ctx, "alice", "USD", unitsOf(usd), 1_700_000_000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := ledger.Deposit(ctx, "bob", "EUR", unitsOf(eur), 1_700_000_000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	return ledger
}

func TestSweepInjectsIntoDepletedVault(t *testing.T) {
	// Health 0.45: mild band, 30% of the 5500 deficit.
	ledger := seedLedger(t, 4500, 10000)
	ctx := context.Background()
	if err := ledger.FundTreasury(ctx, fxvault.TreasuryRebalancer, unitsOf(2000)); err != nil {
		t.Fatalf("FundTreasury: %v", err)
	}

	runner, err := New(ledger, []Pair{{Base: "USD", Quote: "EUR"}}, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runner.Sweep(ctx)

	vault, _ := ledger.Vault("USD")
	if vault.Balance.Cmp(unitsOf(6150)) != 0 {
		t.Fatalf("vault balance = %s, want %s", vault.Balance, unitsOf(6150))
	}
	if got := ledger.TreasuryBalance(fxvault.TreasuryRebalancer); got.Cmp(unitsOf(350)) != 0 {
		t.Fatalf("treasury = %s, want %s", got, unitsOf(350))
	}
	// The surplus side stays untouched.
	eur, _ := ledger.Vault("EUR")
	if eur.Balance.Cmp(unitsOf(10000)) != 0 {
		t.Fatalf("counter balance = %s, want %s", eur.Balance, unitsOf(10000))
	}
}

func TestSweepLeavesHealthyPairAlone(t *testing.T) {
	ledger := seedLedger(t, 9000, 10000)
	ctx := context.Background()
	if err := ledger.FundTreasury(ctx, fxvault.TreasuryRebalancer, unitsOf(2000)); err != nil {
		t.Fatalf("FundTreasury: %v", err)
	}

	runner, err := New(ledger, []Pair{{Base: "USD", Quote: "EUR"}}, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runner.Sweep(ctx)

	vault, _ := ledger.Vault("USD")
	if vault.Balance.Cmp(unitsOf(9000)) != 0 {
		t.Fatalf("vault balance = %s, want untouched", vault.Balance)
	}
	if got := ledger.TreasuryBalance(fxvault.TreasuryRebalancer); got.Cmp(unitsOf(2000)) != 0 {
		t.Fatalf("treasury = %s, want untouched", got)
	}
}

func TestSweepSkipsCriticalVault(t *testing.T) {
	// Health 0.10 is below the automatic bands.
	ledger := seedLedger(t, 1000, 10000)
	ctx := context.Background()
	if err := ledger.FundTreasury(ctx, fxvault.TreasuryRebalancer, unitsOf(9000)); err != nil {
		t.Fatalf("FundTreasury: %v", err)
	}

	runner, err := New(ledger, []Pair{{Base: "USD", Quote: "EUR"}}, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runner.Sweep(ctx)

	vault, _ := ledger.Vault("USD")
	if vault.Balance.Cmp(unitsOf(1000)) != 0 {
		t.Fatalf("critical vault was injected to %s", vault.Balance)
	}
	if got := ledger.TreasuryBalance(fxvault.TreasuryRebalancer); got.Cmp(unitsOf(9000)) != 0 {
		t.Fatalf("treasury = %s, want untouched", got)
	}
}

func TestSweepSurvivesUnderfundedTreasury(t *testing.T) {
	ledger := seedLedger(t, 4500, 10000)
	runner, err := New(ledger, []Pair{{Base: "USD", Quote: "EUR"}}, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runner.Sweep(context.Background())

	vault, _ := ledger.Vault("USD")
	if vault.Balance.Cmp(unitsOf(4500)) != 0 {
		t.Fatalf("vault balance = %s, want untouched", vault.Balance)
	}
}

func TestNewValidates(t *testing.T) {
	ledger := seedLedger(t, 1000, 1000)
	if _, err := New(nil, []Pair{{Base: "USD", Quote: "EUR"}}, time.Minute); err == nil {
		t.Fatal("expected error without ledger")
	}
	if _, err := New(ledger, nil, time.Minute); err == nil {
		t.Fatal("expected error without pairs")
	}
	if _, err := New(ledger, []Pair{{Base: "USD", Quote: "EUR"}}, 0); err == nil {
		t.Fatal("expected error without interval")
	}
}
