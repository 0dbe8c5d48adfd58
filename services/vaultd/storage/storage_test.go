package storage

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fxvault/native/fxvault"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	dsn, err := FileDSN(filepath.Join(t.TempDir(), "vaultd.sqlite"))
	require.NoError(t, err)
	store, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestVaultRoundTrip(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveVault(ctx, fxvault.VaultRecord{Currency: "USD", Balance: "1000000", AccruedFees: "300"}))
	// Upsert replaces rather than duplicating.
	require.NoError(t, store.SaveVault(ctx, fxvault.VaultRecord{Currency: "USD", Balance: "2000000", AccruedFees: "600"}))

	vaults, err := store.LoadVaults(ctx)
	require.NoError(t, err)
	require.Len(t, vaults, 1)
	require.Equal(t, "2000000", vaults[0].Balance)
	require.Equal(t, "600", vaults[0].AccruedFees)
}

func TestPositionRoundTrip(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()

	record := fxvault.PositionRecord{Owner: "alice", Vault: "USD", Amount: "500", DepositTime: 1_700_000_000, RewardAccrued: "7"}
	require.NoError(t, store.SavePosition(ctx, record))
	record.Amount = "250"
	require.NoError(t, store.SavePosition(ctx, record))

	positions, err := store.LoadPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Equal(t, "250", positions[0].Amount)
	require.Equal(t, int64(1_700_000_000), positions[0].DepositTime)

	require.NoError(t, store.DeletePosition(ctx, "alice", "USD"))
	positions, err = store.LoadPositions(ctx)
	require.NoError(t, err)
	require.Empty(t, positions)
}

func TestTreasuryRoundTrip(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTreasury(ctx, fxvault.TreasuryRecord{Name: "rebalancer", Balance: "12345"}))
	treasuries, err := store.LoadTreasuries(ctx)
	require.NoError(t, err)
	require.Len(t, treasuries, 1)
	require.Equal(t, "12345", treasuries[0].Balance)
}

func TestBacksLedger(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()

	ledger, err := fxvault.NewLedger(store)
	require.NoError(t, err)
	_, err = ledger.Deposit(ctx, "alice", "USD", big.NewInt(1_000_000), 1_700_000_000)
	require.NoError(t, err)

	restored, err := fxvault.NewLedger(store)
	require.NoError(t, err)
	vault, ok := restored.Vault("USD")
	require.True(t, ok, "vault missing after restore")
	require.Zero(t, vault.Balance.Cmp(big.NewInt(1_000_000)), "restored balance = %s", vault.Balance)
}

func TestOracleTrail(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.RecordSample(ctx, "eur", "usd", "Primary", "1.08", now, now))
	require.NoError(t, store.RecordSnapshot(ctx, "EUR", "USD", "1.085", []string{"primary", "backup"}, now))
	require.NoError(t, store.RecordSnapshot(ctx, "EUR", "USD", "1.090", []string{"primary"}, now.Add(time.Minute)))

	snapshot, err := store.LatestSnapshot(ctx, "eur", "usd")
	require.NoError(t, err)
	require.Equal(t, "1.090", snapshot.MedianRate, "latest snapshot wins")
	require.Equal(t, []string{"primary"}, snapshot.Feeders)

	_, err = store.LatestSnapshot(ctx, "CHF", "USD")
	require.Error(t, err)
}
