package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/sqlite"

	"fxvault/native/fxvault"
)

// Storage wraps the vaultd persistence layer. It backs the ledger through
// the fxvault.Store interface and records the oracle aggregation trail.
type Storage struct {
	db *sql.DB
}

// ErrPathRequired is returned when the backing store path is missing.
var ErrPathRequired = errors.New("vaultd storage path must be configured")

// Open initialises the backing store using a sqlite-compatible DSN.
func Open(dsn string) (*Storage, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrPathRequired
	}
	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close releases database resources.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveVault upserts a vault record.
func (s *Storage) SaveVault(ctx context.Context, record fxvault.VaultRecord) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO vaults(currency, balance, accrued_fees, updated_at)
        VALUES(?, ?, ?, ?)
        ON CONFLICT(currency) DO UPDATE SET
            balance = excluded.balance,
            accrued_fees = excluded.accrued_fees,
            updated_at = excluded.updated_at
    `, record.Currency, record.Balance, record.AccruedFees, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert vault: %w", err)
	}
	return nil
}

// SavePosition upserts an LP position record.
func (s *Storage) SavePosition(ctx context.Context, record fxvault.PositionRecord) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO lp_positions(owner, vault, amount, deposit_time, reward_accrued, updated_at)
        VALUES(?, ?, ?, ?, ?, ?)
        ON CONFLICT(owner, vault) DO UPDATE SET
            amount = excluded.amount,
            deposit_time = excluded.deposit_time,
            reward_accrued = excluded.reward_accrued,
            updated_at = excluded.updated_at
    `, record.Owner, record.Vault, record.Amount, record.DepositTime, record.RewardAccrued, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// DeletePosition removes an emptied LP position.
func (s *Storage) DeletePosition(ctx context.Context, owner, vault string) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lp_positions WHERE owner = ? AND vault = ?`, owner, vault); err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	return nil
}

// SaveTreasury upserts a treasury balance.
func (s *Storage) SaveTreasury(ctx context.Context, record fxvault.TreasuryRecord) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO treasuries(name, balance, updated_at)
        VALUES(?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            balance = excluded.balance,
            updated_at = excluded.updated_at
    `, record.Name, record.Balance, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert treasury: %w", err)
	}
	return nil
}

// LoadVaults returns every persisted vault.
func (s *Storage) LoadVaults(ctx context.Context) ([]fxvault.VaultRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT currency, balance, accrued_fees FROM vaults`)
	if err != nil {
		return nil, fmt.Errorf("query vaults: %w", err)
	}
	defer rows.Close()
	var out []fxvault.VaultRecord
	for rows.Next() {
		var record fxvault.VaultRecord
		if err := rows.Scan(&record.Currency, &record.Balance, &record.AccruedFees); err != nil {
			return nil, fmt.Errorf("scan vault: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// LoadPositions returns every persisted LP position.
func (s *Storage) LoadPositions(ctx context.Context) ([]fxvault.PositionRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT owner, vault, amount, deposit_time, reward_accrued FROM lp_positions`)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()
	var out []fxvault.PositionRecord
	for rows.Next() {
		var record fxvault.PositionRecord
		if err := rows.Scan(&record.Owner, &record.Vault, &record.Amount, &record.DepositTime, &record.RewardAccrued); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// LoadTreasuries returns every persisted treasury balance.
func (s *Storage) LoadTreasuries(ctx context.Context) ([]fxvault.TreasuryRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name, balance FROM treasuries`)
	if err != nil {
		return nil, fmt.Errorf("query treasuries: %w", err)
	}
	defer rows.Close()
	var out []fxvault.TreasuryRecord
	for rows.Next() {
		var record fxvault.TreasuryRecord
		if err := rows.Scan(&record.Name, &record.Balance); err != nil {
			return nil, fmt.Errorf("scan treasury: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// RecordSample persists a raw oracle quote.
func (s *Storage) RecordSample(ctx context.Context, base, quote, source, rate string, observed, recorded time.Time) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO oracle_samples(pair, source, rate, observed_at, recorded_at)
        VALUES(?, ?, ?, ?, ?)
    `, pairKey(base, quote), strings.ToLower(source), rate, observed.UTC().Unix(), recorded.UTC())
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// RecordSnapshot stores the aggregated median snapshot.
func (s *Storage) RecordSnapshot(ctx context.Context, base, quote, median string, feeders []string, ts time.Time) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO oracle_snapshots(pair, median_rate, feeders, observed_at, recorded_at)
        VALUES(?, ?, ?, ?, ?)
    `, pairKey(base, quote), strings.TrimSpace(median), strings.Join(feeders, ","), ts.UTC().Unix(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent aggregated median for the pair.
func (s *Storage) LatestSnapshot(ctx context.Context, base, quote string) (Snapshot, error) {
	result := Snapshot{}
	if s == nil {
		return result, fmt.Errorf("storage not configured")
	}
	row := s.db.QueryRowContext(ctx, `
        SELECT median_rate, feeders, observed_at, recorded_at
        FROM oracle_snapshots
        WHERE pair = ?
        ORDER BY id DESC
        LIMIT 1
    `, pairKey(base, quote))
	var feeders string
	if err := row.Scan(&result.MedianRate, &feeders, &result.ObservedAtUnix, &result.RecordedAt); err != nil {
		if err == sql.ErrNoRows {
			return result, fmt.Errorf("snapshot not found")
		}
		return result, fmt.Errorf("query snapshot: %w", err)
	}
	if feeders != "" {
		result.Feeders = strings.Split(feeders, ",")
	}
	return result, nil
}

// Snapshot captures the latest oracle aggregate.
type Snapshot struct {
	MedianRate     string
	Feeders        []string
	ObservedAtUnix int64
	RecordedAt     time.Time
}

func pairKey(base, quote string) string {
	return strings.ToUpper(strings.TrimSpace(base)) + "/" + strings.ToUpper(strings.TrimSpace(quote))
}

const schema = `
CREATE TABLE IF NOT EXISTS vaults (
    currency TEXT PRIMARY KEY,
    balance TEXT NOT NULL,
    accrued_fees TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS lp_positions (
    owner TEXT NOT NULL,
    vault TEXT NOT NULL,
    amount TEXT NOT NULL,
    deposit_time INTEGER NOT NULL,
    reward_accrued TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (owner, vault)
);
CREATE INDEX IF NOT EXISTS idx_lp_positions_vault ON lp_positions(vault);

CREATE TABLE IF NOT EXISTS treasuries (
    name TEXT PRIMARY KEY,
    balance TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS oracle_samples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    pair TEXT NOT NULL,
    source TEXT NOT NULL,
    rate TEXT NOT NULL,
    observed_at INTEGER NOT NULL,
    recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_oracle_samples_pair_ts ON oracle_samples(pair, observed_at);

CREATE TABLE IF NOT EXISTS oracle_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    pair TEXT NOT NULL,
    median_rate TEXT NOT NULL,
    feeders TEXT NOT NULL,
    observed_at INTEGER NOT NULL,
    recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_oracle_snapshots_pair_ts ON oracle_snapshots(pair, observed_at);
`
