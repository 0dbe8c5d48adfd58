package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vaultd.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: primary
    type: fixed
    rates:
      EUR/USD: "1.08"
pairs:
  - base: EUR
    quote: USD
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabasePath != "/var/data/vaultd.sqlite" {
		t.Fatalf("database = %q", cfg.DatabasePath)
	}
	if cfg.Oracle.Interval.Duration != 30*time.Second {
		t.Fatalf("oracle interval = %s", cfg.Oracle.Interval.Duration)
	}
	if cfg.Oracle.MaxAge.Duration != 2*time.Minute {
		t.Fatalf("oracle max age = %s", cfg.Oracle.MaxAge.Duration)
	}
	if cfg.Oracle.MinFeeds != 1 {
		t.Fatalf("min feeds = %d", cfg.Oracle.MinFeeds)
	}
	if cfg.Rebalance.Interval.Duration != 5*time.Minute {
		t.Fatalf("rebalance interval = %s", cfg.Rebalance.Interval.Duration)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/vaultd.sqlite
oracle:
  interval: 15s
  max_age: 1m
  min_feeds: 2
rebalance:
  interval: 90s
sources:
  - name: primary
    type: exchangerate
    endpoint: https://rates.example.com/latest
pairs:
  - base: EUR
    quote: USD
  - base: CHF
    quote: USD
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Oracle.Interval.Duration != 15*time.Second {
		t.Fatalf("oracle interval = %s", cfg.Oracle.Interval.Duration)
	}
	if cfg.Oracle.MinFeeds != 2 {
		t.Fatalf("min feeds = %d", cfg.Oracle.MinFeeds)
	}
	if cfg.Rebalance.Interval.Duration != 90*time.Second {
		t.Fatalf("rebalance interval = %s", cfg.Rebalance.Interval.Duration)
	}
	if len(cfg.Pairs) != 2 {
		t.Fatalf("pairs = %d", len(cfg.Pairs))
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no pairs", `
sources:
  - name: primary
    type: fixed
`},
		{"no sources", `
pairs:
  - base: EUR
    quote: USD
`},
		{"degenerate pair", `
sources:
  - name: primary
    type: fixed
pairs:
  - base: USD
    quote: USD
`},
		{"bad duration", `
oracle:
  interval: soon
sources:
  - name: primary
    type: fixed
pairs:
  - base: EUR
    quote: USD
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
