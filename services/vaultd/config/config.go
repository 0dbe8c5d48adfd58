package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support YAML unmarshalling.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses human readable duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be string")
	}
	raw := value.Value
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// Config captures runtime configuration for vaultd.
type Config struct {
	DatabasePath string          `yaml:"database"`
	LogFile      string          `yaml:"log_file"`
	Oracle       OracleConfig    `yaml:"oracle"`
	Sources      []Source        `yaml:"sources"`
	Pairs        []Pair          `yaml:"pairs"`
	Rebalance    RebalanceConfig `yaml:"rebalance"`
}

// OracleConfig tunes the aggregation loop.
type OracleConfig struct {
	Interval Duration `yaml:"interval"`
	MaxAge   Duration `yaml:"max_age"`
	MinFeeds int      `yaml:"min_feeds"`
}

// Source describes an upstream oracle feed.
type Source struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"`
	Endpoint string            `yaml:"endpoint"`
	APIKey   string            `yaml:"api_key"`
	Rates    map[string]string `yaml:"rates"`
}

// Pair identifies a currency pair whose two vaults trade against each other.
// The oracle publishes base/quote; the rebalancer watches both sides.
type Pair struct {
	Base  string `yaml:"base"`
	Quote string `yaml:"quote"`
}

// RebalanceConfig controls the automatic treasury injection loop.
type RebalanceConfig struct {
	Interval Duration `yaml:"interval"`
	Disabled bool     `yaml:"disabled"`
}

// Load reads configuration from the supplied path.
func Load(path string) (Config, error) {
	cfg := Config{}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	dec := yaml.NewDecoder(file)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "/var/data/vaultd.sqlite"
	}
	if cfg.Oracle.Interval.Duration == 0 {
		cfg.Oracle.Interval.Duration = 30 * time.Second
	}
	if cfg.Oracle.MaxAge.Duration == 0 {
		cfg.Oracle.MaxAge.Duration = 2 * time.Minute
	}
	if cfg.Oracle.MinFeeds <= 0 {
		cfg.Oracle.MinFeeds = 1
	}
	if cfg.Rebalance.Interval.Duration == 0 {
		cfg.Rebalance.Interval.Duration = 5 * time.Minute
	}
}

func validate(cfg Config) error {
	if len(cfg.Pairs) == 0 {
		return fmt.Errorf("at least one pair must be configured")
	}
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one oracle source must be configured")
	}
	for _, pair := range cfg.Pairs {
		if pair.Base == "" || pair.Quote == "" {
			return fmt.Errorf("pair requires base and quote")
		}
		if pair.Base == pair.Quote {
			return fmt.Errorf("pair %s/%s is degenerate", pair.Base, pair.Quote)
		}
	}
	return nil
}
