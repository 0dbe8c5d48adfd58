package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"fxvault/native/fxvault"
	"fxvault/services/vaultd/storage"
)

// Quote is a single observation from an upstream feed.
type Quote struct {
	Rate      *big.Rat
	Timestamp time.Time
}

// Source resolves a price quote for a currency pair.
type Source interface {
	Name() string
	Fetch(ctx context.Context, base, quote string) (Quote, error)
}

// Pair identifies a base/quote pair.
type Pair struct {
	Base  string
	Quote string
}

// Manager orchestrates periodic aggregation across configured sources. Each
// tick fetches every source, drops stale or invalid quotes, records the
// survivors, and caches the median converted to the engine's price scale.
// Consumers read the cache through Latest; a pair whose snapshot has aged
// past maxAge is reported stale rather than served.
type Manager struct {
	logger   *slog.Logger
	storage  *storage.Storage
	sources  []Source
	pairs    []Pair
	minFeeds int
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedPrice

	once sync.Once
}

type cachedPrice struct {
	price    *big.Int
	observed time.Time
}

// ErrNoPrice is returned by Latest when no fresh aggregate exists for the pair.
var ErrNoPrice = fmt.Errorf("oracle: no fresh price for pair")

// Option configures a Manager.
type Option func(*Manager)

// WithLogger installs a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithNow overrides the manager's clock.
func WithNow(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs a manager instance.
func New(store *storage.Storage, sources []Source, pairs []Pair, interval, maxAge time.Duration, minFeeds int, opts ...Option) (*Manager, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("at least one source required")
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one pair required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	if maxAge <= 0 {
		maxAge = time.Minute
	}
	if minFeeds <= 0 {
		minFeeds = 1
	}
	mgr := &Manager{
		logger:   slog.Default(),
		storage:  store,
		sources:  append([]Source{}, sources...),
		pairs:    append([]Pair{}, pairs...),
		interval: interval,
		maxAge:   maxAge,
		minFeeds: minFeeds,
		now:      time.Now,
		cache:    make(map[string]cachedPrice),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(mgr)
		}
	}
	return mgr, nil
}

// Run blocks, periodically polling upstream feeds until the context is
// cancelled.
func (m *Manager) Run(ctx context.Context) error {
	if m == nil {
		return fmt.Errorf("manager not configured")
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	m.once.Do(func() {
		m.logger.Info("oracle manager started", "sources", len(m.sources), "pairs", len(m.pairs))
	})
	for {
		if err := m.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Warn("oracle tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick performs a single aggregation cycle across all configured pairs.
func (m *Manager) Tick(ctx context.Context) error {
	if m == nil {
		return fmt.Errorf("manager not configured")
	}
	for _, pair := range m.pairs {
		if err := m.processPair(ctx, pair); err != nil {
			return err
		}
	}
	return nil
}

// Latest returns the cached aggregate for the pair in the engine's fixed
// point scale. The price is reported stale once maxAge has elapsed since it
// was observed.
func (m *Manager) Latest(base, quote string) (*big.Int, time.Time, error) {
	if m == nil {
		return nil, time.Time{}, fmt.Errorf("manager not configured")
	}
	key := pairKey(base, quote)
	m.mu.RLock()
	entry, ok := m.cache[key]
	m.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, ErrNoPrice
	}
	if m.maxAge > 0 && m.now().Sub(entry.observed) > m.maxAge {
		return nil, entry.observed, ErrNoPrice
	}
	return new(big.Int).Set(entry.price), entry.observed, nil
}

func (m *Manager) processPair(ctx context.Context, pair Pair) error {
	base := strings.TrimSpace(pair.Base)
	quote := strings.TrimSpace(pair.Quote)
	if base == "" || quote == "" {
		return fmt.Errorf("invalid pair configuration")
	}
	now := m.now()
	rates := make([]*big.Rat, 0, len(m.sources))
	feeders := make([]string, 0, len(m.sources))
	for _, src := range m.sources {
		if src == nil {
			continue
		}
		observed, err := src.Fetch(ctx, base, quote)
		if err != nil {
			m.logger.Warn("oracle source failed", "source", src.Name(), "pair", base+"/"+quote, "error", err)
			continue
		}
		if observed.Rate == nil || observed.Rate.Sign() <= 0 {
			m.logger.Warn("oracle source returned invalid rate", "source", src.Name())
			continue
		}
		if observed.Timestamp.After(now.Add(5 * time.Second)) {
			m.logger.Warn("oracle source produced future timestamp", "source", src.Name())
			continue
		}
		if m.maxAge > 0 && observed.Timestamp.Before(now.Add(-m.maxAge)) {
			m.logger.Warn("oracle source quote expired", "source", src.Name())
			continue
		}
		feeders = append(feeders, src.Name())
		rates = append(rates, new(big.Rat).Set(observed.Rate))
		if m.storage != nil {
			if err := m.storage.RecordSample(ctx, base, quote, src.Name(), observed.Rate.FloatString(18), observed.Timestamp, now); err != nil {
				m.logger.Warn("record oracle sample", "error", err)
			}
		}
	}
	if len(rates) < m.minFeeds {
		return fmt.Errorf("insufficient oracle feeds for %s/%s", base, quote)
	}
	median := computeMedian(rates)
	if median == nil || median.Sign() <= 0 {
		return fmt.Errorf("median computation failed for %s/%s", base, quote)
	}
	price, err := fxvault.PriceFromRat(median)
	if err != nil {
		return fmt.Errorf("scale median for %s/%s: %w", base, quote, err)
	}
	m.mu.Lock()
	m.cache[pairKey(base, quote)] = cachedPrice{price: price, observed: now}
	m.mu.Unlock()
	if m.storage != nil {
		if err := m.storage.RecordSnapshot(ctx, base, quote, median.FloatString(18), feeders, now); err != nil {
			return fmt.Errorf("record snapshot: %w", err)
		}
	}
	return nil
}

func computeMedian(rates []*big.Rat) *big.Rat {
	if len(rates) == 0 {
		return nil
	}
	sorted := make([]*big.Rat, 0, len(rates))
	for _, r := range rates {
		if r == nil {
			continue
		}
		sorted = append(sorted, new(big.Rat).Set(r))
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Cmp(sorted[j]) < 0
	})
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return new(big.Rat).Set(sorted[mid])
	}
	sum := new(big.Rat).Add(sorted[mid-1], sorted[mid])
	return sum.Quo(sum, big.NewRat(2, 1))
}

func pairKey(base, quote string) string {
	return strings.ToUpper(strings.TrimSpace(base)) + "/" + strings.ToUpper(strings.TrimSpace(quote))
}
