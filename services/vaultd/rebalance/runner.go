package rebalance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fxvault/native/fxvault"
)

// Pair names the two vaults the runner keeps in balance.
type Pair struct {
	Base  string
	Quote string
}

// Runner periodically measures configured vault pairs and injects treasury
// capital into whichever side has fallen into a rebalance band. A pair whose
// health is above the bands is left alone; a critically depleted vault is
// surfaced in the log and skipped, automatic injection never touches it.
type Runner struct {
	ledger   *fxvault.Ledger
	pairs    []Pair
	interval time.Duration
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger installs a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New constructs a runner over the supplied ledger.
func New(ledger *fxvault.Ledger, pairs []Pair, interval time.Duration, opts ...Option) (*Runner, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one pair required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	runner := &Runner{
		ledger:   ledger,
		pairs:    append([]Pair{}, pairs...),
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(runner)
		}
	}
	return runner, nil
}

// Run blocks, sweeping all pairs on every tick until the context is
// cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runner not configured")
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Info("rebalance runner started", "pairs", len(r.pairs), "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep evaluates every configured pair once. Both sides of each pair are
// checked; at most one of them can have a deficit.
func (r *Runner) Sweep(ctx context.Context) {
	for _, pair := range r.pairs {
		r.evaluate(ctx, pair.Base, pair.Quote)
		r.evaluate(ctx, pair.Quote, pair.Base)
	}
}

func (r *Runner) evaluate(ctx context.Context, vault, counter string) {
	directive, err := r.ledger.PlanRebalance(ctx, vault, counter)
	switch {
	case errors.Is(err, fxvault.ErrRebalanceNotNeeded):
		return
	case errors.Is(err, fxvault.ErrHealthCritical):
		r.logger.Error("vault critically depleted, manual intervention required", "vault", vault, "counter", counter)
		return
	case err != nil:
		r.logger.Warn("plan rebalance", "vault", vault, "counter", counter, "error", err)
		return
	}
	if directive.InjectionAmount.Sign() == 0 {
		// The unhealthy pair's surplus side plans a zero injection.
		return
	}
	if err := r.ledger.ApplyRebalance(ctx, directive); err != nil {
		switch {
		case errors.Is(err, fxvault.ErrInsufficientTreasury):
			r.logger.Warn("rebalancing treasury underfunded",
				"vault", vault, "needed", directive.InjectionAmount.String(), "band", string(directive.Band))
		case errors.Is(err, fxvault.ErrStaleSnapshot):
			// Balances moved between plan and apply; the next sweep re-measures.
			r.logger.Info("rebalance snapshot superseded", "vault", vault)
		default:
			r.logger.Warn("apply rebalance", "vault", vault, "error", err)
		}
		return
	}
	r.logger.Info("injected treasury capital",
		"vault", vault, "counter", counter,
		"amount", directive.InjectionAmount.String(), "band", string(directive.Band))
}
