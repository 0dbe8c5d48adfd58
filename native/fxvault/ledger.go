package fxvault

import (
	"context"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fxvault/observability"
)

// Store abstracts the external keyed store persisting ledger state. The
// ledger is the single writer; records use decimal strings for amounts so
// the backing store needs no big-integer support.
type Store interface {
	SaveVault(ctx context.Context, record VaultRecord) error
	SavePosition(ctx context.Context, record PositionRecord) error
	DeletePosition(ctx context.Context, owner, vault string) error
	SaveTreasury(ctx context.Context, record TreasuryRecord) error
	LoadVaults(ctx context.Context) ([]VaultRecord, error)
	LoadPositions(ctx context.Context) ([]PositionRecord, error)
	LoadTreasuries(ctx context.Context) ([]TreasuryRecord, error)
}

// VaultRecord is the stored form of a vault.
type VaultRecord struct {
	Currency    string
	Balance     string
	AccruedFees string
}

// PositionRecord is the stored form of an LP position.
type PositionRecord struct {
	Owner         string
	Vault         string
	Amount        string
	DepositTime   int64
	RewardAccrued string
}

// TreasuryRecord is the stored form of a treasury balance.
type TreasuryRecord struct {
	Name    string
	Balance string
}

// Ledger is the state machine over vaults, LP positions, and treasuries.
// Every operation validates fully before mutating, then commits under a
// single mutex, so concurrent swaps against the same pair serialize and the
// pricing snapshot always matches the balances mutated at commit time.
// Oracle prices and timestamps are supplied by the caller and never fetched
// while the lock is held.
type Ledger struct {
	mu         sync.Mutex
	vaults     map[string]*Vault
	positions  map[string]*LPPosition
	treasuries map[string]*big.Int
	persist    Store
	clock      func() time.Time
	metrics    *observability.VaultLedgerMetrics
	tracer     trace.Tracer
}

// NewLedger constructs a ledger, restoring persisted state when a store is
// supplied.
func NewLedger(store Store) (*Ledger, error) {
	l := &Ledger{
		vaults:     make(map[string]*Vault),
		positions:  make(map[string]*LPPosition),
		treasuries: make(map[string]*big.Int),
		persist:    store,
		clock:      time.Now,
		metrics:    observability.VaultLedger(),
		tracer:     otel.Tracer("fxvault/ledger"),
	}
	if store != nil {
		if err := l.restore(context.Background(), store); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// WithClock overrides the wall clock used for latency metrics. Domain time
// never comes from this clock; it is always an explicit parameter.
func (l *Ledger) WithClock(clock func() time.Time) {
	if l == nil || clock == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock = clock
}

func (l *Ledger) restore(ctx context.Context, store Store) error {
	vaults, err := store.LoadVaults(ctx)
	if err != nil {
		return err
	}
	positions, err := store.LoadPositions(ctx)
	if err != nil {
		return err
	}
	treasuries, err := store.LoadTreasuries(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, record := range vaults {
		currency := normaliseCurrency(record.Currency)
		if currency == "" {
			continue
		}
		vault := &Vault{
			Currency:    currency,
			Balance:     parseAmount(record.Balance),
			AccruedFees: parseAmount(record.AccruedFees),
		}
		l.vaults[currency] = vault
	}
	for _, record := range positions {
		currency := normaliseCurrency(record.Vault)
		owner := strings.TrimSpace(record.Owner)
		if currency == "" || owner == "" {
			continue
		}
		if _, ok := l.vaults[currency]; !ok {
			slog.Warn("fxvault: skip persisted position for unknown vault", "vault", currency, "owner", owner)
			continue
		}
		l.positions[positionKey(owner, currency)] = &LPPosition{
			Owner:         owner,
			Vault:         currency,
			Amount:        parseAmount(record.Amount),
			DepositTime:   record.DepositTime,
			RewardAccrued: parseAmount(record.RewardAccrued),
		}
	}
	for _, record := range treasuries {
		name := strings.ToLower(strings.TrimSpace(record.Name))
		if name == "" {
			continue
		}
		l.treasuries[name] = parseAmount(record.Balance)
	}
	return nil
}

// Deposit adds liquidity to a currency vault, creating the vault on its
// first deposit. Repeated deposits merge into the owner's existing position
// with a weighted-average timestamp:
//
//	ts' = floor((a*ts + b*now) / (a+b))
//
// which keeps the withdrawal penalty schedule fair across top-ups.
func (l *Ledger) Deposit(ctx context.Context, owner, currency string, amount *big.Int, now int64) (*LPPosition, error) {
	start := l.now()
	ctx, span := l.tracer.Start(ctx, "ledger.deposit",
		trace.WithAttributes(attribute.String("vault", normaliseCurrency(currency))))
	defer span.End()

	owner = strings.TrimSpace(owner)
	currency = normaliseCurrency(currency)
	if owner == "" || currency == "" || amount == nil || amount.Sign() <= 0 {
		return nil, l.reject(span, "deposit", start, ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	vault, ok := l.vaults[currency]
	if !ok {
		vault = &Vault{Currency: currency, Balance: big.NewInt(0), AccruedFees: big.NewInt(0)}
		l.vaults[currency] = vault
	}

	key := positionKey(owner, currency)
	position, ok := l.positions[key]
	if !ok {
		position = &LPPosition{Owner: owner, Vault: currency, Amount: big.NewInt(0), DepositTime: now, RewardAccrued: big.NewInt(0)}
		l.positions[key] = position
	} else {
		position.DepositTime = mergeDepositTime(position.Amount, position.DepositTime, amount, now)
	}
	vault.Balance.Add(vault.Balance, amount)
	position.Amount.Add(position.Amount, amount)

	l.persistVaultLocked(ctx, vault)
	l.persistPositionLocked(ctx, position)

	span.SetStatus(codes.Ok, "deposited")
	l.metrics.Observe("deposit", l.now().Sub(start), nil)
	return position.Clone(), nil
}

// Withdraw removes principal from the owner's position, charging the
// time-banded early-withdrawal penalty on it. The penalty routes in full to
// the rebalancing treasury. The operation rejects atomically when the
// amount exceeds the recorded position or the vault balance.
func (l *Ledger) Withdraw(ctx context.Context, owner, currency string, amount *big.Int, now int64) (*WithdrawReceipt, error) {
	start := l.now()
	ctx, span := l.tracer.Start(ctx, "ledger.withdraw",
		trace.WithAttributes(attribute.String("vault", normaliseCurrency(currency))))
	defer span.End()

	owner = strings.TrimSpace(owner)
	currency = normaliseCurrency(currency)
	if amount == nil || amount.Sign() <= 0 {
		return nil, l.reject(span, "withdraw", start, ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	vault, ok := l.vaults[currency]
	if !ok {
		return nil, l.reject(span, "withdraw", start, ErrVaultNotFound)
	}
	position, ok := l.positions[positionKey(owner, currency)]
	if !ok {
		return nil, l.reject(span, "withdraw", start, ErrPositionNotFound)
	}
	if amount.Cmp(position.Amount) > 0 {
		return nil, l.reject(span, "withdraw", start, ErrInsufficientPosition)
	}
	if amount.Cmp(vault.Balance) > 0 {
		return nil, l.reject(span, "withdraw", start, ErrInsufficientLiquidity)
	}

	penaltyBps := WithdrawalPenaltyBps(position.DepositTime, now)
	penalty := bpsOf(amount, penaltyBps)
	paid := new(big.Int).Sub(amount, penalty)

	vault.Balance.Sub(vault.Balance, amount)
	position.Amount.Sub(position.Amount, amount)
	l.creditTreasuryLocked(TreasuryRebalancer, penalty)

	l.persistVaultLocked(ctx, vault)
	l.persistTreasuryLocked(ctx, TreasuryRebalancer)
	if position.Amount.Sign() == 0 && position.RewardAccrued.Sign() == 0 {
		delete(l.positions, positionKey(owner, currency))
		l.deletePositionLocked(ctx, owner, currency)
	} else {
		l.persistPositionLocked(ctx, position)
	}

	span.SetStatus(codes.Ok, "withdrawn")
	l.metrics.Observe("withdraw", l.now().Sub(start), nil)
	return &WithdrawReceipt{
		Amount:     new(big.Int).Set(amount),
		PenaltyBps: penaltyBps,
		Penalty:    penalty,
		Paid:       paid,
	}, nil
}

// SwapRequest carries the caller-supplied inputs for a swap. The oracle
// price is quoted for the configured pair; SourceToTarget selects whether
// the rate multiplies (delivering source, receiving target) or divides.
// MinAmountOut, when non-nil, is a slippage guard on the net output.
type SwapRequest struct {
	SourceCurrency string
	TargetCurrency string
	AmountIn       *big.Int
	OraclePrice    *big.Int
	SourceToTarget bool
	MinAmountOut   *big.Int
}

// Quote prices a swap against current balances without mutating state.
func (l *Ledger) Quote(ctx context.Context, req SwapRequest) (*SwapQuote, error) {
	start := l.now()
	_, span := l.tracer.Start(ctx, "ledger.quote")
	defer span.End()

	source := normaliseCurrency(req.SourceCurrency)
	target := normaliseCurrency(req.TargetCurrency)

	l.mu.Lock()
	defer l.mu.Unlock()

	sourceVault, ok := l.vaults[source]
	if !ok {
		return nil, l.reject(span, "quote", start, ErrVaultNotFound)
	}
	targetVault, ok := l.vaults[target]
	if !ok {
		return nil, l.reject(span, "quote", start, ErrVaultNotFound)
	}
	quote, err := ComputeQuote(req.AmountIn, req.OraclePrice, sourceVault.Balance, targetVault.Balance, req.SourceToTarget)
	if err != nil {
		return nil, l.reject(span, "quote", start, err)
	}
	span.SetStatus(codes.Ok, "quoted")
	l.metrics.Observe("quote", l.now().Sub(start), nil)
	return quote, nil
}

// Swap executes a priced exchange between two vaults. The quote is computed
// from the same snapshot the commit mutates, under the ledger lock. The
// source vault is credited with the full input; the target vault is debited
// by the gross output, of which the taker receives the net amount and the
// spread fee accrues on the target vault pending distribution. Both
// mutations happen or neither does.
func (l *Ledger) Swap(ctx context.Context, req SwapRequest) (*SwapReceipt, error) {
	start := l.now()
	ctx, span := l.tracer.Start(ctx, "ledger.swap",
		trace.WithAttributes(
			attribute.String("source", normaliseCurrency(req.SourceCurrency)),
			attribute.String("target", normaliseCurrency(req.TargetCurrency)),
		))
	defer span.End()

	source := normaliseCurrency(req.SourceCurrency)
	target := normaliseCurrency(req.TargetCurrency)
	if source == "" || target == "" || source == target {
		return nil, l.reject(span, "swap", start, ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sourceVault, ok := l.vaults[source]
	if !ok {
		return nil, l.reject(span, "swap", start, ErrVaultNotFound)
	}
	targetVault, ok := l.vaults[target]
	if !ok {
		return nil, l.reject(span, "swap", start, ErrVaultNotFound)
	}
	// Swapping against a vault that never received liquidity would execute
	// at the guard-rail maximal drift; refuse outright.
	if sourceVault.Balance.Sign() == 0 || targetVault.Balance.Sign() == 0 {
		return nil, l.reject(span, "swap", start, ErrNoLiquidity)
	}

	quote, err := ComputeQuote(req.AmountIn, req.OraclePrice, sourceVault.Balance, targetVault.Balance, req.SourceToTarget)
	if err != nil {
		return nil, l.reject(span, "swap", start, err)
	}
	if req.MinAmountOut != nil && quote.AmountOut.Cmp(req.MinAmountOut) < 0 {
		return nil, l.reject(span, "swap", start, ErrSlippageExceeded)
	}
	if quote.AmountOutWithoutFees.Cmp(targetVault.Balance) > 0 {
		return nil, l.reject(span, "swap", start, ErrInsufficientLiquidity)
	}

	sourceVault.Balance.Add(sourceVault.Balance, req.AmountIn)
	targetVault.Balance.Sub(targetVault.Balance, quote.AmountOutWithoutFees)
	targetVault.AccruedFees.Add(targetVault.AccruedFees, quote.FeeAmount)

	l.persistVaultLocked(ctx, sourceVault)
	l.persistVaultLocked(ctx, targetVault)

	span.SetAttributes(attribute.Int64("spread_bps", int64(quote.SpreadBps)))
	span.SetStatus(codes.Ok, "swapped")
	l.metrics.Observe("swap", l.now().Sub(start), nil)
	return &SwapReceipt{Quote: quote, SourceCurrency: source, TargetCurrency: target}, nil
}

// DistributeFees splits a vault's accrued fees by the health of the pair
// and credits each LP proportionally to depositedAmount/vault.balance from
// one consistent snapshot. Truncation dust from the per-LP allocation joins
// the rebalancing treasury so the full amount is always accounted for.
// AccruedFees is zeroed on success.
func (l *Ledger) DistributeFees(ctx context.Context, currency, counterCurrency string) (FeeSplit, error) {
	start := l.now()
	ctx, span := l.tracer.Start(ctx, "ledger.distribute_fees",
		trace.WithAttributes(attribute.String("vault", normaliseCurrency(currency))))
	defer span.End()

	currency = normaliseCurrency(currency)
	counterCurrency = normaliseCurrency(counterCurrency)

	l.mu.Lock()
	defer l.mu.Unlock()

	vault, ok := l.vaults[currency]
	if !ok {
		return FeeSplit{}, l.reject(span, "distribute_fees", start, ErrVaultNotFound)
	}
	counter, ok := l.vaults[counterCurrency]
	if !ok {
		return FeeSplit{}, l.reject(span, "distribute_fees", start, ErrVaultNotFound)
	}
	if vault.AccruedFees.Sign() <= 0 {
		return FeeSplit{}, l.reject(span, "distribute_fees", start, ErrNoFeesAccrued)
	}

	health := Health(vault.Balance, counter.Balance)
	split, err := SplitFees(vault.AccruedFees, health)
	if err != nil {
		return FeeSplit{}, l.reject(span, "distribute_fees", start, err)
	}

	// One consistent snapshot for the proportional credit.
	balanceSnapshot := new(big.Int).Set(vault.Balance)
	distributed := big.NewInt(0)
	for _, key := range l.vaultPositionKeysLocked(currency) {
		position := l.positions[key]
		share := mulDiv(split.LPShare, position.Amount, balanceSnapshot)
		remaining := new(big.Int).Sub(split.LPShare, distributed)
		if share.Cmp(remaining) > 0 {
			share = remaining
		}
		if share.Sign() <= 0 {
			continue
		}
		position.RewardAccrued.Add(position.RewardAccrued, share)
		distributed.Add(distributed, share)
		l.persistPositionLocked(ctx, position)
	}
	dust := new(big.Int).Sub(split.LPShare, distributed)

	l.creditTreasuryLocked(TreasuryRebalancer, new(big.Int).Add(split.RebalancerShare, dust))
	l.creditTreasuryLocked(TreasuryProtocol, split.ProtocolShare)
	vault.AccruedFees.SetInt64(0)

	l.persistVaultLocked(ctx, vault)
	l.persistTreasuryLocked(ctx, TreasuryRebalancer)
	l.persistTreasuryLocked(ctx, TreasuryProtocol)

	span.SetStatus(codes.Ok, "distributed")
	l.metrics.Observe("distribute_fees", l.now().Sub(start), nil)
	return split, nil
}

// ClaimRewards pays out the owner's accrued reward share and zeroes it. The
// transfer itself is the caller's concern; the ledger only releases the
// accounting entry.
func (l *Ledger) ClaimRewards(ctx context.Context, owner, currency string) (*big.Int, error) {
	start := l.now()
	ctx, span := l.tracer.Start(ctx, "ledger.claim_rewards",
		trace.WithAttributes(attribute.String("vault", normaliseCurrency(currency))))
	defer span.End()

	owner = strings.TrimSpace(owner)
	currency = normaliseCurrency(currency)

	l.mu.Lock()
	defer l.mu.Unlock()

	position, ok := l.positions[positionKey(owner, currency)]
	if !ok {
		return nil, l.reject(span, "claim_rewards", start, ErrPositionNotFound)
	}
	if position.RewardAccrued.Sign() <= 0 {
		return nil, l.reject(span, "claim_rewards", start, ErrNoRewards)
	}

	claimed := new(big.Int).Set(position.RewardAccrued)
	position.RewardAccrued.SetInt64(0)
	if position.Amount.Sign() == 0 {
		delete(l.positions, positionKey(owner, currency))
		l.deletePositionLocked(ctx, owner, currency)
	} else {
		l.persistPositionLocked(ctx, position)
	}

	span.SetStatus(codes.Ok, "claimed")
	l.metrics.Observe("claim_rewards", l.now().Sub(start), nil)
	return claimed, nil
}

// PlanRebalance measures a vault against its counter and produces an
// injection directive bound to the measured snapshot. Health above the
// bands yields ErrRebalanceNotNeeded; health at or below 0.20 yields
// ErrHealthCritical.
func (l *Ledger) PlanRebalance(ctx context.Context, currency, counterCurrency string) (*RebalanceDirective, error) {
	start := l.now()
	_, span := l.tracer.Start(ctx, "ledger.plan_rebalance",
		trace.WithAttributes(attribute.String("vault", normaliseCurrency(currency))))
	defer span.End()

	currency = normaliseCurrency(currency)
	counterCurrency = normaliseCurrency(counterCurrency)

	l.mu.Lock()
	defer l.mu.Unlock()

	vault, ok := l.vaults[currency]
	if !ok {
		return nil, l.reject(span, "plan_rebalance", start, ErrVaultNotFound)
	}
	counter, ok := l.vaults[counterCurrency]
	if !ok {
		return nil, l.reject(span, "plan_rebalance", start, ErrVaultNotFound)
	}
	l.metrics.SetPairHealth(currency, counterCurrency, Health(vault.Balance, counter.Balance))

	directive, err := PlanInjection(currency, vault.Balance, counter.Balance)
	if err != nil {
		return nil, l.reject(span, "plan_rebalance", start, err)
	}
	span.SetAttributes(attribute.String("band", string(directive.Band)))
	span.SetStatus(codes.Ok, "planned")
	l.metrics.Observe("plan_rebalance", l.now().Sub(start), nil)
	return directive, nil
}

// ApplyRebalance injects the directive's amount from the rebalancing
// treasury into the vault. The directive is applied transactionally against
// the deficit it was computed from: if the vault balance has moved since
// planning, the application is refused with ErrStaleSnapshot, which makes a
// re-evaluated directive idempotent rather than double-injecting.
func (l *Ledger) ApplyRebalance(ctx context.Context, directive *RebalanceDirective) error {
	start := l.now()
	ctx, span := l.tracer.Start(ctx, "ledger.apply_rebalance")
	defer span.End()

	if directive == nil || directive.InjectionAmount == nil || directive.VaultBalance == nil {
		return l.reject(span, "apply_rebalance", start, ErrInvalidAmount)
	}
	currency := normaliseCurrency(directive.VaultID)
	span.SetAttributes(attribute.String("vault", currency))

	l.mu.Lock()
	defer l.mu.Unlock()

	vault, ok := l.vaults[currency]
	if !ok {
		return l.reject(span, "apply_rebalance", start, ErrVaultNotFound)
	}
	if vault.Balance.Cmp(directive.VaultBalance) != 0 {
		return l.reject(span, "apply_rebalance", start, ErrStaleSnapshot)
	}
	if directive.InjectionAmount.Sign() <= 0 {
		span.SetStatus(codes.Ok, "nothing to inject")
		l.metrics.Observe("apply_rebalance", l.now().Sub(start), nil)
		return nil
	}
	treasury := l.treasuryLocked(TreasuryRebalancer)
	if treasury.Cmp(directive.InjectionAmount) < 0 {
		return l.reject(span, "apply_rebalance", start, ErrInsufficientTreasury)
	}

	treasury.Sub(treasury, directive.InjectionAmount)
	vault.Balance.Add(vault.Balance, directive.InjectionAmount)

	l.persistVaultLocked(ctx, vault)
	l.persistTreasuryLocked(ctx, TreasuryRebalancer)

	span.SetStatus(codes.Ok, "injected")
	l.metrics.Observe("apply_rebalance", l.now().Sub(start), nil)
	return nil
}

// FundTreasury credits an operator deposit to the named treasury.
func (l *Ledger) FundTreasury(ctx context.Context, name string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.creditTreasuryLocked(name, amount)
	l.persistTreasuryLocked(ctx, name)
	return nil
}

// Vault returns a copy of the vault for the currency.
func (l *Ledger) Vault(currency string) (*Vault, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	vault, ok := l.vaults[normaliseCurrency(currency)]
	if !ok {
		return nil, false
	}
	return vault.Clone(), true
}

// Position returns a copy of the owner's position in the currency vault.
func (l *Ledger) Position(owner, currency string) (*LPPosition, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	position, ok := l.positions[positionKey(strings.TrimSpace(owner), normaliseCurrency(currency))]
	if !ok {
		return nil, false
	}
	return position.Clone(), true
}

// TreasuryBalance returns the current balance of the named treasury.
func (l *Ledger) TreasuryBalance(name string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.treasuryLocked(strings.ToLower(strings.TrimSpace(name))))
}

// PairHealth measures the current health of a vault pair. Unknown vaults
// measure as empty.
func (l *Ledger) PairHealth(currency, counterCurrency string) *big.Rat {
	l.mu.Lock()
	defer l.mu.Unlock()
	var a, b *big.Int
	if vault, ok := l.vaults[normaliseCurrency(currency)]; ok {
		a = vault.Balance
	}
	if vault, ok := l.vaults[normaliseCurrency(counterCurrency)]; ok {
		b = vault.Balance
	}
	return Health(a, b)
}

func (l *Ledger) now() time.Time {
	if l.clock != nil {
		return l.clock()
	}
	return time.Now()
}

// reject records the error on the span and metrics and passes it through.
func (l *Ledger) reject(span trace.Span, op string, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	l.metrics.Observe(op, l.now().Sub(start), err)
	return err
}

func (l *Ledger) treasuryLocked(name string) *big.Int {
	balance, ok := l.treasuries[name]
	if !ok {
		balance = big.NewInt(0)
		l.treasuries[name] = balance
	}
	return balance
}

func (l *Ledger) creditTreasuryLocked(name string, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	balance := l.treasuryLocked(name)
	balance.Add(balance, amount)
}

// vaultPositionKeysLocked returns the position keys for a vault in sorted
// order so proportional distributions are deterministic.
func (l *Ledger) vaultPositionKeysLocked(currency string) []string {
	keys := make([]string, 0)
	for key, position := range l.positions {
		if position.Vault == currency {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Persistence failures are logged, not surfaced: the in-memory state is
// authoritative within a process lifetime and the store reconverges on the
// next successful write.
func (l *Ledger) persistVaultLocked(ctx context.Context, vault *Vault) {
	if l.persist == nil {
		return
	}
	record := VaultRecord{
		Currency:    vault.Currency,
		Balance:     vault.Balance.String(),
		AccruedFees: vault.AccruedFees.String(),
	}
	if err := l.persist.SaveVault(ctx, record); err != nil {
		slog.Error("fxvault: persist vault", "vault", vault.Currency, "error", err)
	}
}

func (l *Ledger) persistPositionLocked(ctx context.Context, position *LPPosition) {
	if l.persist == nil {
		return
	}
	record := PositionRecord{
		Owner:         position.Owner,
		Vault:         position.Vault,
		Amount:        position.Amount.String(),
		DepositTime:   position.DepositTime,
		RewardAccrued: position.RewardAccrued.String(),
	}
	if err := l.persist.SavePosition(ctx, record); err != nil {
		slog.Error("fxvault: persist position", "vault", position.Vault, "owner", position.Owner, "error", err)
	}
}

func (l *Ledger) deletePositionLocked(ctx context.Context, owner, currency string) {
	if l.persist == nil {
		return
	}
	if err := l.persist.DeletePosition(ctx, owner, currency); err != nil {
		slog.Error("fxvault: delete position", "vault", currency, "owner", owner, "error", err)
	}
}

func (l *Ledger) persistTreasuryLocked(ctx context.Context, name string) {
	if l.persist == nil {
		return
	}
	record := TreasuryRecord{Name: name, Balance: l.treasuryLocked(name).String()}
	if err := l.persist.SaveTreasury(ctx, record); err != nil {
		slog.Error("fxvault: persist treasury", "treasury", name, "error", err)
	}
}

// mergeDepositTime computes the weighted-average timestamp for a merged
// position, flooring.
func mergeDepositTime(existingAmount *big.Int, existingTime int64, addedAmount *big.Int, now int64) int64 {
	if existingAmount == nil || existingAmount.Sign() <= 0 {
		return now
	}
	weighted := new(big.Int).Mul(existingAmount, big.NewInt(existingTime))
	weighted.Add(weighted, new(big.Int).Mul(addedAmount, big.NewInt(now)))
	total := new(big.Int).Add(existingAmount, addedAmount)
	weighted.Quo(weighted, total)
	return weighted.Int64()
}

func positionKey(owner, currency string) string {
	return owner + "/" + currency
}

func normaliseCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

func parseAmount(value string) *big.Int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return big.NewInt(0)
	}
	return amount
}
