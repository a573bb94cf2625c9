package subledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/clock"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/plugin"
	"github.com/xraph/subledger/rent"
	"github.com/xraph/subledger/store"
)

// Protocol limits.
const (
	MaxPlanPrice         uint64 = 1_000_000_000_000
	MaxDurationDays      uint32 = 365
	MaxPlanNameLength           = 200
	TransactionFeeBuffer uint64 = 10_000_000
	SecondsPerDay        int64  = 86_400
)

// Ledger is the subscription marketplace engine.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   clock.Clock
	rent    rent.Calculator
}

// New creates a new Ledger over s.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		clock:   clock.System{},
		rent:    rent.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		if err := l.plugins.Register(p); err != nil {
			l.logger.Warn("plugin not registered", "name", p.Name(), "error", err)
		}
	}
}

// WithHookTimeout bounds each plugin hook call. Non-positive values keep
// plugin.DefaultHookTimeout.
func WithHookTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.plugins.WithTimeout(d)
		}
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithRent sets the rent schedule used to size record allocations.
func WithRent(c rent.Calculator) Option {
	return func(l *Ledger) { l.rent = c }
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return fmt.Errorf("subledger: migrate: %w", err)
	}

	l.plugins.EmitInit(ctx)

	l.logger.Info("subledger started",
		"plugins", l.plugins.Count(),
		"rent_per_byte_year", l.rent.LamportsPerByteYear,
	)
	return nil
}

// Stop shuts plugins down and closes the store.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())
	return l.store.Close()
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Now reads the engine clock.
func (l *Ledger) Now() int64 { return l.clock.Now() }

// RentFor returns the minimum balance of a record of size bytes.
func (l *Ledger) RentFor(size uint64) (uint64, error) {
	return l.rent.MinimumBalance(size)
}

// ──────────────────────────────────────────────────
// Transitions
// ──────────────────────────────────────────────────

// transition runs fn as one atomic store transaction and reports aborts to
// plugins. Either everything fn wrote commits or none of it does.
func (l *Ledger) transition(ctx context.Context, op string, actor account.Address, fn store.TxFunc) (id.TxID, error) {
	txID := id.NewTxID()
	log := l.logger.With("tx_id", txID.String(), "op", op, "actor", actor.String())

	err := l.store.RunInTx(ctx, fn)
	if err != nil {
		level := slog.LevelWarn
		if CodeOf(err) == "" && !errors.Is(err, context.Canceled) {
			level = slog.LevelError
		}
		log.Log(ctx, level, "transition aborted", "code", CodeOf(err), "error", err)
		l.plugins.EmitTransitionFailed(ctx, &plugin.TransitionFailed{
			ID:        id.NewEventID(),
			TxID:      txID,
			Operation: op,
			Actor:     actor,
			Code:      CodeOf(err),
			Err:       err,
		})
		return txID, err
	}

	log.Debug("transition committed")
	return txID, nil
}

// allocate reserves a record slot at addr: the insert fails if the slot
// is occupied, then payer funds the slot's minimum balance.
func allocate(ctx context.Context, tx store.Tx, payer, addr account.Address, rentDue uint64, insert func() error) error {
	if err := insert(); err != nil {
		return err
	}
	return tx.Transfer(ctx, payer, addr, rentDue)
}

// reportFailure emits a TransitionFailed event for a precondition that
// failed before any transaction was opened.
func (l *Ledger) reportFailure(ctx context.Context, op string, actor account.Address, err error) error {
	l.logger.Warn("operation rejected", "op", op, "actor", actor.String(), "code", CodeOf(err), "error", err)
	l.plugins.EmitTransitionFailed(ctx, &plugin.TransitionFailed{
		ID:        id.NewEventID(),
		Operation: op,
		Actor:     actor,
		Code:      CodeOf(err),
		Err:       err,
	})
	return err
}
