// Package postgres implements store.Store on PostgreSQL with pgx.
//
// Transitions run in READ COMMITTED transactions. Every account row a
// transition reads or writes is locked with SELECT ... FOR UPDATE, so a
// balance precondition holds until commit. Transfers lock in address
// order; transitions aborted by a deadlock or serialization failure are
// retried. Record inserts rely on primary-key conflicts.
package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/checked"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/subscription"
)

var _ store.Store = (*Store)(nil)

// Store implements store.Store over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("subledger/postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("subledger/postgres: ping: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying pool.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate applies pending schema migrations under an advisory lock.
func (s *Store) Migrate(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('subledger_migrations'))`); err != nil {
			return fmt.Errorf("subledger/postgres: migration lock: %w", err)
		}
		if _, err := tx.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subledger_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
			return fmt.Errorf("subledger/postgres: create migrations table: %w", err)
		}

		for _, m := range migrations {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subledger_migrations WHERE version = $1)`, m.version).Scan(&exists); err != nil {
				return fmt.Errorf("subledger/postgres: migration %s: %w", m.name, err)
			}
			if exists {
				continue
			}
			if _, err := tx.Exec(ctx, m.up); err != nil {
				return fmt.Errorf("subledger/postgres: migration %s: %w", m.name, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO subledger_migrations (version, name) VALUES ($1, $2)`, m.version, m.name); err != nil {
				return fmt.Errorf("subledger/postgres: migration %s: %w", m.name, err)
			}
		}
		return nil
	})
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// maxAttempts bounds retries of transitions PostgreSQL aborted.
const maxAttempts = 5

// RunInTx implements store.Store.
func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = s.runOnce(ctx, fn); !retryable(err) {
			return err
		}
	}
	return err
}

// retryable reports whether err is a deadlock or serialization failure.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func (s *Store) runOnce(ctx context.Context, fn store.TxFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("subledger/postgres: begin: %w", err)
	}
	if err := fn(ctx, &pgTx{q: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("subledger/postgres: commit: %w", err)
	}
	return nil
}

func (s *Store) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	return readBalance(ctx, s.pool, addr, false)
}

func (s *Store) GetPlan(ctx context.Context, addr account.Address) (*plan.Plan, error) {
	return readPlan(ctx, s.pool, addr)
}

func (s *Store) GetSubscription(ctx context.Context, addr account.Address) (*subscription.Subscription, error) {
	return readSubscription(ctx, s.pool, addr)
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func readBalance(ctx context.Context, q querier, addr account.Address, forUpdate bool) (uint64, error) {
	query := `SELECT balance::text FROM subledger_accounts WHERE address = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var raw string
	err := q.QueryRow(ctx, query, addr.String()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("subledger/postgres: get balance: %w", err)
	}
	return parseUint(raw)
}

func readPlan(ctx context.Context, q querier, addr account.Address) (*plan.Plan, error) {
	var (
		p                plan.Plan
		address, creator string
		planID, price    string
	)
	err := q.QueryRow(ctx, `
SELECT address, creator, plan_id::text, name, price::text, duration_days, created_at
FROM subledger_plans WHERE address = $1`, addr.String()).
		Scan(&address, &creator, &planID, &p.Name, &price, &p.DurationDays, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, subledger.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("subledger/postgres: get plan: %w", err)
	}
	if p.Address, err = account.Parse(address); err != nil {
		return nil, err
	}
	if p.Creator, err = account.Parse(creator); err != nil {
		return nil, err
	}
	if p.PlanID, err = parseUint(planID); err != nil {
		return nil, err
	}
	if p.Price, err = parseUint(price); err != nil {
		return nil, err
	}
	return &p, nil
}

func readSubscription(ctx context.Context, q querier, addr account.Address) (*subscription.Subscription, error) {
	var (
		sub                          subscription.Subscription
		address, subscriber, creator string
		planID                       string
	)
	err := q.QueryRow(ctx, `
SELECT address, subscriber, creator, plan_id::text, created_at, expires_at
FROM subledger_subscriptions WHERE address = $1`, addr.String()).
		Scan(&address, &subscriber, &creator, &planID, &sub.CreatedAt, &sub.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, subledger.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("subledger/postgres: get subscription: %w", err)
	}
	if sub.Address, err = account.Parse(address); err != nil {
		return nil, err
	}
	if sub.Subscriber, err = account.Parse(subscriber); err != nil {
		return nil, err
	}
	if sub.Creator, err = account.Parse(creator); err != nil {
		return nil, err
	}
	if sub.PlanID, err = parseUint(planID); err != nil {
		return nil, err
	}
	return &sub, nil
}

func parseUint(raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subledger/postgres: corrupt unsigned value %q: %w", raw, err)
	}
	return v, nil
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

// ──────────────────────────────────────────────────
// Transition
// ──────────────────────────────────────────────────

type pgTx struct {
	q pgx.Tx
}

// Balance locks addr so the value read stays current until commit.
func (t *pgTx) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	return t.lock(ctx, addr)
}

func (t *pgTx) GetPlan(ctx context.Context, addr account.Address) (*plan.Plan, error) {
	return readPlan(ctx, t.q, addr)
}

func (t *pgTx) GetSubscription(ctx context.Context, addr account.Address) (*subscription.Subscription, error) {
	return readSubscription(ctx, t.q, addr)
}

// lock ensures addr has a row and locks it for the rest of the transition.
func (t *pgTx) lock(ctx context.Context, addr account.Address) (uint64, error) {
	if _, err := t.q.Exec(ctx, `
INSERT INTO subledger_accounts (address, balance) VALUES ($1, 0)
ON CONFLICT (address) DO NOTHING`, addr.String()); err != nil {
		return 0, fmt.Errorf("subledger/postgres: ensure account: %w", err)
	}
	return readBalance(ctx, t.q, addr, true)
}

func (t *pgTx) setBalance(ctx context.Context, addr account.Address, balance uint64) error {
	_, err := t.q.Exec(ctx, `UPDATE subledger_accounts SET balance = $2::text::numeric WHERE address = $1`,
		addr.String(), formatUint(balance))
	if err != nil {
		return fmt.Errorf("subledger/postgres: set balance: %w", err)
	}
	return nil
}

func (t *pgTx) Credit(ctx context.Context, addr account.Address, amount uint64) error {
	current, err := t.lock(ctx, addr)
	if err != nil {
		return err
	}
	next, err := checked.AddU64(current, amount)
	if err != nil {
		return err
	}
	return t.setBalance(ctx, addr, next)
}

func (t *pgTx) Transfer(ctx context.Context, from, to account.Address, amount uint64) error {
	// Lock in address order so opposing transfers cannot deadlock.
	first, second := from, to
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}
	balances := make(map[account.Address]uint64, 2)
	for _, a := range []account.Address{first, second} {
		if _, seen := balances[a]; seen {
			continue
		}
		b, err := t.lock(ctx, a)
		if err != nil {
			return err
		}
		balances[a] = b
	}

	fromNext, err := checked.SubU64(balances[from], amount)
	if err != nil {
		return subledger.ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toNext, err := checked.AddU64(balances[to], amount)
	if err != nil {
		return err
	}
	if err := t.setBalance(ctx, from, fromNext); err != nil {
		return err
	}
	return t.setBalance(ctx, to, toNext)
}

func (t *pgTx) InsertPlan(ctx context.Context, p *plan.Plan) error {
	if err := t.vacant(ctx, "subledger_subscriptions", p.Address); err != nil {
		return err
	}
	tag, err := t.q.Exec(ctx, `
INSERT INTO subledger_plans (address, creator, plan_id, name, price, duration_days, created_at)
VALUES ($1, $2, $3::text::numeric, $4, $5::text::numeric, $6, $7)
ON CONFLICT (address) DO NOTHING`,
		p.Address.String(), p.Creator.String(), formatUint(p.PlanID), p.Name, formatUint(p.Price), int32(p.DurationDays), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("subledger/postgres: insert plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subledger.ErrAlreadyInitialized
	}
	return nil
}

func (t *pgTx) InsertSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if err := t.vacant(ctx, "subledger_plans", sub.Address); err != nil {
		return err
	}
	tag, err := t.q.Exec(ctx, `
INSERT INTO subledger_subscriptions (address, subscriber, creator, plan_id, created_at, expires_at)
VALUES ($1, $2, $3, $4::text::numeric, $5, $6)
ON CONFLICT (address) DO NOTHING`,
		sub.Address.String(), sub.Subscriber.String(), sub.Creator.String(), formatUint(sub.PlanID), sub.CreatedAt, sub.ExpiresAt)
	if err != nil {
		return fmt.Errorf("subledger/postgres: insert subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subledger.ErrAlreadyInitialized
	}
	return nil
}

// vacant fails with ErrAlreadyInitialized when addr holds a record in the
// other record table.
func (t *pgTx) vacant(ctx context.Context, table string, addr account.Address) error {
	var exists bool
	err := t.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE address = $1)`, addr.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("subledger/postgres: check address: %w", err)
	}
	if exists {
		return subledger.ErrAlreadyInitialized
	}
	return nil
}
