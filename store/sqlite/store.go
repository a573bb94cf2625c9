// Package sqlite implements store.Store on SQLite using the pure Go
// modernc.org/sqlite driver.
//
// The pool is limited to one connection, so transitions are serialized by
// the database handle itself.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/checked"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/subscription"
)

var _ store.Store = (*Store)(nil)

// Store implements store.Store over a *sql.DB.
type Store struct {
	db *sql.DB
}

// Open opens the database at path (":memory:" for an in-memory database)
// with WAL journaling and a busy timeout.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("subledger/sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("subledger/sqlite: ping: %w", err)
	}
	return New(db), nil
}

// New wraps an open database. Callers must keep it to one connection.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS subledger_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
)`); err != nil {
		return fmt.Errorf("subledger/sqlite: create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("subledger/sqlite: migration %s: %w", m.name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM subledger_migrations WHERE version = ?`, m.version).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, m.up); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO subledger_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
		return err
	}
	return tx.Commit()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// RunInTx implements store.Store.
func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("subledger/sqlite: begin: %w", err)
	}
	if err := fn(ctx, &sqlTx{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("subledger/sqlite: commit: %w", err)
	}
	return nil
}

func (s *Store) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	return readBalance(ctx, s.db, addr)
}

func (s *Store) GetPlan(ctx context.Context, addr account.Address) (*plan.Plan, error) {
	return readPlan(ctx, s.db, addr)
}

func (s *Store) GetSubscription(ctx context.Context, addr account.Address) (*subscription.Subscription, error) {
	return readSubscription(ctx, s.db, addr)
}

// ──────────────────────────────────────────────────
// Queries shared by Store and sqlTx
// ──────────────────────────────────────────────────

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readBalance(ctx context.Context, q querier, addr account.Address) (uint64, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT balance FROM subledger_accounts WHERE address = ?`, addr.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("subledger/sqlite: get balance: %w", err)
	}
	return parseUint(raw)
}

func readPlan(ctx context.Context, q querier, addr account.Address) (*plan.Plan, error) {
	var (
		p             plan.Plan
		planID, price string
	)
	err := q.QueryRowContext(ctx, `
SELECT address, creator, plan_id, name, price, duration_days, created_at
FROM subledger_plans WHERE address = ?`, addr.String()).
		Scan(&p.Address, &p.Creator, &planID, &p.Name, &price, &p.DurationDays, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subledger.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("subledger/sqlite: get plan: %w", err)
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
		sub    subscription.Subscription
		planID string
	)
	err := q.QueryRowContext(ctx, `
SELECT address, subscriber, creator, plan_id, created_at, expires_at
FROM subledger_subscriptions WHERE address = ?`, addr.String()).
		Scan(&sub.Address, &sub.Subscriber, &sub.Creator, &planID, &sub.CreatedAt, &sub.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subledger.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("subledger/sqlite: get subscription: %w", err)
	}
	if sub.PlanID, err = parseUint(planID); err != nil {
		return nil, err
	}
	return &sub, nil
}

func parseUint(raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subledger/sqlite: corrupt unsigned value %q: %w", raw, err)
	}
	return v, nil
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

// ──────────────────────────────────────────────────
// Transition
// ──────────────────────────────────────────────────

type sqlTx struct {
	q querier
}

func (t *sqlTx) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	return readBalance(ctx, t.q, addr)
}

func (t *sqlTx) GetPlan(ctx context.Context, addr account.Address) (*plan.Plan, error) {
	return readPlan(ctx, t.q, addr)
}

func (t *sqlTx) GetSubscription(ctx context.Context, addr account.Address) (*subscription.Subscription, error) {
	return readSubscription(ctx, t.q, addr)
}

func (t *sqlTx) setBalance(ctx context.Context, addr account.Address, balance uint64) error {
	_, err := t.q.ExecContext(ctx, `
INSERT INTO subledger_accounts (address, balance) VALUES (?, ?)
ON CONFLICT (address) DO UPDATE SET balance = excluded.balance`, addr.String(), formatUint(balance))
	if err != nil {
		return fmt.Errorf("subledger/sqlite: set balance: %w", err)
	}
	return nil
}

func (t *sqlTx) Credit(ctx context.Context, addr account.Address, amount uint64) error {
	current, err := t.Balance(ctx, addr)
	if err != nil {
		return err
	}
	next, err := checked.AddU64(current, amount)
	if err != nil {
		return err
	}
	return t.setBalance(ctx, addr, next)
}

func (t *sqlTx) Transfer(ctx context.Context, from, to account.Address, amount uint64) error {
	fromBal, err := t.Balance(ctx, from)
	if err != nil {
		return err
	}
	fromNext, err := checked.SubU64(fromBal, amount)
	if err != nil {
		return subledger.ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBal, err := t.Balance(ctx, to)
	if err != nil {
		return err
	}
	toNext, err := checked.AddU64(toBal, amount)
	if err != nil {
		return err
	}
	if err := t.setBalance(ctx, from, fromNext); err != nil {
		return err
	}
	return t.setBalance(ctx, to, toNext)
}

func (t *sqlTx) InsertPlan(ctx context.Context, p *plan.Plan) error {
	if err := t.vacant(ctx, "subledger_subscriptions", p.Address); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx, `
INSERT INTO subledger_plans (address, creator, plan_id, name, price, duration_days, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (address) DO NOTHING`,
		p.Address.String(), p.Creator.String(), formatUint(p.PlanID), p.Name, formatUint(p.Price), p.DurationDays, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("subledger/sqlite: insert plan: %w", err)
	}
	return insertedOne(res)
}

func (t *sqlTx) InsertSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if err := t.vacant(ctx, "subledger_plans", sub.Address); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx, `
INSERT INTO subledger_subscriptions (address, subscriber, creator, plan_id, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (address) DO NOTHING`,
		sub.Address.String(), sub.Subscriber.String(), sub.Creator.String(), formatUint(sub.PlanID), sub.CreatedAt, sub.ExpiresAt)
	if err != nil {
		return fmt.Errorf("subledger/sqlite: insert subscription: %w", err)
	}
	return insertedOne(res)
}

// vacant fails with ErrAlreadyInitialized when addr holds a record in the
// other record table. Conflicts in the target table are left to the insert.
func (t *sqlTx) vacant(ctx context.Context, table string, addr account.Address) error {
	var n int
	err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE address = ?`, addr.String()).Scan(&n)
	if err != nil {
		return fmt.Errorf("subledger/sqlite: check address: %w", err)
	}
	if n > 0 {
		return subledger.ErrAlreadyInitialized
	}
	return nil
}

// insertedOne maps a conflict-skipped insert to ErrAlreadyInitialized.
func insertedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("subledger/sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return subledger.ErrAlreadyInitialized
	}
	return nil
}
