// Package store defines the persistence contract for subledger.
//
// Every mutating engine operation runs inside RunInTx. Backends must make
// the whole callback commit or roll back as one unit and must serialize
// transitions that touch the same addresses.
package store

import (
	"context"

	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/subscription"
)

// Reader is the read side shared by Store and Tx.
type Reader interface {
	// Balance returns the spendable balance of addr. Unknown accounts
	// hold zero.
	Balance(ctx context.Context, addr account.Address) (uint64, error)

	GetPlan(ctx context.Context, addr account.Address) (*plan.Plan, error)
	GetSubscription(ctx context.Context, addr account.Address) (*subscription.Subscription, error)
}

// Tx is one atomic transition.
type Tx interface {
	Reader
	plan.Store
	subscription.Store

	// Credit adds amount to addr. Overflow aborts the transition.
	Credit(ctx context.Context, addr account.Address, amount uint64) error

	// Transfer moves exactly amount from one account to another, failing
	// with an insufficient-balance error when from holds less.
	Transfer(ctx context.Context, from, to account.Address, amount uint64) error
}

// TxFunc is the body of a transition.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the unified storage interface.
type Store interface {
	Reader

	// RunInTx runs fn as a single transition. If fn returns an error
	// nothing it wrote is visible afterwards and the error is returned
	// unchanged.
	RunInTx(ctx context.Context, fn TxFunc) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
