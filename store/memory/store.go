// Package memory is an in-process store.Store.
//
// A transition takes the write lock, stages its writes in an overlay and
// applies the overlay only when the callback returns nil, so transitions
// are serialized and all-or-nothing.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/checked"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/subscription"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	balances      map[account.Address]uint64
	plans         map[account.Address]*plan.Plan
	subscriptions map[account.Address]*subscription.Subscription
	closed        bool
}

func New() *Store {
	return &Store{
		balances:      make(map[account.Address]uint64),
		plans:         make(map[account.Address]*plan.Plan),
		subscriptions: make(map[account.Address]*subscription.Subscription),
	}
}

func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return subledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Store) Balance(_ context.Context, addr account.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[addr], nil
}

func (s *Store) GetPlan(_ context.Context, addr account.Address) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.plans[addr]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, subledger.ErrPlanNotFound
}

func (s *Store) GetSubscription(_ context.Context, addr account.Address) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.subscriptions[addr]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, subledger.ErrSubscriptionNotFound
}

// RunInTx implements store.Store.
func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subledger.ErrStoreClosed
	}

	tx := &memTx{
		base:          s,
		balances:      make(map[account.Address]uint64),
		plans:         make(map[account.Address]*plan.Plan),
		subscriptions: make(map[account.Address]*subscription.Subscription),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for addr, b := range tx.balances {
		s.balances[addr] = b
	}
	for addr, p := range tx.plans {
		s.plans[addr] = p
	}
	for addr, sub := range tx.subscriptions {
		s.subscriptions[addr] = sub
	}
	return nil
}

// memTx is an overlay over the locked base store.
type memTx struct {
	base *Store

	balances      map[account.Address]uint64
	plans         map[account.Address]*plan.Plan
	subscriptions map[account.Address]*subscription.Subscription
}

func (t *memTx) Balance(_ context.Context, addr account.Address) (uint64, error) {
	return t.balance(addr), nil
}

func (t *memTx) balance(addr account.Address) uint64 {
	if b, ok := t.balances[addr]; ok {
		return b
	}
	return t.base.balances[addr]
}

func (t *memTx) Credit(_ context.Context, addr account.Address, amount uint64) error {
	next, err := checked.AddU64(t.balance(addr), amount)
	if err != nil {
		return err
	}
	t.balances[addr] = next
	return nil
}

func (t *memTx) Transfer(_ context.Context, from, to account.Address, amount uint64) error {
	fromNext, err := checked.SubU64(t.balance(from), amount)
	if err != nil {
		return subledger.ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toNext, err := checked.AddU64(t.balance(to), amount)
	if err != nil {
		return err
	}
	t.balances[from] = fromNext
	t.balances[to] = toNext
	return nil
}

func (t *memTx) occupied(addr account.Address) bool {
	if _, ok := t.plans[addr]; ok {
		return true
	}
	if _, ok := t.subscriptions[addr]; ok {
		return true
	}
	if _, ok := t.base.plans[addr]; ok {
		return true
	}
	_, ok := t.base.subscriptions[addr]
	return ok
}

func (t *memTx) InsertPlan(_ context.Context, p *plan.Plan) error {
	if t.occupied(p.Address) {
		return subledger.ErrAlreadyInitialized
	}
	cp := *p
	t.plans[p.Address] = &cp
	return nil
}

func (t *memTx) GetPlan(_ context.Context, addr account.Address) (*plan.Plan, error) {
	p, ok := t.plans[addr]
	if !ok {
		p, ok = t.base.plans[addr]
	}
	if !ok {
		return nil, subledger.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) InsertSubscription(_ context.Context, sub *subscription.Subscription) error {
	if t.occupied(sub.Address) {
		return subledger.ErrAlreadyInitialized
	}
	cp := *sub
	t.subscriptions[sub.Address] = &cp
	return nil
}

func (t *memTx) GetSubscription(_ context.Context, addr account.Address) (*subscription.Subscription, error) {
	sub, ok := t.subscriptions[addr]
	if !ok {
		sub, ok = t.base.subscriptions[addr]
	}
	if !ok {
		return nil, subledger.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}
