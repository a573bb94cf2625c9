// Package storetest is a conformance suite run against every store.Store
// backend.
package storetest

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/auth"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/rent"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/subscription"
)

// Factory returns a fresh, migrated, empty store.
type Factory func(t *testing.T) store.Store

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"UnknownAccountHoldsZero", testUnknownAccount},
		{"CreditAndTransfer", testCreditAndTransfer},
		{"TransferInsufficientBalance", testTransferInsufficient},
		{"CreditOverflow", testCreditOverflow},
		{"PlanRoundTrip", testPlanRoundTrip},
		{"SubscriptionRoundTrip", testSubscriptionRoundTrip},
		{"AlreadyInitialized", testAlreadyInitialized},
		{"RollbackOnError", testRollback},
		{"ReadYourWrites", testReadYourWrites},
		{"ConcurrentAllocation", testConcurrentAllocation},
		{"AddressSharedAcrossRecordTypes", testAddressSharedAcrossRecordTypes},
		{"ConcurrentSubscribeHoldsBalance", testConcurrentSubscribeHoldsBalance},
		{"LargeValues", testLargeValues},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			tt.fn(t, s)
		})
	}
}

func addr(b byte) account.Address {
	var a account.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func credit(t *testing.T, s store.Store, a account.Address, amount uint64) {
	t.Helper()
	require.NoError(t, s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Credit(ctx, a, amount)
	}))
}

func balance(t *testing.T, s store.Store, a account.Address) uint64 {
	t.Helper()
	b, err := s.Balance(context.Background(), a)
	require.NoError(t, err)
	return b
}

func samplePlan(creator account.Address, planID uint64) *plan.Plan {
	return &plan.Plan{
		Address:      account.PlanAddress(creator, planID),
		Creator:      creator,
		PlanID:       planID,
		Name:         "Pro  tier ✓",
		Price:        1_000,
		DurationDays: 30,
		CreatedAt:    1_700_000_000,
	}
}

func testUnknownAccount(t *testing.T, s store.Store) {
	assert.Zero(t, balance(t, s, addr(9)))
}

func testCreditAndTransfer(t *testing.T, s store.Store) {
	a, b := addr(1), addr(2)
	credit(t, s, a, 500)

	require.NoError(t, s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Transfer(ctx, a, b, 200)
	}))

	assert.Equal(t, uint64(300), balance(t, s, a))
	assert.Equal(t, uint64(200), balance(t, s, b))
}

func testTransferInsufficient(t *testing.T, s store.Store) {
	a, b := addr(1), addr(2)
	credit(t, s, a, 10)

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Transfer(ctx, a, b, 11)
	})
	require.ErrorIs(t, err, subledger.ErrInsufficientBalance)
	assert.Equal(t, uint64(10), balance(t, s, a))
	assert.Zero(t, balance(t, s, b))
}

func testCreditOverflow(t *testing.T, s store.Store) {
	a := addr(1)
	credit(t, s, a, math.MaxUint64)

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Credit(ctx, a, 1)
	})
	require.ErrorIs(t, err, subledger.ErrMathOverflow)
	assert.Equal(t, uint64(math.MaxUint64), balance(t, s, a))
}

func testPlanRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := samplePlan(addr(1), 42)

	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertPlan(ctx, p)
	}))

	got, err := s.GetPlan(ctx, p.Address)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = s.GetPlan(ctx, addr(7))
	require.ErrorIs(t, err, subledger.ErrPlanNotFound)
}

func testSubscriptionRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	sub := &subscription.Subscription{
		Address:    account.SubscriptionAddress(addr(2), addr(1), 42),
		Subscriber: addr(2),
		Creator:    addr(1),
		PlanID:     42,
		CreatedAt:  1_700_000_000,
		ExpiresAt:  1_702_592_000,
	}

	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertSubscription(ctx, sub)
	}))

	got, err := s.GetSubscription(ctx, sub.Address)
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	_, err = s.GetSubscription(ctx, addr(7))
	require.ErrorIs(t, err, subledger.ErrSubscriptionNotFound)
}

func testAlreadyInitialized(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := samplePlan(addr(1), 1)

	insert := func(p *plan.Plan) error {
		return s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.InsertPlan(ctx, p)
		})
	}
	require.NoError(t, insert(p))

	dup := *p
	dup.Name = "overwrite attempt"
	require.ErrorIs(t, insert(&dup), subledger.ErrAlreadyInitialized)

	got, err := s.GetPlan(ctx, p.Address)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
}

func testRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, b := addr(1), addr(2)
	credit(t, s, a, 1_000)
	p := samplePlan(a, 5)

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Transfer(ctx, a, b, 600); err != nil {
			return err
		}
		if err := tx.InsertPlan(ctx, p); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, uint64(1_000), balance(t, s, a))
	assert.Zero(t, balance(t, s, b))
	_, err = s.GetPlan(ctx, p.Address)
	require.ErrorIs(t, err, subledger.ErrPlanNotFound)
}

func testReadYourWrites(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := addr(1)
	p := samplePlan(a, 3)

	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Credit(ctx, a, 70); err != nil {
			return err
		}
		b, err := tx.Balance(ctx, a)
		if err != nil {
			return err
		}
		if b != 70 {
			return errors.New("credit not visible inside transition")
		}
		if err := tx.InsertPlan(ctx, p); err != nil {
			return err
		}
		if _, err := tx.GetPlan(ctx, p.Address); err != nil {
			return err
		}
		return nil
	}))
}

func testConcurrentAllocation(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := samplePlan(addr(1), 77)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dup       int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
				return tx.InsertPlan(ctx, p)
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, subledger.ErrAlreadyInitialized):
				dup++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, dup)
}

func testLargeValues(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := samplePlan(addr(3), math.MaxUint64)

	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertPlan(ctx, p)
	}))
	got, err := s.GetPlan(ctx, p.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got.PlanID)
}

func testAddressSharedAcrossRecordTypes(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := samplePlan(addr(4), 1)

	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertPlan(ctx, p)
	}))
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertSubscription(ctx, &subscription.Subscription{
			Address:    p.Address,
			Subscriber: addr(5),
			Creator:    p.Creator,
			PlanID:     p.PlanID,
			CreatedAt:  1,
			ExpiresAt:  2,
		})
	})
	assert.ErrorIs(t, err, subledger.ErrAlreadyInitialized)

	_, err = s.GetSubscription(ctx, p.Address)
	assert.ErrorIs(t, err, subledger.ErrSubscriptionNotFound)
}

// One subscriber funded just below two subscriptions races two Subscribe
// calls on different plans: the balance check must hold until commit.
func testConcurrentSubscribeHoldsBalance(t *testing.T, s store.Store) {
	ctx := context.Background()
	l := subledger.New(s)
	require.NoError(t, l.Start(ctx))

	const price = 1_000
	subRent, err := rent.Default().MinimumBalance(subscription.Size)
	require.NoError(t, err)
	required := price + subRent + subledger.TransactionFeeBuffer

	var plans []*plan.Plan
	for range 2 {
		creator, err := auth.GenerateKeypair()
		require.NoError(t, err)
		_, err = l.Airdrop(ctx, creator.Address(), 1_000_000_000)
		require.NoError(t, err)
		p, err := l.CreatePlan(ctx, creator.Signer(), subledger.CreatePlanInput{
			PlanID: 1, Name: "Pro", Price: price, DurationDays: 30,
		})
		require.NoError(t, err)
		plans = append(plans, p)
	}

	subscriber, err := auth.GenerateKeypair()
	require.NoError(t, err)
	_, err = l.Airdrop(ctx, subscriber.Address(), 2*required-1)
	require.NoError(t, err)

	errs := make([]error, len(plans))
	var wg sync.WaitGroup
	for i, p := range plans {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = l.Subscribe(ctx, subscriber.Signer(), subledger.SubscribeInput{
				Plan:    p.Address,
				Creator: p.Creator,
			})
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, subledger.ErrInsufficientFunds)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2*required-1-price-subRent, balance(t, s, subscriber.Address()))
}
