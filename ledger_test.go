package subledger_test

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/auth"
	"github.com/xraph/subledger/clock"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/plugin"
	"github.com/xraph/subledger/rent"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/store/memory"
)

const (
	genesis  = int64(1_700_000_000)
	oneSOL   = uint64(1_000_000_000)
	planRent = uint64(2_784_000)
	subRent  = uint64(1_559_040)
)

type fixture struct {
	t      *testing.T
	ledger *subledger.Ledger
	store  *memory.Store
	clock  *clock.Manual
	events *eventLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()
	c := clock.NewManual(genesis)
	events := &eventLog{}
	l := subledger.New(s, subledger.WithClock(c), subledger.WithPlugin(events))
	require.NoError(t, l.Start(context.Background()))
	t.Cleanup(func() { _ = l.Stop() })
	return &fixture{t: t, ledger: l, store: s, clock: c, events: events}
}

func (f *fixture) wallet(funds uint64) *auth.Keypair {
	f.t.Helper()
	kp, err := auth.GenerateKeypair()
	require.NoError(f.t, err)
	if funds > 0 {
		_, err = f.ledger.Airdrop(context.Background(), kp.Address(), funds)
		require.NoError(f.t, err)
	}
	return kp
}

func (f *fixture) balance(a account.Address) uint64 {
	f.t.Helper()
	b, err := f.ledger.Balance(context.Background(), a)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) createPlan(creator *auth.Keypair, in subledger.CreatePlanInput) *plan.Plan {
	f.t.Helper()
	p, err := f.ledger.CreatePlan(context.Background(), creator.Signer(), in)
	require.NoError(f.t, err)
	return p
}

func basicPlan() subledger.CreatePlanInput {
	return subledger.CreatePlanInput{PlanID: 1, Name: "Basic Plan", Price: 1_000, DurationDays: 30}
}

// eventLog is a plugin recording everything it sees.
type eventLog struct {
	mu      sync.Mutex
	plans   []*plugin.PlanCreated
	subs    []*plugin.SubscriptionCreated
	checks  []*plugin.SubscriptionChecked
	failure []*plugin.TransitionFailed
}

func (e *eventLog) Name() string { return "event-log" }

func (e *eventLog) OnPlanCreated(_ context.Context, evt *plugin.PlanCreated) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plans = append(e.plans, evt)
	return nil
}

func (e *eventLog) OnSubscriptionCreated(_ context.Context, evt *plugin.SubscriptionCreated) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, evt)
	return nil
}

func (e *eventLog) OnSubscriptionChecked(_ context.Context, evt *plugin.SubscriptionChecked) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checks = append(e.checks, evt)
	return nil
}

func (e *eventLog) OnTransitionFailed(_ context.Context, evt *plugin.TransitionFailed) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failure = append(e.failure, evt)
	return nil
}

func (e *eventLog) failures() []*plugin.TransitionFailed {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*plugin.TransitionFailed(nil), e.failure...)
}

// ──────────────────────────────────────────────────
// createPlan
// ──────────────────────────────────────────────────

func TestCreatePlan(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(2 * oneSOL)

	p := f.createPlan(creator, basicPlan())

	got, err := f.ledger.GetPlan(context.Background(), account.PlanAddress(creator.Address(), 1))
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Equal(t, creator.Address(), got.Creator)
	assert.Equal(t, "Basic Plan", got.Name)
	assert.Equal(t, uint64(1_000), got.Price)
	assert.Equal(t, uint32(30), got.DurationDays)
	assert.Equal(t, genesis, got.CreatedAt)

	// The creator funds the record's rent and nothing else.
	assert.Equal(t, 2*oneSOL-planRent, f.balance(creator.Address()))
	assert.Equal(t, planRent, f.balance(p.Address))

	byID, err := f.ledger.GetPlanByID(context.Background(), creator.Address(), 1)
	require.NoError(t, err)
	assert.Equal(t, p, byID)

	require.Len(t, f.events.plans, 1)
	assert.Equal(t, planRent, f.events.plans[0].Rent)
	assert.False(t, f.events.plans[0].TxID.IsNil())
}

func TestCreatePlanValidation(t *testing.T) {
	tests := []struct {
		name string
		in   subledger.CreatePlanInput
		want error
	}{
		{"zero price", subledger.CreatePlanInput{PlanID: 1, Name: "x", Price: 0, DurationDays: 30}, subledger.ErrInvalidPrice},
		{"price above max", subledger.CreatePlanInput{PlanID: 1, Name: "x", Price: subledger.MaxPlanPrice + 1, DurationDays: 30}, subledger.ErrPriceTooHigh},
		{"zero duration", subledger.CreatePlanInput{PlanID: 1, Name: "x", Price: 1, DurationDays: 0}, subledger.ErrInvalidDuration},
		{"366 days", subledger.CreatePlanInput{PlanID: 1, Name: "x", Price: 1, DurationDays: 366}, subledger.ErrDurationTooLong},
		{"blank name", subledger.CreatePlanInput{PlanID: 1, Name: "   ", Price: 1, DurationDays: 30}, subledger.ErrEmptyPlanName},
		{"empty name", subledger.CreatePlanInput{PlanID: 1, Name: "", Price: 1, DurationDays: 30}, subledger.ErrEmptyPlanName},
		{"201 byte name", subledger.CreatePlanInput{PlanID: 1, Name: strings.Repeat("a", 201), Price: 1, DurationDays: 30}, subledger.ErrPlanNameTooLong},
		// The length check counts untrimmed bytes.
		{"padding counts toward length", subledger.CreatePlanInput{PlanID: 1, Name: " " + strings.Repeat("a", 200), Price: 1, DurationDays: 30}, subledger.ErrPlanNameTooLong},
		// Multi-byte runes count by byte.
		{"101 two-byte runes", subledger.CreatePlanInput{PlanID: 1, Name: strings.Repeat("é", 101), Price: 1, DurationDays: 30}, subledger.ErrPlanNameTooLong},
		{"invalid utf-8", subledger.CreatePlanInput{PlanID: 1, Name: "Pro \xff\xfe", Price: 1, DurationDays: 30}, subledger.ErrInvalidPlanName},
		{"length before encoding", subledger.CreatePlanInput{PlanID: 1, Name: strings.Repeat("\xff", 201), Price: 1, DurationDays: 30}, subledger.ErrPlanNameTooLong},
		// Price is checked before duration and name.
		{"first failure wins", subledger.CreatePlanInput{PlanID: 1, Name: "", Price: 0, DurationDays: 0}, subledger.ErrInvalidPrice},
		{"duration before name", subledger.CreatePlanInput{PlanID: 1, Name: "", Price: 5, DurationDays: 400}, subledger.ErrDurationTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			creator := f.wallet(oneSOL)

			_, err := f.ledger.CreatePlan(context.Background(), creator.Signer(), tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, subledger.IsValidationError(err))

			// No state change.
			assert.Equal(t, oneSOL, f.balance(creator.Address()))
			_, err = f.ledger.GetPlan(context.Background(), account.PlanAddress(creator.Address(), 1))
			require.ErrorIs(t, err, subledger.ErrPlanNotFound)
		})
	}
}

func TestCreatePlanBoundaries(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(oneSOL)

	f.createPlan(creator, subledger.CreatePlanInput{PlanID: 1, Name: strings.Repeat("a", 200), Price: subledger.MaxPlanPrice, DurationDays: 365})
	p := f.createPlan(creator, subledger.CreatePlanInput{PlanID: 2, Name: "  padded  ", Price: 1, DurationDays: 1})
	assert.Equal(t, "  padded  ", p.Name)
}

func TestCreatePlanInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(planRent - 1)

	_, err := f.ledger.CreatePlan(context.Background(), creator.Signer(), basicPlan())
	require.ErrorIs(t, err, subledger.ErrInsufficientFundsToCreatePlan)
	assert.True(t, subledger.IsResourceError(err))
	assert.Equal(t, planRent-1, f.balance(creator.Address()))

	failures := f.events.failures()
	require.NotEmpty(t, failures)
	assert.Equal(t, "InsufficientFundsToCreatePlan", failures[len(failures)-1].Code)
	assert.Equal(t, plugin.OpCreatePlan, failures[len(failures)-1].Operation)
}

func TestCreatePlanExactRent(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(planRent)

	f.createPlan(creator, basicPlan())
	assert.Zero(t, f.balance(creator.Address()))
}

func TestCreatePlanDuplicate(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(oneSOL)
	first := f.createPlan(creator, basicPlan())
	before := f.balance(creator.Address())

	in := basicPlan()
	in.Name = "Different"
	in.Price = 99
	_, err := f.ledger.CreatePlan(context.Background(), creator.Signer(), in)
	require.ErrorIs(t, err, subledger.ErrAlreadyInitialized)
	assert.Contains(t, err.Error(), "already in use")

	got, err := f.ledger.GetPlan(context.Background(), first.Address)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, before, f.balance(creator.Address()))
}

func TestCreatePlanRequiresSigner(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.CreatePlan(context.Background(), auth.Signer{}, basicPlan())
	require.ErrorIs(t, err, subledger.ErrUnauthorized)
	assert.True(t, subledger.IsAuthorizationError(err))
}

func TestCreatePlanRentOverflow(t *testing.T) {
	s := memory.New()
	l := subledger.New(s, subledger.WithRent(rent.Calculator{LamportsPerByteYear: math.MaxUint64, ExemptionThreshold: 2}))
	kp, err := auth.GenerateKeypair()
	require.NoError(t, err)

	_, err = l.CreatePlan(context.Background(), kp.Signer(), basicPlan())
	require.ErrorIs(t, err, subledger.ErrMathOverflow)
	assert.Equal(t, subledger.CodeMathOverflow, subledger.CodeOf(err))
}

// ──────────────────────────────────────────────────
// subscribe
// ──────────────────────────────────────────────────

func TestSubscribeScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creator := f.wallet(oneSOL)
	subscriber := f.wallet(2 * oneSOL)
	p := f.createPlan(creator, basicPlan())

	creatorBefore := f.balance(creator.Address())
	subscriberBefore := f.balance(subscriber.Address())

	sub, err := f.ledger.Subscribe(ctx, subscriber.Signer(), subledger.SubscribeInput{
		Plan:    p.Address,
		Creator: creator.Address(),
	})
	require.NoError(t, err)

	assert.Equal(t, creatorBefore+1_000, f.balance(creator.Address()))
	assert.GreaterOrEqual(t, subscriberBefore-f.balance(subscriber.Address()), uint64(1_000))
	assert.Equal(t, subscriberBefore-1_000-subRent, f.balance(subscriber.Address()))
	assert.Equal(t, subRent, f.balance(sub.Address))

	assert.Equal(t, subscriber.Address(), sub.Subscriber)
	assert.Equal(t, creator.Address(), sub.Creator)
	assert.Equal(t, uint64(1), sub.PlanID)
	assert.Equal(t, genesis, sub.CreatedAt)
	assert.Equal(t, int64(2_592_000), sub.ExpiresAt-sub.CreatedAt)
	assert.Equal(t, account.SubscriptionAddress(subscriber.Address(), creator.Address(), 1), sub.Address)

	active, err := f.ledger.CheckSubscription(ctx, sub.Address)
	require.NoError(t, err)
	assert.True(t, active)

	f.clock.Set(sub.CreatedAt + 2_591_999)
	active, err = f.ledger.CheckSubscription(ctx, sub.Address)
	require.NoError(t, err)
	assert.True(t, active)

	f.clock.Set(sub.CreatedAt + 2_592_001)
	active, err = f.ledger.CheckSubscription(ctx, sub.Address)
	require.NoError(t, err)
	assert.False(t, active)

	// The plan is untouched by subscribing.
	got, err := f.ledger.GetPlan(ctx, p.Address)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.Len(t, f.events.subs, 1)
	assert.Equal(t, uint64(1_000), f.events.subs[0].Price)
	assert.Len(t, f.events.checks, 3)
}

func TestSubscribeDerivesPlanAddress(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(oneSOL)
	subscriber := f.wallet(oneSOL)
	f.createPlan(creator, subledger.CreatePlanInput{PlanID: 9, Name: "Nine", Price: 5, DurationDays: 1})

	sub, err := f.ledger.Subscribe(context.Background(), subscriber.Signer(), subledger.SubscribeInput{
		PlanID:  9,
		Creator: creator.Address(),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), sub.PlanID)

	found, err := f.ledger.FindSubscription(context.Background(), subscriber.Address(), creator.Address(), 9)
	require.NoError(t, err)
	assert.Equal(t, sub, found)
}

func TestSubscribeOwnPlan(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(oneSOL)
	p := f.createPlan(creator, basicPlan())
	before := f.balance(creator.Address())

	_, err := f.ledger.Subscribe(context.Background(), creator.Signer(), subledger.SubscribeInput{
		Plan:    p.Address,
		Creator: creator.Address(),
	})
	require.ErrorIs(t, err, subledger.ErrCannotSubscribeToOwnPlan)
	assert.Equal(t, before, f.balance(creator.Address()))
}

func TestSubscribeCreatorMismatch(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(oneSOL)
	impostor := f.wallet(0)
	subscriber := f.wallet(oneSOL)
	p := f.createPlan(creator, basicPlan())

	_, err := f.ledger.Subscribe(context.Background(), subscriber.Signer(), subledger.SubscribeInput{
		Plan:    p.Address,
		Creator: impostor.Address(),
	})
	require.ErrorIs(t, err, subledger.ErrCreatorMismatch)
	assert.Zero(t, f.balance(impostor.Address()))
	assert.Equal(t, oneSOL, f.balance(subscriber.Address()))
}

func TestSubscribeOwnPlanCheckedBeforeMismatch(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(oneSOL)
	other := f.wallet(0)
	p := f.createPlan(creator, basicPlan())

	_, err := f.ledger.Subscribe(context.Background(), creator.Signer(), subledger.SubscribeInput{
		Plan:    p.Address,
		Creator: other.Address(),
	})
	require.ErrorIs(t, err, subledger.ErrCannotSubscribeToOwnPlan)
}

func TestSubscribeFundsBoundary(t *testing.T) {
	const price = uint64(1_000)
	required := price + subRent + subledger.TransactionFeeBuffer

	tests := []struct {
		name    string
		funds   uint64
		wantErr error
	}{
		{"one short", required - 1, subledger.ErrInsufficientFunds},
		{"exact", required, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			creator := f.wallet(oneSOL)
			subscriber := f.wallet(tt.funds)
			p := f.createPlan(creator, basicPlan())

			_, err := f.ledger.Subscribe(context.Background(), subscriber.Signer(), subledger.SubscribeInput{
				Plan:    p.Address,
				Creator: creator.Address(),
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.funds, f.balance(subscriber.Address()))
				return
			}
			require.NoError(t, err)
			// The fee buffer is required, not charged.
			assert.Equal(t, subledger.TransactionFeeBuffer, f.balance(subscriber.Address()))
		})
	}
}

func TestSubscribeDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creator := f.wallet(oneSOL)
	subscriber := f.wallet(oneSOL)
	p := f.createPlan(creator, basicPlan())
	in := subledger.SubscribeInput{Plan: p.Address, Creator: creator.Address()}

	first, err := f.ledger.Subscribe(ctx, subscriber.Signer(), in)
	require.NoError(t, err)
	creatorBefore := f.balance(creator.Address())
	subscriberBefore := f.balance(subscriber.Address())

	f.clock.Advance(100)
	_, err = f.ledger.Subscribe(ctx, subscriber.Signer(), in)
	require.ErrorIs(t, err, subledger.ErrAlreadyInitialized)

	// The failed allocation rolled back the payment too.
	assert.Equal(t, creatorBefore, f.balance(creator.Address()))
	assert.Equal(t, subscriberBefore, f.balance(subscriber.Address()))

	got, err := f.ledger.GetSubscription(ctx, first.Address)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestSubscribeConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(oneSOL)
	subscriber := f.wallet(oneSOL)
	p := f.createPlan(creator, basicPlan())
	in := subledger.SubscribeInput{Plan: p.Address, Creator: creator.Address()}
	creatorBefore := f.balance(creator.Address())

	const n = 10
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.ledger.Subscribe(context.Background(), subscriber.Signer(), in); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, creatorBefore+1_000, f.balance(creator.Address()))
}

func TestSubscribeDifferentSubscribersSamePlan(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(oneSOL)
	p := f.createPlan(creator, basicPlan())
	before := f.balance(creator.Address())

	for range 3 {
		s := f.wallet(oneSOL)
		_, err := f.ledger.Subscribe(context.Background(), s.Signer(), subledger.SubscribeInput{Plan: p.Address, Creator: creator.Address()})
		require.NoError(t, err)
	}
	assert.Equal(t, before+3_000, f.balance(creator.Address()))
}

func TestSubscribeUnknownPlan(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(0)
	subscriber := f.wallet(oneSOL)

	_, err := f.ledger.Subscribe(context.Background(), subscriber.Signer(), subledger.SubscribeInput{
		PlanID:  404,
		Creator: creator.Address(),
	})
	require.ErrorIs(t, err, subledger.ErrPlanNotFound)
	assert.True(t, subledger.IsNotFound(err))
}

func TestSubscribeMissingInput(t *testing.T) {
	f := newFixture(t)
	subscriber := f.wallet(oneSOL)

	_, err := f.ledger.Subscribe(context.Background(), subscriber.Signer(), subledger.SubscribeInput{})
	require.ErrorIs(t, err, subledger.ErrMissingPlanInput)
}

func TestSubscribeExpiryOverflow(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet(oneSOL)
	subscriber := f.wallet(oneSOL)
	p := f.createPlan(creator, basicPlan())
	creatorBefore := f.balance(creator.Address())

	f.clock.Set(math.MaxInt64 - 10)
	_, err := f.ledger.Subscribe(context.Background(), subscriber.Signer(), subledger.SubscribeInput{
		Plan:    p.Address,
		Creator: creator.Address(),
	})
	require.ErrorIs(t, err, subledger.ErrMathOverflow)
	assert.True(t, subledger.IsArithmeticError(err))

	// The payment made before the overflow was rolled back.
	assert.Equal(t, creatorBefore, f.balance(creator.Address()))
	assert.Equal(t, oneSOL, f.balance(subscriber.Address()))
}

func TestSubscribeRequiredOverflow(t *testing.T) {
	// Rent for a subscription record comes within 127 units of MaxUint64.
	const subRecordBytes = 128 + 96
	s := memory.New()
	l := subledger.New(s,
		subledger.WithClock(clock.NewManual(genesis)),
		subledger.WithRent(rent.Calculator{LamportsPerByteYear: math.MaxUint64 / subRecordBytes, ExemptionThreshold: 1}),
	)
	ctx := context.Background()

	creator, err := auth.GenerateKeypair()
	require.NoError(t, err)
	subscriber, err := auth.GenerateKeypair()
	require.NoError(t, err)

	// Seed a plan directly: its rent would be unaffordable.
	p := &plan.Plan{
		Address:      account.PlanAddress(creator.Address(), 1),
		Creator:      creator.Address(),
		PlanID:       1,
		Name:         "p",
		Price:        subledger.MaxPlanPrice,
		DurationDays: 1,
	}
	seedPlan(t, s, p)

	_, err = l.Subscribe(ctx, subscriber.Signer(), subledger.SubscribeInput{Plan: p.Address, Creator: creator.Address()})
	require.ErrorIs(t, err, subledger.ErrMathOverflow)
}

// ──────────────────────────────────────────────────
// isActive / requireActive
// ──────────────────────────────────────────────────

func TestCheckSubscriptionMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.CheckSubscription(context.Background(), account.Derive("nothing"))
	require.ErrorIs(t, err, subledger.ErrSubscriptionNotFound)
}

func TestRequireActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creator := f.wallet(oneSOL)
	subscriber := f.wallet(oneSOL)
	p := f.createPlan(creator, subledger.CreatePlanInput{PlanID: 1, Name: "Day pass", Price: 10, DurationDays: 1})

	sub, err := f.ledger.Subscribe(ctx, subscriber.Signer(), subledger.SubscribeInput{Plan: p.Address, Creator: creator.Address()})
	require.NoError(t, err)

	got, err := f.ledger.RequireActive(ctx, sub.Address)
	require.NoError(t, err)
	assert.True(t, f.ledger.IsActive(got))

	f.clock.Advance(subledger.SecondsPerDay)
	got, err = f.ledger.RequireActive(ctx, sub.Address)
	require.ErrorIs(t, err, subledger.ErrSubscriptionExpired)
	assert.Equal(t, "SubscriptionExpired", subledger.CodeOf(err))
	assert.Contains(t, err.Error(), "Subscription has expired")
	assert.False(t, f.ledger.IsActive(got))
}

func TestExpiresAt(t *testing.T) {
	got, err := subledger.ExpiresAt(genesis, 30)
	require.NoError(t, err)
	assert.Equal(t, genesis+2_592_000, got)

	_, err = subledger.ExpiresAt(math.MaxInt64, 1)
	require.ErrorIs(t, err, subledger.ErrMathOverflow)
}

// ──────────────────────────────────────────────────
// accounts
// ──────────────────────────────────────────────────

func TestAirdrop(t *testing.T) {
	f := newFixture(t)
	kp := f.wallet(0)

	bal, err := f.ledger.Airdrop(context.Background(), kp.Address(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), bal)

	_, err = f.ledger.Airdrop(context.Background(), kp.Address(), 0)
	require.ErrorIs(t, err, subledger.ErrInvalidAmount)

	_, err = f.ledger.Airdrop(context.Background(), kp.Address(), math.MaxUint64)
	require.ErrorIs(t, err, subledger.ErrMathOverflow)
	assert.Equal(t, uint64(5), f.balance(kp.Address()))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "InvalidPrice", subledger.CodeOf(subledger.ErrInvalidPrice))
	assert.Empty(t, subledger.CodeOf(nil))
	assert.Empty(t, subledger.CodeOf(assert.AnError))
	assert.Equal(t, "Price must be greater than 0", strings.TrimPrefix(subledger.ErrInvalidPrice.Error(), "subledger: "))
}

func seedPlan(t *testing.T, s *memory.Store, p *plan.Plan) {
	t.Helper()
	require.NoError(t, s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.InsertPlan(ctx, p)
	}))
}
