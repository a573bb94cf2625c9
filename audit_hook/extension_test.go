package audithook_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subledger"
	audithook "github.com/xraph/subledger/audit_hook"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/plugin"
	"github.com/xraph/subledger/subscription"
)

type memRecorder struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (r *memRecorder) Record(_ context.Context, evt *audithook.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func testPlan() *plan.Plan {
	creator := account.Address{1}
	return &plan.Plan{
		Address:      account.PlanAddress(creator, 3),
		Creator:      creator,
		PlanID:       3,
		Name:         "Basic",
		Price:        500,
		DurationDays: 7,
	}
}

func TestPlanCreatedRecorded(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec)
	p := testPlan()

	require.NoError(t, ext.OnPlanCreated(context.Background(), &plugin.PlanCreated{
		ID:   id.NewEventID(),
		TxID: id.NewTxID(),
		Plan: p,
		Rent: 2_784_000,
	}))

	require.Len(t, rec.events, 1)
	evt := rec.events[0]
	assert.Equal(t, audithook.ActionPlanCreated, evt.Action)
	assert.Equal(t, audithook.ResourcePlan, evt.Resource)
	assert.Equal(t, p.Address.String(), evt.ResourceID)
	assert.Equal(t, p.Creator.String(), evt.Actor)
	assert.Equal(t, audithook.OutcomeSuccess, evt.Outcome)
	assert.Equal(t, audithook.SeverityInfo, evt.Severity)
	assert.Equal(t, uint64(2_784_000), evt.Metadata["rent"])
}

func TestActiveChecksAreNotRecorded(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec)
	addr := account.Address{5}

	require.NoError(t, ext.OnSubscriptionChecked(context.Background(), &plugin.SubscriptionChecked{Address: addr, Active: true}))
	assert.Empty(t, rec.events)

	require.NoError(t, ext.OnSubscriptionChecked(context.Background(), &plugin.SubscriptionChecked{Address: addr, Active: false}))
	require.Len(t, rec.events, 1)
	assert.Equal(t, audithook.SeverityWarning, rec.events[0].Severity)
}

func TestTransitionFailedRecorded(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec)

	require.NoError(t, ext.OnTransitionFailed(context.Background(), &plugin.TransitionFailed{
		TxID:      id.NewTxID(),
		Operation: plugin.OpSubscribe,
		Actor:     account.Address{2},
		Code:      "InsufficientFunds",
		Err:       subledger.ErrInsufficientFunds,
	}))

	require.Len(t, rec.events, 1)
	evt := rec.events[0]
	assert.Equal(t, audithook.ResourceSubscription, evt.Resource)
	assert.Equal(t, audithook.OutcomeFailure, evt.Outcome)
	assert.Equal(t, subledger.ErrInsufficientFunds.Error(), evt.Reason)
	assert.Equal(t, "InsufficientFunds", evt.Metadata["code"])
}

func TestActionFilters(t *testing.T) {
	sub := &subscription.Subscription{Address: account.Address{4}}
	created := &plugin.SubscriptionCreated{Subscription: sub}
	funded := &plugin.AccountFunded{Address: account.Address{4}, Amount: 1}

	tests := []struct {
		name string
		opt  audithook.Option
		want int
	}{
		{"all", nil, 2},
		{"enabled", audithook.WithActions(audithook.ActionAccountFunded), 1},
		{"disabled", audithook.WithoutActions(audithook.ActionAccountFunded, audithook.ActionSubscriptionCreated), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &memRecorder{}
			var opts []audithook.Option
			if tt.opt != nil {
				opts = append(opts, tt.opt)
			}
			ext := audithook.New(rec, opts...)
			require.NoError(t, ext.OnSubscriptionCreated(context.Background(), created))
			require.NoError(t, ext.OnAccountFunded(context.Background(), funded))
			assert.Len(t, rec.events, tt.want)
		})
	}
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	assert.NoError(t, ext.OnPlanCreated(context.Background(), &plugin.PlanCreated{Plan: testPlan()}))
}
