package subledger

import (
	"context"

	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/auth"
	"github.com/xraph/subledger/checked"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/plugin"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/subscription"
)

// SubscribeInput names the plan to subscribe to and the account that
// receives the payment.
type SubscribeInput struct {
	// Plan is the plan record address. When zero it is derived from
	// Creator and PlanID.
	Plan account.Address `json:"plan"`

	// PlanID is only used to derive Plan.
	PlanID uint64 `json:"plan_id"`

	// Creator is the payee account. It must be the plan's creator.
	Creator account.Address `json:"creator"`
}

// ResolvePlan returns Plan, or the address derived from Creator and PlanID
// when Plan is zero.
func (in SubscribeInput) ResolvePlan() (account.Address, error) {
	if !in.Plan.IsZero() {
		return in.Plan, nil
	}
	if in.Creator.IsZero() {
		return account.Zero, ErrMissingPlanInput
	}
	return account.PlanAddress(in.Creator, in.PlanID), nil
}

// ExpiresAt returns now + durationDays days.
func ExpiresAt(now int64, durationDays uint32) (int64, error) {
	seconds, err := checked.MulI64(int64(durationDays), SecondsPerDay)
	if err != nil {
		return 0, err
	}
	return checked.AddI64(now, seconds)
}

// Subscribe pays for and records signer's subscription to a plan.
//
// Within one transition it requires that the signer is not the creator,
// that in.Creator is the plan's creator and that the signer holds
// price + rent + TransactionFeeBuffer. It then moves exactly the plan price
// to the creator and allocates the subscription record with the signer as
// payer. Any failure leaves every balance and record untouched.
func (l *Ledger) Subscribe(ctx context.Context, signer auth.Signer, in SubscribeInput) (*subscription.Subscription, error) {
	if !signer.Valid() {
		return nil, l.reportFailure(ctx, plugin.OpSubscribe, account.Zero, ErrUnauthorized)
	}
	subscriber := signer.Address()

	planAddr, err := in.ResolvePlan()
	if err != nil {
		return nil, l.reportFailure(ctx, plugin.OpSubscribe, subscriber, err)
	}

	rentDue, err := l.rent.MinimumBalance(subscription.Size)
	if err != nil {
		return nil, l.reportFailure(ctx, plugin.OpSubscribe, subscriber, err)
	}

	now := l.clock.Now()
	var (
		sub   *subscription.Subscription
		price uint64
	)

	txID, err := l.transition(ctx, plugin.OpSubscribe, subscriber, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.GetPlan(ctx, planAddr)
		if err != nil {
			return err
		}
		if subscriber == p.Creator {
			return ErrCannotSubscribeToOwnPlan
		}
		if in.Creator != p.Creator {
			return ErrCreatorMismatch
		}

		required, err := checked.SumU64(p.Price, rentDue, TransactionFeeBuffer)
		if err != nil {
			return err
		}
		balance, err := tx.Balance(ctx, subscriber)
		if err != nil {
			return err
		}
		if balance < required {
			return ErrInsufficientFunds
		}

		if err := tx.Transfer(ctx, subscriber, in.Creator, p.Price); err != nil {
			return err
		}

		expires, err := ExpiresAt(now, p.DurationDays)
		if err != nil {
			return err
		}
		s := &subscription.Subscription{
			Address:    account.SubscriptionAddress(subscriber, p.Creator, p.PlanID),
			Subscriber: subscriber,
			Creator:    p.Creator,
			PlanID:     p.PlanID,
			CreatedAt:  now,
			ExpiresAt:  expires,
		}
		if err := allocate(ctx, tx, subscriber, s.Address, rentDue, func() error {
			return tx.InsertSubscription(ctx, s)
		}); err != nil {
			return err
		}

		sub, price = s, p.Price
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("subscription created",
		"tx_id", txID.String(),
		"subscription", sub.Address.String(),
		"subscriber", subscriber.String(),
		"creator", sub.Creator.String(),
		"plan_id", sub.PlanID,
		"expires_at", sub.ExpiresAt,
	)
	l.plugins.EmitSubscriptionCreated(ctx, &plugin.SubscriptionCreated{
		ID:           id.NewEventID(),
		TxID:         txID,
		Subscription: sub,
		Price:        price,
		Rent:         rentDue,
	})
	return sub, nil
}

// CheckSubscription reports whether the subscription at addr is active
// now. An expired subscription is not an error.
func (l *Ledger) CheckSubscription(ctx context.Context, addr account.Address) (bool, error) {
	sub, err := l.store.GetSubscription(ctx, addr)
	if err != nil {
		return false, err
	}
	now := l.clock.Now()
	active := sub.ActiveAt(now)

	l.plugins.EmitSubscriptionChecked(ctx, &plugin.SubscriptionChecked{
		ID:      id.NewEventID(),
		Address: addr,
		Active:  active,
		At:      now,
	})
	return active, nil
}

// IsActive is CheckSubscription for a record the caller already holds.
func (l *Ledger) IsActive(sub *subscription.Subscription) bool {
	return sub.ActiveAt(l.clock.Now())
}

// RequireActive loads the subscription at addr and fails with
// ErrSubscriptionExpired unless it is active. Use it to gate access.
func (l *Ledger) RequireActive(ctx context.Context, addr account.Address) (*subscription.Subscription, error) {
	sub, err := l.store.GetSubscription(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !sub.ActiveAt(l.clock.Now()) {
		return sub, ErrSubscriptionExpired
	}
	return sub, nil
}

// GetSubscription loads the subscription at addr.
func (l *Ledger) GetSubscription(ctx context.Context, addr account.Address) (*subscription.Subscription, error) {
	return l.store.GetSubscription(ctx, addr)
}

// FindSubscription loads subscriber's subscription to creator's plan
// number planID.
func (l *Ledger) FindSubscription(ctx context.Context, subscriber, creator account.Address, planID uint64) (*subscription.Subscription, error) {
	return l.store.GetSubscription(ctx, account.SubscriptionAddress(subscriber, creator, planID))
}
