package subledger

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/auth"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/plugin"
	"github.com/xraph/subledger/store"
)

// CreatePlanInput holds the creator-chosen fields of a new plan.
type CreatePlanInput struct {
	PlanID       uint64 `json:"plan_id"`
	Name         string `json:"name"`
	Price        uint64 `json:"price"`
	DurationDays uint32 `json:"duration_days"`
}

// ValidatePlan checks in order: price, duration, then name. The emptiness
// check trims whitespace; the length check counts raw bytes; the name must
// then be valid UTF-8.
func ValidatePlan(in CreatePlanInput) error {
	switch {
	case in.Price == 0:
		return ErrInvalidPrice
	case in.Price > MaxPlanPrice:
		return ErrPriceTooHigh
	case in.DurationDays == 0:
		return ErrInvalidDuration
	case in.DurationDays > MaxDurationDays:
		return ErrDurationTooLong
	case strings.TrimSpace(in.Name) == "":
		return ErrEmptyPlanName
	case len(in.Name) > MaxPlanNameLength:
		return ErrPlanNameTooLong
	case !utf8.ValidString(in.Name):
		return ErrInvalidPlanName
	}
	return nil
}

// CreatePlan publishes a plan owned by signer at the address derived from
// (signer, in.PlanID). The signer pays the record's rent. Reusing a plan
// id fails with ErrAlreadyInitialized.
func (l *Ledger) CreatePlan(ctx context.Context, signer auth.Signer, in CreatePlanInput) (*plan.Plan, error) {
	if !signer.Valid() {
		return nil, l.reportFailure(ctx, plugin.OpCreatePlan, account.Zero, ErrUnauthorized)
	}
	creator := signer.Address()

	if err := ValidatePlan(in); err != nil {
		return nil, l.reportFailure(ctx, plugin.OpCreatePlan, creator, err)
	}

	rentDue, err := l.rent.MinimumBalance(plan.Size)
	if err != nil {
		return nil, l.reportFailure(ctx, plugin.OpCreatePlan, creator, err)
	}

	now := l.clock.Now()
	p := &plan.Plan{
		Address:      account.PlanAddress(creator, in.PlanID),
		Creator:      creator,
		PlanID:       in.PlanID,
		Name:         in.Name,
		Price:        in.Price,
		DurationDays: in.DurationDays,
		CreatedAt:    now,
	}

	txID, err := l.transition(ctx, plugin.OpCreatePlan, creator, func(ctx context.Context, tx store.Tx) error {
		balance, err := tx.Balance(ctx, creator)
		if err != nil {
			return err
		}
		if balance < rentDue {
			return ErrInsufficientFundsToCreatePlan
		}
		return allocate(ctx, tx, creator, p.Address, rentDue, func() error {
			return tx.InsertPlan(ctx, p)
		})
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("plan created",
		"tx_id", txID.String(),
		"plan", p.Address.String(),
		"creator", creator.String(),
		"plan_id", p.PlanID,
		"price", p.Price,
		"duration_days", p.DurationDays,
	)
	l.plugins.EmitPlanCreated(ctx, &plugin.PlanCreated{
		ID:   id.NewEventID(),
		TxID: txID,
		Plan: p,
		Rent: rentDue,
	})
	return p, nil
}

// GetPlan loads the plan at addr.
func (l *Ledger) GetPlan(ctx context.Context, addr account.Address) (*plan.Plan, error) {
	return l.store.GetPlan(ctx, addr)
}

// GetPlanByID loads creator's plan number planID.
func (l *Ledger) GetPlanByID(ctx context.Context, creator account.Address, planID uint64) (*plan.Plan, error) {
	return l.store.GetPlan(ctx, account.PlanAddress(creator, planID))
}
