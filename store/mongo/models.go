package mongo

import (
	"fmt"
	"strconv"

	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/subscription"
)

// Unsigned 64-bit values are stored as decimal strings; BSON integers are
// signed and would truncate the upper half of the range.

type accountModel struct {
	Address string `bson:"_id"`
	Balance string `bson:"balance"`
}

type planModel struct {
	Address      string `bson:"_id"`
	Creator      string `bson:"creator"`
	PlanID       string `bson:"plan_id"`
	Name         string `bson:"name"`
	Price        string `bson:"price"`
	DurationDays int64  `bson:"duration_days"`
	CreatedAt    int64  `bson:"created_at"`
}

func toPlanModel(p *plan.Plan) *planModel {
	return &planModel{
		Address:      p.Address.String(),
		Creator:      p.Creator.String(),
		PlanID:       formatUint(p.PlanID),
		Name:         p.Name,
		Price:        formatUint(p.Price),
		DurationDays: int64(p.DurationDays),
		CreatedAt:    p.CreatedAt,
	}
}

func fromPlanModel(m *planModel) (*plan.Plan, error) {
	addr, err := account.Parse(m.Address)
	if err != nil {
		return nil, err
	}
	creator, err := account.Parse(m.Creator)
	if err != nil {
		return nil, err
	}
	planID, err := parseUint(m.PlanID)
	if err != nil {
		return nil, err
	}
	price, err := parseUint(m.Price)
	if err != nil {
		return nil, err
	}
	return &plan.Plan{
		Address:      addr,
		Creator:      creator,
		PlanID:       planID,
		Name:         m.Name,
		Price:        price,
		DurationDays: uint32(m.DurationDays),
		CreatedAt:    m.CreatedAt,
	}, nil
}

type subscriptionModel struct {
	Address    string `bson:"_id"`
	Subscriber string `bson:"subscriber"`
	Creator    string `bson:"creator"`
	PlanID     string `bson:"plan_id"`
	CreatedAt  int64  `bson:"created_at"`
	ExpiresAt  int64  `bson:"expires_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		Address:    s.Address.String(),
		Subscriber: s.Subscriber.String(),
		Creator:    s.Creator.String(),
		PlanID:     formatUint(s.PlanID),
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	addr, err := account.Parse(m.Address)
	if err != nil {
		return nil, err
	}
	subscriber, err := account.Parse(m.Subscriber)
	if err != nil {
		return nil, err
	}
	creator, err := account.Parse(m.Creator)
	if err != nil {
		return nil, err
	}
	planID, err := parseUint(m.PlanID)
	if err != nil {
		return nil, err
	}
	return &subscription.Subscription{
		Address:    addr,
		Subscriber: subscriber,
		Creator:    creator,
		PlanID:     planID,
		CreatedAt:  m.CreatedAt,
		ExpiresAt:  m.ExpiresAt,
	}, nil
}

func parseUint(raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subledger/mongo: corrupt unsigned value %q: %w", raw, err)
	}
	return v, nil
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }
