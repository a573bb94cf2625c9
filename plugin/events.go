package plugin

import (
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/subscription"
)

// Operation names used in events and logs.
const (
	OpCreatePlan = "create_plan"
	OpSubscribe  = "subscribe"
	OpAirdrop    = "airdrop"
)

// PlanCreated describes a committed plan.
type PlanCreated struct {
	ID   id.EventID `json:"id"`
	TxID id.TxID    `json:"tx_id"`
	Plan *plan.Plan `json:"plan"`
	Rent uint64     `json:"rent"`
}

// SubscriptionCreated describes a committed subscription.
type SubscriptionCreated struct {
	ID           id.EventID                 `json:"id"`
	TxID         id.TxID                    `json:"tx_id"`
	Subscription *subscription.Subscription `json:"subscription"`
	Price        uint64                     `json:"price"`
	Rent         uint64                     `json:"rent"`
}

// SubscriptionChecked describes a liveness query result.
type SubscriptionChecked struct {
	ID      id.EventID      `json:"id"`
	Address account.Address `json:"address"`
	Active  bool            `json:"active"`
	At      int64           `json:"at"`
}

// AccountFunded describes a committed airdrop credit.
type AccountFunded struct {
	ID      id.EventID      `json:"id"`
	TxID    id.TxID         `json:"tx_id"`
	Address account.Address `json:"address"`
	Amount  uint64          `json:"amount"`
	Balance uint64          `json:"balance"`
}

// TransitionFailed describes an aborted mutating operation.
type TransitionFailed struct {
	ID        id.EventID      `json:"id"`
	TxID      id.TxID         `json:"tx_id"`
	Operation string          `json:"operation"`
	Actor     account.Address `json:"actor"`
	Code      string          `json:"code,omitempty"`
	Err       error           `json:"-"`
}
