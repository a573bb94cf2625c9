package plan

import "github.com/xraph/subledger/account"

// Size is the allocated byte size of a plan record: an 8-byte type tag,
// creator (32), plan id (8), name (4-byte length + 200), price (8),
// duration days (4) and created_at (8).
const Size = 8 + account.Size + 8 + (4 + 200) + 8 + 4 + 8

// Plan is a creator's published subscription offer. It is written once
// and never mutated.
type Plan struct {
	Address      account.Address `json:"address"`
	Creator      account.Address `json:"creator"`
	PlanID       uint64          `json:"plan_id"`
	Name         string          `json:"name"`
	Price        uint64          `json:"price"`
	DurationDays uint32          `json:"duration_days"`
	CreatedAt    int64           `json:"created_at"`
}
