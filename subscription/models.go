package subscription

import "github.com/xraph/subledger/account"

// Size is the allocated byte size of a subscription record: an 8-byte
// type tag, subscriber (32), creator (32), plan id (8), created_at (8) and
// expires_at (8).
const Size = 8 + account.Size + account.Size + 8 + 8 + 8

// Subscription records a paid, time-bounded entitlement to a plan.
// Expiry is derived from ExpiresAt, never stored as a status.
type Subscription struct {
	Address    account.Address `json:"address"`
	Subscriber account.Address `json:"subscriber"`
	Creator    account.Address `json:"creator"`
	PlanID     uint64          `json:"plan_id"`
	CreatedAt  int64           `json:"created_at"`
	ExpiresAt  int64           `json:"expires_at"`
}

// ActiveAt reports whether the subscription is live at now.
func (s *Subscription) ActiveAt(now int64) bool {
	return now < s.ExpiresAt
}

// Remaining returns the seconds left at now, or zero once expired.
func (s *Subscription) Remaining(now int64) int64 {
	if !s.ActiveAt(now) {
		return 0
	}
	return s.ExpiresAt - now
}
