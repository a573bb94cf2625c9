package subscription

import (
	"context"

	"github.com/xraph/subledger/account"
)

// Store persists subscription records. InsertSubscription fails with an
// "already initialized" error when the address is occupied.
type Store interface {
	InsertSubscription(ctx context.Context, s *Subscription) error
	GetSubscription(ctx context.Context, addr account.Address) (*Subscription, error)
}
