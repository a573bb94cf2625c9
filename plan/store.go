package plan

import (
	"context"

	"github.com/xraph/subledger/account"
)

// Store persists plan records. InsertPlan fails with an "already
// initialized" error when the address is occupied.
type Store interface {
	InsertPlan(ctx context.Context, p *Plan) error
	GetPlan(ctx context.Context, addr account.Address) (*Plan, error)
}
