package subledger

import (
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/subscription"
)

// Re-exports so most callers only import the root package.

// Address is re-exported from the account package.
type Address = account.Address

// Plan is re-exported from the plan package.
type Plan = plan.Plan

// Subscription is re-exported from the subscription package.
type Subscription = subscription.Subscription

var (
	PlanAddress         = account.PlanAddress
	SubscriptionAddress = account.SubscriptionAddress
	ParseAddress        = account.Parse
)
