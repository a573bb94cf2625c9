// Package plugin provides typed lifecycle hooks for subledger.
//
// A plugin implements Plugin plus any subset of the hook interfaces. The
// registry discovers the hooks at registration time and calls them after
// the corresponding transition has committed. Hook failures are logged and
// never roll back engine state.
package plugin

import "context"

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Record hooks
// ──────────────────────────────────────────────────

// OnPlanCreated is called after a plan record is committed.
type OnPlanCreated interface {
	Plugin
	OnPlanCreated(ctx context.Context, evt *PlanCreated) error
}

// OnSubscriptionCreated is called after a subscription record and its
// payment are committed.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, evt *SubscriptionCreated) error
}

// OnSubscriptionChecked is called after a liveness query.
type OnSubscriptionChecked interface {
	Plugin
	OnSubscriptionChecked(ctx context.Context, evt *SubscriptionChecked) error
}

// OnAccountFunded is called after an airdrop credit is committed.
type OnAccountFunded interface {
	Plugin
	OnAccountFunded(ctx context.Context, evt *AccountFunded) error
}

// OnTransitionFailed is called when a mutating operation aborts.
type OnTransitionFailed interface {
	Plugin
	OnTransitionFailed(ctx context.Context, evt *TransitionFailed) error
}
