// Package audithook bridges subledger lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package carries no audit
// backend dependency. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/subledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnPlanCreated         = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated = (*Extension)(nil)
	_ plugin.OnSubscriptionChecked = (*Extension)(nil)
	_ plugin.OnAccountFunded       = (*Extension)(nil)
	_ plugin.OnTransitionFailed    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral audit record.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension records subledger events through a Recorder.
type Extension struct {
	recorder Recorder
	filter   actionSet
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnPlanCreated implements plugin.OnPlanCreated.
func (e *Extension) OnPlanCreated(ctx context.Context, evt *plugin.PlanCreated) error {
	p := evt.Plan
	return e.record(ctx, entry{
		action:     ActionPlanCreated,
		resource:   ResourcePlan,
		resourceID: p.Address.String(),
		category:   CategoryBilling,
		actor:      p.Creator.String(),
	},
		"tx_id", evt.TxID.String(),
		"plan_id", p.PlanID,
		"name", p.Name,
		"price", p.Price,
		"duration_days", p.DurationDays,
		"rent", evt.Rent,
	)
}

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, evt *plugin.SubscriptionCreated) error {
	sub := evt.Subscription
	return e.record(ctx, entry{
		action:     ActionSubscriptionCreated,
		resource:   ResourceSubscription,
		resourceID: sub.Address.String(),
		category:   CategorySubscription,
		actor:      sub.Subscriber.String(),
	},
		"tx_id", evt.TxID.String(),
		"creator", sub.Creator.String(),
		"plan_id", sub.PlanID,
		"price", evt.Price,
		"rent", evt.Rent,
		"expires_at", sub.ExpiresAt,
	)
}

// OnSubscriptionChecked implements plugin.OnSubscriptionChecked. Only
// checks that find the subscription lapsed are recorded.
func (e *Extension) OnSubscriptionChecked(ctx context.Context, evt *plugin.SubscriptionChecked) error {
	if evt.Active {
		return nil
	}
	return e.record(ctx, entry{
		action:     ActionSubscriptionChecked,
		resource:   ResourceSubscription,
		resourceID: evt.Address.String(),
		category:   CategoryAccess,
		severity:   SeverityWarning,
		reason:     "subscription expired",
	},
		"active", evt.Active,
		"at", evt.At,
	)
}

// OnAccountFunded implements plugin.OnAccountFunded.
func (e *Extension) OnAccountFunded(ctx context.Context, evt *plugin.AccountFunded) error {
	return e.record(ctx, entry{
		action:     ActionAccountFunded,
		resource:   ResourceAccount,
		resourceID: evt.Address.String(),
		category:   CategoryFunding,
	},
		"tx_id", evt.TxID.String(),
		"amount", evt.Amount,
		"balance", evt.Balance,
	)
}

// OnTransitionFailed implements plugin.OnTransitionFailed.
func (e *Extension) OnTransitionFailed(ctx context.Context, evt *plugin.TransitionFailed) error {
	var reason string
	if evt.Err != nil {
		reason = evt.Err.Error()
	}
	return e.record(ctx, entry{
		action:   ActionTransitionFailed,
		resource: resourceFor(evt.Operation),
		category: CategoryBilling,
		actor:    evt.Actor.String(),
		severity: SeverityError,
		outcome:  OutcomeFailure,
		reason:   reason,
	},
		"tx_id", evt.TxID.String(),
		"operation", evt.Operation,
		"code", evt.Code,
	)
}

func resourceFor(op string) string {
	switch op {
	case plugin.OpCreatePlan:
		return ResourcePlan
	case plugin.OpSubscribe:
		return ResourceSubscription
	default:
		return ResourceAccount
	}
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

type entry struct {
	action, resource, resourceID, category string
	actor                                  string
	severity, outcome, reason              string
}

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged, never returned.
func (e *Extension) record(ctx context.Context, en entry, kvPairs ...any) error {
	if !e.filter.allows(en.action) {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	if en.severity == "" {
		en.severity = SeverityInfo
	}
	if en.outcome == "" {
		en.outcome = OutcomeSuccess
	}

	evt := &AuditEvent{
		Action:     en.action,
		Resource:   en.resource,
		Category:   en.category,
		ResourceID: en.resourceID,
		Actor:      en.actor,
		Metadata:   meta,
		Outcome:    en.outcome,
		Severity:   en.severity,
		Reason:     en.reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", en.action,
			"resource_id", en.resourceID,
			"error", recErr,
		)
	}
	return nil
}
