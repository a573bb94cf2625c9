package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/subledger/plugin"
)

// Routing keys.
const (
	KeyPlanCreated         = "subledger.plan.created"
	KeySubscriptionCreated = "subledger.subscription.created"
	KeyAccountFunded       = "subledger.account.funded"
	KeyTransitionFailed    = "subledger.transition.failed"
)

var (
	_ plugin.Plugin                = (*Plugin)(nil)
	_ plugin.OnPlanCreated         = (*Plugin)(nil)
	_ plugin.OnSubscriptionCreated = (*Plugin)(nil)
	_ plugin.OnAccountFunded       = (*Plugin)(nil)
	_ plugin.OnTransitionFailed    = (*Plugin)(nil)
	_ plugin.OnShutdown            = (*Plugin)(nil)
)

// Envelope is the wire form of a published event.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// failure is the wire form of TransitionFailed, whose error does not
// serialize on its own.
type failure struct {
	*plugin.TransitionFailed
	Message string `json:"message,omitempty"`
}

// Plugin publishes committed subledger events. Liveness checks are
// reads and are not published.
type Plugin struct {
	pub Publisher
	now func() time.Time
}

// NewPlugin creates a plugin publishing through pub.
func NewPlugin(pub Publisher) *Plugin {
	return &Plugin{pub: pub, now: time.Now}
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "eventbus" }

func (p *Plugin) OnPlanCreated(ctx context.Context, evt *plugin.PlanCreated) error {
	return p.publish(ctx, KeyPlanCreated, evt)
}

func (p *Plugin) OnSubscriptionCreated(ctx context.Context, evt *plugin.SubscriptionCreated) error {
	return p.publish(ctx, KeySubscriptionCreated, evt)
}

func (p *Plugin) OnAccountFunded(ctx context.Context, evt *plugin.AccountFunded) error {
	return p.publish(ctx, KeyAccountFunded, evt)
}

func (p *Plugin) OnTransitionFailed(ctx context.Context, evt *plugin.TransitionFailed) error {
	f := failure{TransitionFailed: evt}
	if evt.Err != nil {
		f.Message = evt.Err.Error()
	}
	return p.publish(ctx, KeyTransitionFailed, f)
}

// OnShutdown closes the publisher.
func (p *Plugin) OnShutdown(context.Context) error {
	return p.pub.Close()
}

func (p *Plugin) publish(ctx context.Context, key string, data any) error {
	payload, err := json.Marshal(Envelope{Type: key, OccurredAt: p.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("eventbus: encode %s: %w", key, err)
	}
	return p.pub.Publish(ctx, key, payload)
}
