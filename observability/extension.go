// Package observability provides a metrics plugin for subledger that
// records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnPlanCreated         = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionChecked = (*MetricsExtension)(nil)
	_ plugin.OnAccountFunded       = (*MetricsExtension)(nil)
	_ plugin.OnTransitionFailed    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a subledger plugin to track marketplace activity.
type MetricsExtension struct {
	// Plan metrics
	PlanCreated Counter
	PlanPrice   Histogram
	RentPaid    Counter

	// Subscription metrics
	SubscriptionCreated Counter
	SubscriptionVolume  Counter
	ChecksActive        Counter
	ChecksExpired       Counter

	// Funding metrics
	Airdrops      Counter
	AirdropVolume Counter

	// Error metrics
	TransitionFailures Counter
	ValidationFailures Counter
	FundsFailures      Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		PlanCreated: factory.Counter("subledger.plan.created"),
		PlanPrice:   factory.Histogram("subledger.plan.price_lamports"),
		RentPaid:    factory.Counter("subledger.rent.paid_lamports"),

		SubscriptionCreated: factory.Counter("subledger.subscription.created"),
		SubscriptionVolume:  factory.Counter("subledger.subscription.volume_lamports"),
		ChecksActive:        factory.Counter("subledger.subscription.checks.active"),
		ChecksExpired:       factory.Counter("subledger.subscription.checks.expired"),

		Airdrops:      factory.Counter("subledger.airdrop.count"),
		AirdropVolume: factory.Counter("subledger.airdrop.volume_lamports"),

		TransitionFailures: factory.Counter("subledger.transition.failures"),
		ValidationFailures: factory.Counter("subledger.transition.validation_failures"),
		FundsFailures:      factory.Counter("subledger.transition.funds_failures"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnPlanCreated implements plugin.OnPlanCreated.
func (m *MetricsExtension) OnPlanCreated(_ context.Context, evt *plugin.PlanCreated) error {
	m.PlanCreated.Inc()
	m.PlanPrice.Observe(float64(evt.Plan.Price))
	m.RentPaid.Add(float64(evt.Rent))
	return nil
}

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, evt *plugin.SubscriptionCreated) error {
	m.SubscriptionCreated.Inc()
	m.SubscriptionVolume.Add(float64(evt.Price))
	m.RentPaid.Add(float64(evt.Rent))
	return nil
}

// OnSubscriptionChecked implements plugin.OnSubscriptionChecked.
func (m *MetricsExtension) OnSubscriptionChecked(_ context.Context, evt *plugin.SubscriptionChecked) error {
	if evt.Active {
		m.ChecksActive.Inc()
	} else {
		m.ChecksExpired.Inc()
	}
	return nil
}

// OnAccountFunded implements plugin.OnAccountFunded.
func (m *MetricsExtension) OnAccountFunded(_ context.Context, evt *plugin.AccountFunded) error {
	m.Airdrops.Inc()
	m.AirdropVolume.Add(float64(evt.Amount))
	return nil
}

// OnTransitionFailed implements plugin.OnTransitionFailed.
func (m *MetricsExtension) OnTransitionFailed(_ context.Context, evt *plugin.TransitionFailed) error {
	m.TransitionFailures.Inc()
	switch {
	case subledger.IsValidationError(evt.Err):
		m.ValidationFailures.Inc()
	case subledger.IsResourceError(evt.Err):
		m.FundsFailures.Inc()
	}
	return nil
}
