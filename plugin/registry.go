package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultHookTimeout bounds a single hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry holds plugins with their hook interfaces resolved once at
// registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	names   map[string]struct{}
	logger  *slog.Logger
	timeout time.Duration

	onInit                []OnInit
	onShutdown            []OnShutdown
	onPlanCreated         []OnPlanCreated
	onSubscriptionCreated []OnSubscriptionCreated
	onSubscriptionChecked []OnSubscriptionChecked
	onAccountFunded       []OnAccountFunded
	onTransitionFailed    []OnTransitionFailed
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		names:   make(map[string]struct{}),
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger used for hook failures.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.mu.Lock()
	r.timeout = d
	r.mu.Unlock()
	return r
}

// Register adds p. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.names[p.Name()]; dup {
		return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
	}
	r.names[p.Name()] = struct{}{}
	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnPlanCreated); ok {
		r.onPlanCreated = append(r.onPlanCreated, v)
		hooks = append(hooks, "OnPlanCreated")
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
		hooks = append(hooks, "OnSubscriptionCreated")
	}
	if v, ok := p.(OnSubscriptionChecked); ok {
		r.onSubscriptionChecked = append(r.onSubscriptionChecked, v)
		hooks = append(hooks, "OnSubscriptionChecked")
	}
	if v, ok := p.(OnAccountFunded); ok {
		r.onAccountFunded = append(r.onAccountFunded, v)
		hooks = append(hooks, "OnAccountFunded")
	}
	if v, ok := p.(OnTransitionFailed); ok {
		r.onTransitionFailed = append(r.onTransitionFailed, v)
		hooks = append(hooks, "OnTransitionFailed")
	}

	r.logger.Info("plugin registered", "name", p.Name(), "hooks", hooks)
	return nil
}

// Get returns a plugin by name, or nil.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins in registration order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission
// ──────────────────────────────────────────────────

// EmitInit calls OnInit on every plugin that implements it.
func (r *Registry) EmitInit(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()
	for _, p := range hooks {
		r.call(ctx, p.Name(), "OnInit", func(ctx context.Context) error { return p.OnInit(ctx) })
	}
}

// EmitShutdown calls OnShutdown on every plugin that implements it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()
	for _, p := range hooks {
		r.call(ctx, p.Name(), "OnShutdown", func(ctx context.Context) error { return p.OnShutdown(ctx) })
	}
}

// EmitPlanCreated delivers evt to OnPlanCreated hooks.
func (r *Registry) EmitPlanCreated(ctx context.Context, evt *PlanCreated) {
	r.mu.RLock()
	hooks := r.onPlanCreated
	r.mu.RUnlock()
	for _, p := range hooks {
		r.call(ctx, p.Name(), "OnPlanCreated", func(ctx context.Context) error { return p.OnPlanCreated(ctx, evt) })
	}
}

// EmitSubscriptionCreated delivers evt to OnSubscriptionCreated hooks.
func (r *Registry) EmitSubscriptionCreated(ctx context.Context, evt *SubscriptionCreated) {
	r.mu.RLock()
	hooks := r.onSubscriptionCreated
	r.mu.RUnlock()
	for _, p := range hooks {
		r.call(ctx, p.Name(), "OnSubscriptionCreated", func(ctx context.Context) error { return p.OnSubscriptionCreated(ctx, evt) })
	}
}

// EmitSubscriptionChecked delivers evt to OnSubscriptionChecked hooks.
func (r *Registry) EmitSubscriptionChecked(ctx context.Context, evt *SubscriptionChecked) {
	r.mu.RLock()
	hooks := r.onSubscriptionChecked
	r.mu.RUnlock()
	for _, p := range hooks {
		r.call(ctx, p.Name(), "OnSubscriptionChecked", func(ctx context.Context) error { return p.OnSubscriptionChecked(ctx, evt) })
	}
}

// EmitAccountFunded delivers evt to OnAccountFunded hooks.
func (r *Registry) EmitAccountFunded(ctx context.Context, evt *AccountFunded) {
	r.mu.RLock()
	hooks := r.onAccountFunded
	r.mu.RUnlock()
	for _, p := range hooks {
		r.call(ctx, p.Name(), "OnAccountFunded", func(ctx context.Context) error { return p.OnAccountFunded(ctx, evt) })
	}
}

// EmitTransitionFailed delivers evt to OnTransitionFailed hooks.
func (r *Registry) EmitTransitionFailed(ctx context.Context, evt *TransitionFailed) {
	r.mu.RLock()
	hooks := r.onTransitionFailed
	r.mu.RUnlock()
	for _, p := range hooks {
		r.call(ctx, p.Name(), "OnTransitionFailed", func(ctx context.Context) error { return p.OnTransitionFailed(ctx, evt) })
	}
}

// call runs one hook under the registry timeout. Hooks never block the
// caller past the timeout and their errors are only logged.
func (r *Registry) call(ctx context.Context, name, hook string, fn func(context.Context) error) {
	r.mu.RLock()
	timeout, logger := r.timeout, r.logger
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("plugin timeout: %s: %w", name, ctx.Err())
	}
	if err != nil {
		logger.Warn("plugin hook failed", "plugin", name, "hook", hook, "error", err)
	}
}
