package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used to report recorder failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) { e.logger = logger }
}

// WithActions records only the named actions.
func WithActions(actions ...string) Option {
	return func(e *Extension) { e.filter = newActionSet(actions...) }
}

// WithoutActions records every action except the named ones.
func WithoutActions(actions ...string) Option {
	return func(e *Extension) {
		if e.filter == nil {
			e.filter = newActionSet(Actions()...)
		}
		for _, a := range actions {
			delete(e.filter, a)
		}
	}
}

// Actions lists every action the extension emits.
func Actions() []string {
	return []string{
		ActionPlanCreated,
		ActionSubscriptionCreated,
		ActionSubscriptionChecked,
		ActionAccountFunded,
		ActionTransitionFailed,
	}
}

type actionSet map[string]struct{}

func newActionSet(actions ...string) actionSet {
	s := make(actionSet, len(actions))
	for _, a := range actions {
		s[a] = struct{}{}
	}
	return s
}

// allows reports whether action passes the filter. A nil set allows all.
func (s actionSet) allows(action string) bool {
	if s == nil {
		return true
	}
	_, ok := s[action]
	return ok
}
