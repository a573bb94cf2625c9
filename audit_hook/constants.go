package audithook

// Action constants for audit events.
const (
	ActionPlanCreated = "plan.created"

	ActionSubscriptionCreated = "subscription.created"
	ActionSubscriptionChecked = "subscription.checked"

	ActionAccountFunded = "account.funded"

	ActionTransitionFailed = "transition.failed"
)

// Resource constants for audit events.
const (
	ResourcePlan         = "plan"
	ResourceSubscription = "subscription"
	ResourceAccount      = "account"
)

// Category constants for audit events.
const (
	CategoryBilling      = "billing"
	CategorySubscription = "subscription"
	CategoryAccess       = "access"
	CategoryFunding      = "funding"
)

// Severity levels for audit events.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
