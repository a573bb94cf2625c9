package subledger

import (
	"errors"

	"github.com/xraph/subledger/checked"
)

// Error is a subledger failure carrying a stable code. Codes are what
// clients match on; messages are for humans.
type Error struct {
	code string
	msg  string
}

func newError(code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func (e *Error) Error() string { return "subledger: " + e.msg }

// Code returns the stable error code, e.g. "InvalidPrice".
func (e *Error) Code() string { return e.code }

// Sentinel errors. Compare with errors.Is.
var (
	// Validation errors
	ErrInvalidPrice     = newError("InvalidPrice", "Price must be greater than 0")
	ErrPriceTooHigh     = newError("PriceTooHigh", "Price exceeds maximum allowed (1000 SOL)")
	ErrInvalidDuration  = newError("InvalidDuration", "Duration must be at least 1 day")
	ErrDurationTooLong  = newError("DurationTooLong", "Duration exceeds maximum allowed (365 days)")
	ErrEmptyPlanName    = newError("EmptyPlanName", "Plan name cannot be empty")
	ErrPlanNameTooLong  = newError("PlanNameTooLong", "Plan name exceeds maximum length (200 characters)")
	ErrInvalidPlanName  = newError("InvalidPlanName", "Plan name must be valid UTF-8")
	ErrInvalidAmount    = newError("InvalidAmount", "Amount must be greater than 0")
	ErrMissingPlanInput = newError("MissingPlanInput", "Plan address or creator is required")

	// Authorization and identity errors
	ErrUnauthorized             = newError("Unauthorized", "Missing or invalid signer")
	ErrCannotSubscribeToOwnPlan = newError("CannotSubscribeToOwnPlan", "Cannot subscribe to your own plan")
	ErrCreatorMismatch          = newError("CreatorMismatch", "Creator account mismatch")

	// Resource errors
	ErrInsufficientFundsToCreatePlan = newError("InsufficientFundsToCreatePlan", "Insufficient funds to create plan (need rent for account)")
	ErrInsufficientFunds             = newError("InsufficientFunds", "Insufficient funds to subscribe (need price + rent)")

	// ErrMathOverflow is returned by every overflow-checked computation.
	ErrMathOverflow = checked.ErrOverflow

	// ErrSubscriptionExpired is returned by operations gated on a live
	// subscription.
	ErrSubscriptionExpired = newError("SubscriptionExpired", "Subscription has expired")

	// Store conditions
	ErrAlreadyInitialized   = newError("AlreadyInitialized", "account already in use")
	ErrInsufficientBalance  = newError("InsufficientBalance", "insufficient balance for transfer")
	ErrPlanNotFound         = newError("PlanNotFound", "plan not found")
	ErrSubscriptionNotFound = newError("SubscriptionNotFound", "subscription not found")
	ErrStoreClosed          = newError("StoreClosed", "store is closed")
)

// CodeMathOverflow is the code reported for ErrMathOverflow.
const CodeMathOverflow = "MathOverflow"

// CodeOf returns the code of the first subledger error in err's chain, or
// "" if there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMathOverflow) {
		return CodeMathOverflow
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}

// IsValidationError reports whether the caller supplied out-of-range input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrPriceTooHigh) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrDurationTooLong) ||
		errors.Is(err, ErrEmptyPlanName) ||
		errors.Is(err, ErrPlanNameTooLong) ||
		errors.Is(err, ErrInvalidPlanName) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingPlanInput)
}

// IsAuthorizationError reports whether a caller or referenced account
// failed an identity check.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrCannotSubscribeToOwnPlan) ||
		errors.Is(err, ErrCreatorMismatch)
}

// IsResourceError reports whether a balance was too low.
func IsResourceError(err error) bool {
	return errors.Is(err, ErrInsufficientFundsToCreatePlan) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInsufficientBalance)
}

// IsArithmeticError reports whether a checked computation overflowed.
func IsArithmeticError(err error) bool {
	return errors.Is(err, ErrMathOverflow)
}

// IsNotFound reports whether a referenced record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound)
}

// IsAlreadyInitialized reports whether an allocation hit an occupied
// address.
func IsAlreadyInitialized(err error) bool {
	return errors.Is(err, ErrAlreadyInitialized)
}
