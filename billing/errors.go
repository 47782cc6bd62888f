package billing

import "errors"

var (
	ErrUnknownPlan         = errors.New("billing: unknown plan")
	ErrSamePlan            = errors.New("billing: already on this plan")
	ErrInvalidSignature    = errors.New("billing: webhook signature verification failed")
	ErrMalformedEvent      = errors.New("billing: malformed webhook payload")
	ErrAccountNotFound     = errors.New("billing: account not found")
	ErrNoBillingProfile    = errors.New("billing: no billing profile for user")
	ErrPlanChangeInFlight  = errors.New("billing: another plan change is already in progress")
	ErrProvider            = errors.New("billing: provider request failed")
	ErrInsufficientCredits = errors.New("billing: insufficient credits")
)
