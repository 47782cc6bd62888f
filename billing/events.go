package billing

import "github.com/google/uuid"

// EventKind is the normalized billing event type. Provider implementations
// map their native event names onto these kinds; anything they cannot map
// becomes EventIgnored and is acknowledged without effect.
type EventKind string

const (
	// EventOrderPaid credits an account for a completed payment.
	EventOrderPaid EventKind = "order.paid"
	// EventSubscriptionActive marks a subscription as entitled.
	EventSubscriptionActive EventKind = "subscription.active"
	// EventSubscriptionUpdated syncs a plan change. It never grants credit;
	// the upgrade bonus is owned by the synchronous checkout path.
	EventSubscriptionUpdated EventKind = "subscription.updated"
	// EventSubscriptionCanceled marks a subscription as not renewing while
	// entitlement continues to period end.
	EventSubscriptionCanceled EventKind = "subscription.canceled"
	// EventSubscriptionRevoked ends entitlement and resets to the free tier.
	EventSubscriptionRevoked EventKind = "subscription.revoked"
	// EventSubscriptionUncanceled reverses a pending cancellation.
	EventSubscriptionUncanceled EventKind = "subscription.uncanceled"
	// EventSubscriptionPastDue flags a failed renewal payment.
	EventSubscriptionPastDue EventKind = "subscription.past_due"
	// EventIgnored is the explicit no-op variant for unrecognized events.
	EventIgnored EventKind = "ignored"
)

// Event is a verified, normalized webhook event. Fields that a given kind
// does not carry are left zero; each transition handler checks the fields it
// requires and treats missing ones as a silent no-op.
type Event struct {
	Kind           EventKind
	ProviderEvent  string
	UserID         string
	CustomerID     string
	SubscriptionID string
	OrderID        string
	PriceID        string
	Amount         int64
}

// userUUID resolves the external user id carried in provider metadata.
// Events without one belong to other systems sharing the provider account.
func (e *Event) userUUID() (uuid.UUID, bool) {
	if e.UserID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(e.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
