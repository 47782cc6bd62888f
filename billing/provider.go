package billing

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Provider is the seam to the payment provider. The engine never talks to
// the provider SDK directly, which keeps the reconciliation logic testable
// and the vendor swappable.
type Provider interface {
	// ParseWebhook verifies the event signature against the shared secret and
	// normalizes the payload. Returns ErrInvalidSignature when verification
	// fails; no event is processed without passing it.
	ParseWebhook(ctx context.Context, body []byte, headers http.Header) (*Event, error)

	// ActiveSubscription returns the customer's current active subscription,
	// or nil when the customer has none.
	ActiveSubscription(ctx context.Context, customerID string) (*SubscriptionRef, error)

	// ChangeSubscriptionPlan switches an existing subscription to a new price.
	ChangeSubscriptionPlan(ctx context.Context, subscriptionID, priceID string) error

	// CreateCheckout creates a hosted checkout session and returns its URL.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)

	// CreatePortalSession returns a pre-authenticated self-service portal URL
	// for the provider customer.
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}

// CheckoutRequest is the data needed to open a hosted checkout session.
type CheckoutRequest struct {
	PriceID    string
	UserID     uuid.UUID
	Email      string
	SuccessURL string
}
