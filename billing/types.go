package billing

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a subscription tier. Tiers form a total order used to classify
// plan changes as upgrades or downgrades.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanPro   Plan = "pro"
	PlanUltra Plan = "ultra"
)

// SubscriptionStatus is the entitlement state of an account.
// Canceled keeps the entitlement until the period ends and will not renew;
// inactive means no entitlement at all.
type SubscriptionStatus string

const (
	StatusInactive SubscriptionStatus = "inactive"
	StatusActive   SubscriptionStatus = "active"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusPastDue  SubscriptionStatus = "past_due"
)

// Account is the per-user billing record. Plan and Status are mutated only by
// the reconciliation engine; CreditBalance only through atomic increments
// recorded in the ledger.
type Account struct {
	UserID             uuid.UUID
	Plan               Plan
	Status             SubscriptionStatus
	CreditBalance      int64
	ProviderCustomerID string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LedgerStatusCompleted is the only modeled ledger state; partial payments
// are the provider's concern.
const LedgerStatusCompleted = "completed"

// LedgerEntry is the durable record of one credit-granting event. The
// ExternalOrderID uniqueness constraint is the sole idempotency gate against
// redelivered webhooks and duplicate upgrade submissions.
type LedgerEntry struct {
	ExternalOrderID string
	UserID          uuid.UUID
	Plan            Plan
	AmountCharged   int64
	CreditsGranted  int64
	Status          string
	CreatedAt       time.Time
}

// SubscriptionRef identifies the user's single active subscription at the
// provider. It is fetched, never stored; the provider owns it.
type SubscriptionRef struct {
	ID         string
	PriceID    string
	CustomerID string
}
