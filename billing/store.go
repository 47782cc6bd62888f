package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence contract for accounts and the credit ledger.
//
// Writes must be per-row atomic: both the webhook handler and the checkout
// orchestrator may target the same account concurrently, and the design
// relies on convergent target-state writes plus the ledger uniqueness
// constraint instead of cross-request locking.
type Store interface {
	// EnsureAccount creates the account in its signup state
	// (free/inactive/zero credits) if it does not exist, and returns it.
	EnsureAccount(ctx context.Context, userID uuid.UUID) (*Account, error)

	// GetAccount returns the account or ErrAccountNotFound.
	GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error)

	// SetPlan sets plan and status together as one write.
	SetPlan(ctx context.Context, userID uuid.UUID, plan Plan, status SubscriptionStatus) error

	// SetStatus sets the subscription status without touching the plan.
	SetStatus(ctx context.Context, userID uuid.UUID, status SubscriptionStatus) error

	// SetProviderCustomerID records the provider's customer id so the portal
	// endpoint can open sessions without a provider lookup.
	SetProviderCustomerID(ctx context.Context, userID uuid.UUID, customerID string) error

	// GrantCredits inserts the ledger entry and increments the account's
	// credit balance as a single atomic unit, keyed on the entry's
	// ExternalOrderID. When the id is already recorded the call is a no-op
	// and reports false: a redelivered event must not credit twice.
	GrantCredits(ctx context.Context, entry LedgerEntry) (bool, error)

	CreditWallet
}

// CreditWallet is the balance mutation surface the generation path consumes.
// Split out so studio depends on debit/refund only, not the whole billing store.
type CreditWallet interface {
	// DebitCredits decrements the balance by amount if and only if the
	// balance covers it, reporting whether the debit happened. The check and
	// decrement are one atomic conditional write.
	DebitCredits(ctx context.Context, userID uuid.UUID, amount int64) (bool, error)

	// AddCredits increments the balance unconditionally (atomic add).
	AddCredits(ctx context.Context, userID uuid.UUID, amount int64) error
}

// Locker serializes multi-step plan changes per user. The lock is advisory
// with a TTL; a crashed holder simply expires.
type Locker interface {
	// Acquire takes the named lock. It reports false when the lock is
	// already held; release is non-nil only on success.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
