// Package billing reconciles subscription state between the payment
// provider's webhook stream and the synchronous checkout path, and owns the
// credit ledger that entitlements draw from.
//
// # Architecture
//
// Two independent writers mutate the same account rows: the webhook handler
// processing provider events (delivered at least once, possibly reordered)
// and the checkout orchestrator serving user-initiated plan changes. The
// package makes this safe without cross-request coordination:
//
//   - Every webhook transition writes a target state rather than applying a
//     delta, so replays and reorderings converge instead of compounding.
//   - Credit grants are journaled in a ledger keyed by external order id;
//     the unique key plus a transactional insert-and-increment make
//     redelivered payment events exact no-ops.
//   - The upgrade bonus uses a synthesized ledger key derived from the
//     subscription and the plan transition, with no time component, so a
//     retried upgrade maps to the row it already wrote.
//   - A per-user TTL lock serializes the multi-step plan change itself;
//     everything else relies on per-row atomic writes.
//
// # Core Components
//
//   - Service: the reconciliation engine (Apply, HandleWebhook, ChangePlan,
//     PortalLink)
//   - Provider: the payment provider seam, implemented for Paddle
//   - Store: account and ledger persistence, implemented on Postgres and
//     in memory
//   - Catalog: the static free < pro < ultra tier table mapping plan names
//     to provider price ids
//
// Credit spending lives behind the narrower CreditWallet interface so that
// consumers debiting credits do not see the rest of the store.
package billing
