package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/grimbang/nailart/pkg/logger"
)

// Service is the reconciliation engine between the provider's asynchronous
// webhook truth and the synchronous checkout path. Both mutate the same
// account rows; safety comes from convergent target-state writes and the
// ledger's idempotency gate, not from cross-request locking.
type Service struct {
	cfg      Config
	catalog  *Catalog
	provider Provider
	store    Store
	locker   Locker
	log      *slog.Logger
}

// PlanChange is the outcome of a checkout request: either the change was
// applied in place, or the client must redirect to a hosted checkout.
type PlanChange struct {
	Upgraded    bool
	CheckoutURL string
}

// NewService wires the engine. All dependencies are required; passing nil is
// a programming error and panics to fail fast at startup.
func NewService(cfg Config, catalog *Catalog, provider Provider, store Store, locker Locker, log *slog.Logger) *Service {
	if catalog == nil {
		panic("billing: catalog is required")
	}
	if provider == nil {
		panic("billing: provider is required")
	}
	if store == nil {
		panic("billing: store is required")
	}
	if locker == nil {
		panic("billing: locker is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		catalog:  catalog,
		provider: provider,
		store:    store,
		locker:   locker,
		log:      log,
	}
}

// HandleWebhook verifies, parses, and applies one provider event. Any error
// from Apply must surface as a processing failure so the provider redelivers;
// partial effects are safe to re-run because every transition is idempotent.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, headers http.Header) error {
	event, err := s.provider.ParseWebhook(ctx, body, headers)
	if err != nil {
		return err
	}
	return s.Apply(ctx, event)
}

// Apply runs one normalized event through the transition table. Events that
// cannot be attributed to a known user and plan are acknowledged as no-ops:
// the provider may emit events for products unrelated to this system, and
// failing them would only cause retry storms.
func (s *Service) Apply(ctx context.Context, event *Event) error {
	switch event.Kind {
	case EventOrderPaid:
		return s.applyOrderPaid(ctx, event)
	case EventSubscriptionActive, EventSubscriptionUpdated:
		return s.applyPlanSync(ctx, event)
	case EventSubscriptionCanceled:
		return s.applyStatus(ctx, event, StatusCanceled)
	case EventSubscriptionUncanceled:
		return s.applyStatus(ctx, event, StatusActive)
	case EventSubscriptionPastDue:
		return s.applyStatus(ctx, event, StatusPastDue)
	case EventSubscriptionRevoked:
		return s.applyRevoked(ctx, event)
	default:
		s.log.DebugContext(ctx, "ignoring billing event", logger.EventType(event.ProviderEvent))
		return nil
	}
}

// applyOrderPaid records the payment and credits the account. The ledger
// insert and the balance increment commit as one unit keyed on the order id,
// so a redelivered event repeats neither.
func (s *Service) applyOrderPaid(ctx context.Context, event *Event) error {
	userID, ok := event.userUUID()
	if !ok || event.OrderID == "" {
		return nil
	}
	spec, ok := s.catalog.ByPriceID(event.PriceID)
	if !ok {
		return nil
	}

	if _, err := s.store.EnsureAccount(ctx, userID); err != nil {
		return err
	}
	if err := s.rememberCustomer(ctx, userID, event.CustomerID); err != nil {
		return err
	}

	granted, err := s.store.GrantCredits(ctx, LedgerEntry{
		ExternalOrderID: event.OrderID,
		UserID:          userID,
		Plan:            spec.Name,
		AmountCharged:   event.Amount,
		CreditsGranted:  spec.OrderCredits,
		Status:          LedgerStatusCompleted,
	})
	if err != nil {
		return fmt.Errorf("order %s: %w", event.OrderID, err)
	}
	if !granted {
		s.log.InfoContext(ctx, "duplicate order delivery skipped",
			logger.UserID(userID), slog.String("order_id", event.OrderID))
	}
	return nil
}

// applyPlanSync converges plan and status to the provider's view. It never
// grants credit: crediting for plan changes belongs exclusively to the
// synchronous upgrade path, which is what makes the bonus single-shot even
// when the provider echoes the same change back as a webhook.
func (s *Service) applyPlanSync(ctx context.Context, event *Event) error {
	userID, ok := event.userUUID()
	if !ok {
		return nil
	}
	spec, ok := s.catalog.ByPriceID(event.PriceID)
	if !ok {
		return nil
	}

	if _, err := s.store.EnsureAccount(ctx, userID); err != nil {
		return err
	}
	if err := s.rememberCustomer(ctx, userID, event.CustomerID); err != nil {
		return err
	}
	return s.store.SetPlan(ctx, userID, spec.Name, StatusActive)
}

func (s *Service) applyStatus(ctx context.Context, event *Event, status SubscriptionStatus) error {
	userID, ok := event.userUUID()
	if !ok {
		return nil
	}
	if _, err := s.store.EnsureAccount(ctx, userID); err != nil {
		return err
	}
	return s.store.SetStatus(ctx, userID, status)
}

func (s *Service) applyRevoked(ctx context.Context, event *Event) error {
	userID, ok := event.userUUID()
	if !ok {
		return nil
	}
	if _, err := s.store.EnsureAccount(ctx, userID); err != nil {
		return err
	}
	return s.store.SetPlan(ctx, userID, PlanFree, StatusInactive)
}

func (s *Service) rememberCustomer(ctx context.Context, userID uuid.UUID, customerID string) error {
	if customerID == "" {
		return nil
	}
	return s.store.SetProviderCustomerID(ctx, userID, customerID)
}

// ChangePlan is the synchronous checkout/upgrade orchestrator.
//
// Without an active subscription it opens a hosted checkout and mutates
// nothing; the account changes only when the provider later confirms via
// webhook. With one, it updates the subscription at the provider first and
// only then writes locally, so a provider failure leaves no partial state.
// Upgrades grant the fixed bonus exactly once per old→new transition, gated
// by a deterministic ledger key derived without wall-clock time.
func (s *Service) ChangePlan(ctx context.Context, userID uuid.UUID, email, planName string) (*PlanChange, error) {
	target, ok := s.catalog.ByName(planName)
	if !ok || target.Name == PlanFree {
		return nil, ErrUnknownPlan
	}

	account, err := s.store.EnsureAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	var sub *SubscriptionRef
	if account.ProviderCustomerID != "" {
		sub, err = s.provider.ActiveSubscription(ctx, account.ProviderCustomerID)
		if err != nil {
			return nil, errors.Join(ErrProvider, err)
		}
	}

	if sub == nil {
		url, err := s.provider.CreateCheckout(ctx, CheckoutRequest{
			PriceID:    target.PriceID,
			UserID:     userID,
			Email:      email,
			SuccessURL: s.cfg.CheckoutSuccessURL,
		})
		if err != nil {
			return nil, errors.Join(ErrProvider, err)
		}
		return &PlanChange{CheckoutURL: url}, nil
	}

	current, ok := s.catalog.ByPriceID(sub.PriceID)
	if !ok {
		current = s.catalog.Free()
	}
	if current.Name == target.Name {
		return nil, ErrSamePlan
	}

	// One plan change at a time per user: a double-submitted upgrade must not
	// race itself through the multi-step mutation below.
	release, acquired, err := s.locker.Acquire(ctx, "billing:plan-change:"+userID.String(), s.cfg.PlanChangeLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrPlanChangeInFlight
	}
	defer release()

	// The provider call completes before any local write.
	if err := s.provider.ChangeSubscriptionPlan(ctx, sub.ID, target.PriceID); err != nil {
		return nil, errors.Join(ErrProvider, err)
	}

	if target.Rank > current.Rank {
		// Deterministic key: the same upgrade submitted twice maps to the
		// same ledger row, and the duplicate grant degrades to a no-op.
		key := fmt.Sprintf("upgrade_%s_%s_%s", sub.ID, current.Name, target.Name)
		granted, err := s.store.GrantCredits(ctx, LedgerEntry{
			ExternalOrderID: key,
			UserID:          userID,
			Plan:            target.Name,
			AmountCharged:   target.MonthlyPrice - current.MonthlyPrice,
			CreditsGranted:  UpgradeBonusCredits,
			Status:          LedgerStatusCompleted,
		})
		if err != nil {
			return nil, err
		}
		if !granted {
			s.log.InfoContext(ctx, "upgrade bonus already granted",
				logger.UserID(userID), slog.String("order_id", key))
		}
	}

	// Downgrades take billing effect next cycle at the provider, but the
	// account reflects the chosen plan immediately. A trailing
	// subscription.updated webhook converges to the same values.
	if err := s.store.SetPlan(ctx, userID, target.Name, StatusActive); err != nil {
		return nil, err
	}

	return &PlanChange{Upgraded: true}, nil
}

// PortalLink opens a provider self-service portal session for the user.
func (s *Service) PortalLink(ctx context.Context, userID uuid.UUID) (string, error) {
	account, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", ErrNoBillingProfile
		}
		return "", err
	}
	if account.ProviderCustomerID == "" {
		return "", ErrNoBillingProfile
	}

	url, err := s.provider.CreatePortalSession(ctx, account.ProviderCustomerID)
	if err != nil {
		return "", errors.Join(ErrProvider, err)
	}
	return url, nil
}

// Account returns the user's billing record, creating it in its signup state
// on first touch.
func (s *Service) Account(ctx context.Context, userID uuid.UUID) (*Account, error) {
	return s.store.EnsureAccount(ctx, userID)
}
