package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleProvider implements Provider against the Paddle Billing API.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates the Paddle client for the configured environment
// and a verifier bound to the webhook secret.
func NewPaddleProvider(cfg Config) (*PaddleProvider, error) {
	var client *paddle.SDK
	var err error

	switch strings.ToLower(cfg.PaddleEnvironment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.PaddleAPIKey)
	case "production", "":
		client, err = paddle.New(cfg.PaddleAPIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.PaddleEnvironment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.PaddleWebhookSecret),
	}, nil
}

// paddleEnvelope is the outer shape shared by all Paddle webhook payloads.
type paddleEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

type paddleCustomData struct {
	UserID string `json:"user_id"`
}

type paddlePriceRef struct {
	Price struct {
		ID string `json:"id"`
	} `json:"price"`
}

type paddleSubscriptionData struct {
	ID              string           `json:"id"`
	CustomerID      string           `json:"customer_id"`
	Status          string           `json:"status"`
	CustomData      paddleCustomData `json:"custom_data"`
	Items           []paddlePriceRef `json:"items"`
	ScheduledChange *struct {
		Action string `json:"action"`
	} `json:"scheduled_change"`
}

type paddleTransactionData struct {
	ID             string           `json:"id"`
	SubscriptionID string           `json:"subscription_id"`
	CustomerID     string           `json:"customer_id"`
	CustomData     paddleCustomData `json:"custom_data"`
	Items          []paddlePriceRef `json:"items"`
	Details        struct {
		Totals struct {
			Total string `json:"total"`
		} `json:"totals"`
	} `json:"details"`
}

// ParseWebhook verifies the Paddle-Signature header and normalizes the
// payload into the engine's event vocabulary. Verification happens on a
// reconstructed request because the SDK verifier consumes *http.Request.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, body []byte, headers http.Header) (*Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", headers.Get("Paddle-Signature"))

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var envelope paddleEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	switch {
	case strings.HasPrefix(envelope.EventType, "transaction."):
		return p.parseTransaction(envelope)
	case strings.HasPrefix(envelope.EventType, "subscription."):
		return p.parseSubscription(envelope)
	default:
		return &Event{Kind: EventIgnored, ProviderEvent: envelope.EventType}, nil
	}
}

func (p *PaddleProvider) parseTransaction(envelope paddleEnvelope) (*Event, error) {
	var data paddleTransactionData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	event := &Event{
		Kind:           EventIgnored,
		ProviderEvent:  envelope.EventType,
		UserID:         data.CustomData.UserID,
		CustomerID:     data.CustomerID,
		SubscriptionID: data.SubscriptionID,
		OrderID:        data.ID,
	}
	if len(data.Items) > 0 {
		event.PriceID = data.Items[0].Price.ID
	}
	if data.Details.Totals.Total != "" {
		// Paddle reports totals as decimal strings of the smallest currency
		// unit, e.g. "2000" for $20.00.
		amount, err := strconv.ParseInt(data.Details.Totals.Total, 10, 64)
		if err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		event.Amount = amount
	}

	if envelope.EventType == "transaction.completed" {
		event.Kind = EventOrderPaid
	}
	return event, nil
}

func (p *PaddleProvider) parseSubscription(envelope paddleEnvelope) (*Event, error) {
	var data paddleSubscriptionData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	event := &Event{
		Kind:           EventIgnored,
		ProviderEvent:  envelope.EventType,
		UserID:         data.CustomData.UserID,
		CustomerID:     data.CustomerID,
		SubscriptionID: data.ID,
	}
	if len(data.Items) > 0 {
		event.PriceID = data.Items[0].Price.ID
	}

	switch envelope.EventType {
	case "subscription.activated", "subscription.trialing":
		event.Kind = EventSubscriptionActive
	case "subscription.updated":
		// A scheduled cancel arrives as an update carrying the pending
		// change; the subscription stays serviceable until period end.
		if data.ScheduledChange != nil && data.ScheduledChange.Action == "cancel" {
			event.Kind = EventSubscriptionCanceled
		} else {
			event.Kind = EventSubscriptionUpdated
		}
	case "subscription.canceled":
		event.Kind = EventSubscriptionRevoked
	case "subscription.resumed":
		event.Kind = EventSubscriptionUncanceled
	case "subscription.past_due":
		event.Kind = EventSubscriptionPastDue
	}
	return event, nil
}

// ActiveSubscription returns the first active subscription for the customer,
// or nil when there is none.
func (p *PaddleProvider) ActiveSubscription(ctx context.Context, customerID string) (*SubscriptionRef, error) {
	res, err := p.client.SubscriptionsClient.ListSubscriptions(ctx, &paddle.ListSubscriptionsRequest{
		CustomerID: []string{customerID},
		Status:     []string{string(paddle.SubscriptionStatusActive)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list paddle subscriptions: %w", err)
	}

	var ref *SubscriptionRef
	err = res.Iter(ctx, func(sub *paddle.Subscription) (bool, error) {
		ref = &SubscriptionRef{
			ID:         sub.ID,
			CustomerID: sub.CustomerID,
		}
		if len(sub.Items) > 0 {
			ref.PriceID = sub.Items[0].Price.ID
		}
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate paddle subscriptions: %w", err)
	}
	return ref, nil
}

// ChangeSubscriptionPlan swaps the subscription's single item to the new
// price with an immediate prorated charge.
func (p *PaddleProvider) ChangeSubscriptionPlan(ctx context.Context, subscriptionID, priceID string) error {
	_, err := p.client.SubscriptionsClient.UpdateSubscription(ctx, updateSubscriptionRequest(subscriptionID, priceID))
	if err != nil {
		return fmt.Errorf("failed to update paddle subscription: %w", err)
	}
	return nil
}

// updateSubscriptionRequest builds the PATCH body for a plan swap. Mutable
// fields on Paddle update requests are PatchField wrappers, not plain values.
func updateSubscriptionRequest(subscriptionID, priceID string) *paddle.UpdateSubscriptionRequest {
	item := paddle.NewUpdateSubscriptionItemsSubscriptionUpdateItemFromCatalog(&paddle.SubscriptionUpdateItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	return &paddle.UpdateSubscriptionRequest{
		SubscriptionID:       subscriptionID,
		Items:                paddle.NewPatchField([]paddle.UpdateSubscriptionItems{*item}),
		ProrationBillingMode: paddle.NewPatchField(paddle.ProrationBillingModeProratedImmediately),
	}
}

// CreateCheckout opens a hosted checkout for the price and returns its URL.
// The user id rides along in custom data so later webhooks can be attributed.
func (p *PaddleProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"user_id": req.UserID.String(),
		},
	}
	if req.Email != "" {
		transactionReq.CustomData["email"] = req.Email
	}
	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return "", fmt.Errorf("failed to create paddle transaction: %w", err)
	}
	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return "", errors.New("no checkout URL returned from paddle")
	}
	return *transaction.Checkout.URL, nil
}

// CreatePortalSession returns the customer portal overview URL.
func (p *PaddleProvider) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID: customerID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create paddle customer portal session: %w", err)
	}
	if session.URLs.General.Overview == "" {
		return "", errors.New("no portal URL returned from paddle")
	}
	return session.URLs.General.Overview, nil
}
