package billing_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grimbang/nailart/billing"
)

const webhookSecret = "pdl_ntfset_test_secret"

func newPaddleProvider(t *testing.T) *billing.PaddleProvider {
	t.Helper()
	cfg := testConfig()
	cfg.PaddleWebhookSecret = webhookSecret
	cfg.PaddleEnvironment = "sandbox"
	provider, err := billing.NewPaddleProvider(cfg)
	require.NoError(t, err)
	return provider
}

// signPayload produces a Paddle-Signature header value for the body, in the
// ts=...;h1=... format the verifier expects.
func signPayload(body []byte) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(ts + ":" + string(body)))
	return fmt.Sprintf("ts=%s;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func signedHeaders(body []byte) http.Header {
	headers := http.Header{}
	headers.Set("Paddle-Signature", signPayload(body))
	return headers
}

func TestPaddleParseWebhook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects missing signature", func(t *testing.T) {
		t.Parallel()
		provider := newPaddleProvider(t)
		_, err := provider.ParseWebhook(ctx, []byte(`{}`), http.Header{})
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("rejects tampered body", func(t *testing.T) {
		t.Parallel()
		provider := newPaddleProvider(t)
		body := []byte(`{"event_type":"transaction.completed","data":{}}`)
		headers := signedHeaders(body)
		tampered := []byte(`{"event_type":"transaction.completed","data":{"id":"txn_evil"}}`)
		_, err := provider.ParseWebhook(ctx, tampered, headers)
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("rejects malformed payload with valid signature", func(t *testing.T) {
		t.Parallel()
		provider := newPaddleProvider(t)
		body := []byte(`not json`)
		_, err := provider.ParseWebhook(ctx, body, signedHeaders(body))
		assert.ErrorIs(t, err, billing.ErrMalformedEvent)
	})

	t.Run("normalizes completed transaction", func(t *testing.T) {
		t.Parallel()
		provider := newPaddleProvider(t)
		body := []byte(`{
			"event_id": "evt_1",
			"event_type": "transaction.completed",
			"data": {
				"id": "txn_123",
				"subscription_id": "sub_456",
				"customer_id": "ctm_789",
				"custom_data": {"user_id": "a2f49f5e-11dc-46a8-bef0-7b6b24ed2a01"},
				"items": [{"price": {"id": "pri_pro_123"}}],
				"details": {"totals": {"total": "2000"}}
			}
		}`)

		event, err := provider.ParseWebhook(ctx, body, signedHeaders(body))
		require.NoError(t, err)
		assert.Equal(t, billing.EventOrderPaid, event.Kind)
		assert.Equal(t, "transaction.completed", event.ProviderEvent)
		assert.Equal(t, "txn_123", event.OrderID)
		assert.Equal(t, "sub_456", event.SubscriptionID)
		assert.Equal(t, "ctm_789", event.CustomerID)
		assert.Equal(t, "a2f49f5e-11dc-46a8-bef0-7b6b24ed2a01", event.UserID)
		assert.Equal(t, "pri_pro_123", event.PriceID)
		assert.EqualValues(t, 2000, event.Amount)
	})

	t.Run("other transaction events are ignored", func(t *testing.T) {
		t.Parallel()
		provider := newPaddleProvider(t)
		body := []byte(`{"event_type":"transaction.created","data":{"id":"txn_1"}}`)
		event, err := provider.ParseWebhook(ctx, body, signedHeaders(body))
		require.NoError(t, err)
		assert.Equal(t, billing.EventIgnored, event.Kind)
	})

	t.Run("maps subscription lifecycle events", func(t *testing.T) {
		t.Parallel()
		provider := newPaddleProvider(t)

		cases := []struct {
			providerEvent string
			extra         string
			want          billing.EventKind
		}{
			{"subscription.activated", "", billing.EventSubscriptionActive},
			{"subscription.trialing", "", billing.EventSubscriptionActive},
			{"subscription.updated", "", billing.EventSubscriptionUpdated},
			{"subscription.updated", `,"scheduled_change":{"action":"cancel"}`, billing.EventSubscriptionCanceled},
			{"subscription.updated", `,"scheduled_change":{"action":"pause"}`, billing.EventSubscriptionUpdated},
			{"subscription.canceled", "", billing.EventSubscriptionRevoked},
			{"subscription.resumed", "", billing.EventSubscriptionUncanceled},
			{"subscription.past_due", "", billing.EventSubscriptionPastDue},
			{"subscription.imported", "", billing.EventIgnored},
		}
		for _, tc := range cases {
			body := fmt.Appendf(nil, `{
				"event_type": %q,
				"data": {
					"id": "sub_1",
					"customer_id": "ctm_1",
					"custom_data": {"user_id": "a2f49f5e-11dc-46a8-bef0-7b6b24ed2a01"},
					"items": [{"price": {"id": "pri_ultra_456"}}]%s
				}
			}`, tc.providerEvent, tc.extra)

			event, err := provider.ParseWebhook(ctx, body, signedHeaders(body))
			require.NoError(t, err, tc.providerEvent)
			assert.Equal(t, tc.want, event.Kind, "%s%s", tc.providerEvent, tc.extra)
			assert.Equal(t, "sub_1", event.SubscriptionID)
			assert.Equal(t, "pri_ultra_456", event.PriceID)
		}
	})

	t.Run("unrelated events are ignored", func(t *testing.T) {
		t.Parallel()
		provider := newPaddleProvider(t)
		body := []byte(`{"event_type":"address.created","data":{"id":"add_1"}}`)
		event, err := provider.ParseWebhook(ctx, body, signedHeaders(body))
		require.NoError(t, err)
		assert.Equal(t, billing.EventIgnored, event.Kind)
		assert.Equal(t, "address.created", event.ProviderEvent)
	})
}
