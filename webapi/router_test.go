package webapi_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grimbang/nailart/billing"
	"github.com/grimbang/nailart/pkg/jwt"
	"github.com/grimbang/nailart/studio"
	"github.com/grimbang/nailart/webapi"
)

const (
	signingKey    = "test-signing-key"
	webhookSecret = "pdl_ntfset_test_secret"
	proPriceID    = "pri_pro_123"
	ultraPriceID  = "pri_ultra_456"
)

type stubProvider struct {
	subscription *billing.SubscriptionRef
	checkoutURL  string
	portalURL    string
	checkoutReq  billing.CheckoutRequest
}

func (p *stubProvider) ParseWebhook(context.Context, []byte, http.Header) (*billing.Event, error) {
	return nil, errors.New("not used")
}

func (p *stubProvider) ActiveSubscription(_ context.Context, customerID string) (*billing.SubscriptionRef, error) {
	if p.subscription == nil || p.subscription.CustomerID != customerID {
		return nil, nil
	}
	return p.subscription, nil
}

func (p *stubProvider) ChangeSubscriptionPlan(context.Context, string, string) error { return nil }

func (p *stubProvider) CreateCheckout(_ context.Context, req billing.CheckoutRequest) (string, error) {
	p.checkoutReq = req
	return p.checkoutURL, nil
}

func (p *stubProvider) CreatePortalSession(context.Context, string) (string, error) {
	return p.portalURL, nil
}

type stubBackend struct {
	err   error
	calls int
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Generate(context.Context, string, []studio.ReferenceImage) ([]byte, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return []byte("png"), nil
}

type stubUploader struct{ deleted []string }

func (u *stubUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func (u *stubUploader) Delete(_ context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

type env struct {
	handler  http.Handler
	tokens   *jwt.Service
	store    *billing.MemoryStore
	thumbs   *studio.MemoryStore
	provider *stubProvider
	backend  *stubBackend
	uploader *stubUploader
}

func newEnv(t *testing.T, useRealPaddle bool) *env {
	t.Helper()

	cfg := billing.Config{
		PaddleAPIKey:        "test-key",
		PaddleWebhookSecret: webhookSecret,
		PaddleEnvironment:   "sandbox",
		ProPriceID:          proPriceID,
		UltraPriceID:        ultraPriceID,
		CheckoutSuccessURL:  "https://app.example.com/success",
		PlanChangeLockTTL:   30 * time.Second,
	}
	catalog, err := billing.NewCatalog(cfg)
	require.NoError(t, err)

	e := &env{
		store:    billing.NewMemoryStore(),
		thumbs:   studio.NewMemoryStore(),
		provider: &stubProvider{checkoutURL: "https://pay.example.com/c", portalURL: "https://portal.example.com/s"},
		backend:  &stubBackend{},
		uploader: &stubUploader{},
	}

	log := slog.New(slog.DiscardHandler)

	var provider billing.Provider = e.provider
	if useRealPaddle {
		paddleProvider, err := billing.NewPaddleProvider(cfg)
		require.NoError(t, err)
		provider = paddleProvider
	}
	billingSvc := billing.NewService(cfg, catalog, provider, e.store, billing.NewMemoryLocker(), log)

	studioCfg := studio.Config{GeminiAPIKey: "test", GenerationTimeout: 5 * time.Second}
	studioSvc := studio.NewService(studioCfg, e.thumbs, e.store, e.uploader,
		[]studio.BackendPolicy{{Backend: e.backend, MaxAttempts: 1}}, log)

	e.tokens, err = jwt.New(signingKey)
	require.NoError(t, err)

	e.handler = webapi.NewRouter(webapi.Deps{
		Billing: billingSvc,
		Studio:  studioSvc,
		Tokens:  e.tokens,
		Log:     log,
	})
	return e
}

func (e *env) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	return e.tokenWithEmail(t, userID, "")
}

func (e *env) tokenWithEmail(t *testing.T, userID uuid.UUID, email string) string {
	t.Helper()
	token, err := e.tokens.Generate(jwt.SessionClaims{
		Subject:   userID.String(),
		Email:     email,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func (e *env) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)

	protected := []struct{ method, path string }{
		{http.MethodGet, "/billing/account"},
		{http.MethodPost, "/billing/checkout"},
		{http.MethodPost, "/billing/portal"},
		{http.MethodPost, "/studio/generate"},
		{http.MethodGet, "/studio/thumbnails"},
		{http.MethodDelete, "/studio/thumbnails/" + uuid.NewString()},
	}

	t.Run("missing token", func(t *testing.T) {
		for _, route := range protected {
			rec := e.do(t, route.method, route.path, "", "{}")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		for _, route := range protected {
			rec := e.do(t, route.method, route.path, "not.a.token", "{}")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := e.tokens.Generate(jwt.SessionClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		})
		require.NoError(t, err)
		rec := e.do(t, http.MethodPost, "/billing/portal", token, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non uuid subject", func(t *testing.T) {
		token, err := e.tokens.Generate(jwt.SessionClaims{
			Subject:   "alice",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		})
		require.NoError(t, err)
		rec := e.do(t, http.MethodPost, "/billing/portal", token, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCheckoutEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("new subscriber gets a checkout url", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		userID := uuid.New()

		rec := e.do(t, http.MethodPost, "/billing/checkout", e.token(t, userID), `{"plan":"pro"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "https://pay.example.com/c", body["url"])
		assert.Nil(t, body["upgraded"])
	})

	t.Run("checkout email comes from the token claim", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		userID := uuid.New()
		token := e.tokenWithEmail(t, userID, "alice@example.com")

		req := httptest.NewRequest(http.MethodPost, "/billing/checkout", strings.NewReader(`{"plan":"pro"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-User-Email", "mallory@example.com")
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice@example.com", e.provider.checkoutReq.Email)
	})

	t.Run("subscriber upgrade reports upgraded", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		userID := uuid.New()
		_, err := e.store.EnsureAccount(ctx, userID)
		require.NoError(t, err)
		require.NoError(t, e.store.SetPlan(ctx, userID, billing.PlanPro, billing.StatusActive))
		require.NoError(t, e.store.SetProviderCustomerID(ctx, userID, "ctm_1"))
		e.provider.subscription = &billing.SubscriptionRef{ID: "sub_1", PriceID: proPriceID, CustomerID: "ctm_1"}

		rec := e.do(t, http.MethodPost, "/billing/checkout", e.token(t, userID), `{"plan":"ultra"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["upgraded"])
	})

	t.Run("unknown plan is a 400", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		rec := e.do(t, http.MethodPost, "/billing/checkout", e.token(t, uuid.New()), `{"plan":"enterprise"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "unknown plan")
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		rec := e.do(t, http.MethodPost, "/billing/checkout", e.token(t, uuid.New()), `{plan`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAccountEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("first touch returns the signup state", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)

		rec := e.do(t, http.MethodGet, "/billing/account", e.token(t, uuid.New()), "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "free", body["plan"])
		assert.Equal(t, "inactive", body["status"])
		assert.EqualValues(t, 0, body["credit_balance"])
	})

	t.Run("reflects plan and balance", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		userID := uuid.New()
		_, err := e.store.EnsureAccount(ctx, userID)
		require.NoError(t, err)
		require.NoError(t, e.store.SetPlan(ctx, userID, billing.PlanPro, billing.StatusActive))
		require.NoError(t, e.store.AddCredits(ctx, userID, 42))

		rec := e.do(t, http.MethodGet, "/billing/account", e.token(t, userID), "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "pro", body["plan"])
		assert.Equal(t, "active", body["status"])
		assert.EqualValues(t, 42, body["credit_balance"])
	})
}

func TestPortalEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns portal url", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		userID := uuid.New()
		_, err := e.store.EnsureAccount(ctx, userID)
		require.NoError(t, err)
		require.NoError(t, e.store.SetProviderCustomerID(ctx, userID, "ctm_1"))

		rec := e.do(t, http.MethodPost, "/billing/portal", e.token(t, userID), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://portal.example.com/s", decodeBody(t, rec)["url"])
	})

	t.Run("404 without billing profile", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		rec := e.do(t, http.MethodPost, "/billing/portal", e.token(t, uuid.New()), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func signWebhook(body []byte) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(ts + ":" + string(body)))
	return fmt.Sprintf("ts=%s;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("bad signature is a 403 with zero mutations", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		userID := uuid.New()
		body := fmt.Sprintf(`{"event_type":"transaction.completed","data":{"id":"txn_1","customer_id":"ctm_1","custom_data":{"user_id":%q},"items":[{"price":{"id":%q}}],"details":{"totals":{"total":"2000"}}}}`, userID, proPriceID)

		req := httptest.NewRequest(http.MethodPost, "/billing/webhook", strings.NewReader(body))
		req.Header.Set("Paddle-Signature", "ts=1;h1=deadbeef")
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		_, err := e.store.GetAccount(context.Background(), userID)
		assert.ErrorIs(t, err, billing.ErrAccountNotFound)
	})

	t.Run("valid order event credits the account", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		userID := uuid.New()
		body := fmt.Sprintf(`{"event_type":"transaction.completed","data":{"id":"txn_1","customer_id":"ctm_1","custom_data":{"user_id":%q},"items":[{"price":{"id":%q}}],"details":{"totals":{"total":"2000"}}}}`, userID, proPriceID)

		req := httptest.NewRequest(http.MethodPost, "/billing/webhook", strings.NewReader(body))
		req.Header.Set("Paddle-Signature", signWebhook([]byte(body)))
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())

		account, err := e.store.GetAccount(context.Background(), userID)
		require.NoError(t, err)
		assert.EqualValues(t, 100, account.CreditBalance)
	})
}

func TestStudioEndpoints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	seedCredits := func(t *testing.T, e *env, userID uuid.UUID, amount int64) {
		t.Helper()
		require.NoError(t, e.store.AddCredits(ctx, userID, amount))
	}

	t.Run("generate returns the completed thumbnail", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		userID := uuid.New()
		seedCredits(t, e, userID, 5)

		rec := e.do(t, http.MethodPost, "/studio/generate", e.token(t, userID), `{"prompt":"a red bicycle"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		thumb, ok := body["thumbnail"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "completed", thumb["status"])
		assert.NotEmpty(t, thumb["image_url"])
		assert.Equal(t, 1, e.backend.calls)
	})

	t.Run("insufficient credits is a 402", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		rec := e.do(t, http.MethodPost, "/studio/generate", e.token(t, uuid.New()), `{"prompt":"a red bicycle"}`)
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Zero(t, e.backend.calls)
	})

	t.Run("validation failure is a 400", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		userID := uuid.New()
		seedCredits(t, e, userID, 5)

		rec := e.do(t, http.MethodPost, "/studio/generate", e.token(t, userID), `{"prompt":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("total backend failure is a 502", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		e.backend.err = errors.New("model overloaded")
		userID := uuid.New()
		seedCredits(t, e, userID, 5)

		rec := e.do(t, http.MethodPost, "/studio/generate", e.token(t, userID), `{"prompt":"a red bicycle"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("list and delete round trip", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		userID := uuid.New()
		seedCredits(t, e, userID, 5)

		rec := e.do(t, http.MethodPost, "/studio/generate", e.token(t, userID), `{"prompt":"a red bicycle"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		thumb := decodeBody(t, rec)["thumbnail"].(map[string]any)
		id := thumb["id"].(string)

		rec = e.do(t, http.MethodGet, "/studio/thumbnails", e.token(t, userID), "")
		require.Equal(t, http.StatusOK, rec.Code)
		thumbs := decodeBody(t, rec)["thumbnails"].([]any)
		require.Len(t, thumbs, 1)

		rec = e.do(t, http.MethodDelete, "/studio/thumbnails/"+id, e.token(t, userID), "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Len(t, e.uploader.deleted, 1)

		rec = e.do(t, http.MethodGet, "/studio/thumbnails", e.token(t, userID), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeBody(t, rec)["thumbnails"])
	})

	t.Run("deleting a missing thumbnail is a 404", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		rec := e.do(t, http.MethodDelete, "/studio/thumbnails/"+uuid.NewString(), e.token(t, uuid.New()), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid thumbnail id is a 400", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		rec := e.do(t, http.MethodDelete, "/studio/thumbnails/not-a-uuid", e.token(t, uuid.New()), "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)
	rec := e.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
