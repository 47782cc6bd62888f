package webapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/grimbang/nailart/billing"
	"github.com/grimbang/nailart/pkg/logger"
)

// maxWebhookBody bounds provider payloads; real Paddle events are a few KB.
const maxWebhookBody = 1 << 20

type billingHandlers struct {
	svc *billing.Service
	log *slog.Logger
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

type checkoutResponse struct {
	Upgraded bool   `json:"upgraded,omitempty"`
	URL      string `json:"url,omitempty"`
}

// checkout handles POST /billing/checkout.
func (h *billingHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(r.Context())
	if !ok {
		respondError(r.Context(), w, h.log, ErrUnauthorized)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	change, err := h.svc.ChangePlan(r.Context(), user, userEmail(r.Context()), req.Plan)
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}

	if change.Upgraded {
		respondJSON(w, http.StatusOK, checkoutResponse{Upgraded: true})
		return
	}
	respondJSON(w, http.StatusOK, checkoutResponse{URL: change.CheckoutURL})
}

type accountResponse struct {
	Plan          string `json:"plan"`
	Status        string `json:"status"`
	CreditBalance int64  `json:"credit_balance"`
}

// account handles GET /billing/account.
func (h *billingHandlers) account(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(r.Context())
	if !ok {
		respondError(r.Context(), w, h.log, ErrUnauthorized)
		return
	}

	acc, err := h.svc.Account(r.Context(), user)
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, accountResponse{
		Plan:          string(acc.Plan),
		Status:        string(acc.Status),
		CreditBalance: acc.CreditBalance,
	})
}

// portal handles POST /billing/portal.
func (h *billingHandlers) portal(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(r.Context())
	if !ok {
		respondError(r.Context(), w, h.log, ErrUnauthorized)
		return
	}

	url, err := h.svc.PortalLink(r.Context(), user)
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// webhook handles POST /billing/webhook. It is unauthenticated; the
// provider's signature is the only credential. Processing failures return
// 500 so the provider redelivers.
func (h *billingHandlers) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body"})
		return
	}

	if err := h.svc.HandleWebhook(r.Context(), body, r.Header); err != nil {
		h.log.WarnContext(r.Context(), "webhook rejected", logger.Error(err))
		respondError(r.Context(), w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
