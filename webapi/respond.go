package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/grimbang/nailart/billing"
	"github.com/grimbang/nailart/pkg/logger"
	"github.com/grimbang/nailart/studio"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps domain errors onto the wire. Client-correctable failures
// return the sentinel's message; everything unexpected is logged and hidden
// behind a generic 500.
func respondError(ctx context.Context, w http.ResponseWriter, log *slog.Logger, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(ctx, "request failed", logger.Error(err))
		msg := "internal server error"
		if status == http.StatusBadGateway {
			msg = "generation backends unavailable"
		}
		respondJSON(w, status, errorResponse{Error: msg})
		return
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, billing.ErrUnknownPlan),
		errors.Is(err, billing.ErrSamePlan),
		errors.Is(err, billing.ErrMalformedEvent),
		errors.Is(err, studio.ErrEmptyPrompt),
		errors.Is(err, studio.ErrPromptTooLong),
		errors.Is(err, studio.ErrTooManyImages),
		errors.Is(err, studio.ErrImageTooLarge),
		errors.Is(err, studio.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, studio.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, billing.ErrInvalidSignature):
		return http.StatusForbidden
	case errors.Is(err, billing.ErrNoBillingProfile),
		errors.Is(err, studio.ErrThumbnailNotFound):
		return http.StatusNotFound
	case errors.Is(err, billing.ErrPlanChangeInFlight):
		return http.StatusConflict
	case errors.Is(err, studio.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
