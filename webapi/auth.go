package webapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/grimbang/nailart/pkg/jwt"
)

var ErrUnauthorized = errors.New("webapi: authentication required")

type contextKey struct{ name string }

var (
	userIDKey    = contextKey{"user_id"}
	userEmailKey = contextKey{"user_email"}
)

// requireAuth verifies the bearer token and stores the authenticated user id
// in the request context. The token's subject must be a UUID issued by the
// identity provider.
func requireAuth(tokens *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respondJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized.Error()})
				return
			}

			var claims jwt.SessionClaims
			if err := tokens.Parse(token, &claims); err != nil {
				respondJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized.Error()})
				return
			}
			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				respondJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized.Error()})
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, userEmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// userID returns the authenticated user set by requireAuth.
func userID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// userEmail returns the authenticated user's verified email, which may be
// empty when the identity provider issued no email claim.
func userEmail(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey).(string)
	return email
}
