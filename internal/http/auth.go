package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"freeradical-go/internal/services"
)

const headerAPIKey = "X-API-Key"

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxEmail  contextKey = "email"
	ctxAPIKey contextKey = "apiKey"
)

// WithAuth accepts a bearer access token or one of apiKeys in X-API-Key.
// API key callers have no user id.
func WithAuth(tokenService services.TokenService, apiKeys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				identity, err := tokenService.Authenticate(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "Authentication failed")
					return
				}
				ctx := context.WithValue(r.Context(), ctxUserID, identity.UserID)
				ctx = context.WithValue(ctx, ctxEmail, identity.Email)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			if key := r.Header.Get(headerAPIKey); key != "" && validAPIKey(apiKeys, key) {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxAPIKey, true)))
				return
			}
			WriteError(w, http.StatusUnauthorized, "Authentication failed")
		})
	}
}

func validAPIKey(keys []string, provided string) bool {
	for _, key := range keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(provided)) == 1 {
			return true
		}
	}
	return false
}

func CurrentUserID(r *http.Request) string {
	if value, ok := r.Context().Value(ctxUserID).(string); ok {
		return value
	}
	return ""
}
