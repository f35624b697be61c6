package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// contextKey is an unexported type so no other package can collide with or
// overwrite the identity stored in the request context.
type contextKey string

const emailKey contextKey = "email"

// RequireAuth enforces a valid bearer token on protected routes.
//
// It reads "Authorization: Bearer <jwt>", verifies the token and stores the
// email in the request context. Anything else gets 401 and stops the chain.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := extractEmail(r, tokens)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			ctx := WithEmail(r.Context(), email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EmailFromContext returns the authenticated email.
// Returns ("", false) if the request never passed through RequireAuth.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}

// WithEmail stores an authenticated email in ctx. Exported for handler tests.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

// extractEmail reads the bearer token and verifies it.
func extractEmail(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if header == "" || !found || !strings.EqualFold(scheme, "bearer") {
		return "", errMissingBearer
	}
	return tokens.Verify(strings.TrimSpace(token))
}

type authError string

func (e authError) Error() string { return string(e) }

const errMissingBearer = authError("bearer token required")

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="turflog"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthenticated",
		"message": message,
	})
}
