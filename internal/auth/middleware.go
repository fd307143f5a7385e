package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// errNoToken means the request carried no Authorization header at all.
var errNoToken = errors.New("auth: no bearer token in Authorization header")

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "userID", id), ANY package that knows the string
// "userID" can read or shadow your value. A package-private type prevents
// collisions: only THIS package can create a key of type contextKey.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the session JWT from the "Authorization: Bearer <token>" header,
// validates it, and stores the userID in the request context. If the header
// is missing or the token invalid, it returns a 401 envelope and stops the
// request chain.
//
// EVERY REQUEST IS INDEPENDENTLY RE-VERIFIED:
// There is no session cache — validation is a pure HMAC check, cheap enough
// to run per request, and it means a token rotated out (new JWT_SECRET)
// stops working immediately everywhere.
//
// WHY A HEADER, NOT A COOKIE?
// The API is consumed by a separate frontend origin holding the token it
// received in the OAuth redirect fragment. An explicit Authorization header
// keeps the API origin-agnostic and immune to CSRF (no ambient credential
// the browser attaches on its own).
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"error":{"error":"unauthorized","message":"valid bearer token required"},"status_code":401}`))
				return
			}

			// Store userID in context so handlers can read it
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
//
// Returns ("", false) if the request is anonymous (no valid token was present).
// Returns (id, true) if the user is authenticated.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a context carrying the given userID.
// Exported for handler tests, which bypass the middleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// extractUserID reads the Authorization header and validates the bearer token.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")

	// "Bearer " prefix is case-insensitive per RFC 6750, but in practice
	// every client sends it capitalized; we accept any casing.
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errNoToken
	}

	return tokens.Validate(strings.TrimSpace(header[len(prefix):]))
}
