package auth

import (
	"context"
	"net/http"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session
// token. Handlers set and clear it; middleware reads it.
const SessionCookie = "session"

// contextKey is unexported so only this package can read or write the
// user ID in a request context — a plain string key could be shadowed by
// any package that guesses it.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces authentication on protected routes: it validates
// the session cookie, puts the userID in the request context, and returns
// 401 when the cookie is missing or invalid.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"sign in required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the user identity when a valid session is present
// but never blocks the request.
//
// The provider callback endpoints sit behind this middleware: the same URL
// serves both the "link to my signed-in account" and the "log me in by my
// linked account" branches, and which one runs depends on whether a viewer
// was resolved here.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil && userID != "" {
				ctx := context.WithValue(r.Context(), userIDKey, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID.
// Returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie — not an error, just an anonymous visitor
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
