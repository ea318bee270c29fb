package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// SessionCookie is the cookie carrying the admin session token.
const SessionCookie = "hostpanel_session"

// Verifier checks a session token against the live admin session.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// RequireAuth rejects requests without a valid session token. The token is
// read from the session cookie, or from an "Authorization: Bearer" header.
// API callers get 401; page navigations are redirected to loginPath.
func RequireAuth(v Verifier, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token != "" {
				ok, err := v.Verify(r.Context(), token)
				if err != nil {
					slog.Error("session verification failed",
						"request_id", GetRequestID(r.Context()), "error", err)
				}
				if ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
		})
	}
}

// TokenFromRequest extracts the session token from the cookie, falling back
// to a Bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
