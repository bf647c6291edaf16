package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// SessionIDKey is the context key carrying the dashboard session ID.
const SessionIDKey contextKey = "session-id"

// SessionAllocator mints new session identifiers. Implemented by the
// services.SessionStore.
type SessionAllocator interface {
	NewSession() string
}

// Session ensures every request carries a dashboard session identity.
// A missing or empty session cookie gets a freshly allocated session;
// the identifier is stored in the request context for handlers.
//
// Working sets are keyed by this identity, which is what keeps
// concurrent users from seeing each other's uploads.
func Session(cookieName string, sessions SessionAllocator, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
				sessionID = cookie.Value
			}

			if sessionID == "" {
				sessionID = sessions.NewSession()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				logger.InfoContext(r.Context(), "allocated dashboard session",
					slog.String("session_id", sessionID))
			}

			ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID retrieves the dashboard session ID from the context.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}
