package middleware

import (
	"context"
	"net/http"
	"time"

	"pneumoscan/internal/service/session"
)

// SessionCookie carries the browser's session ID.
const SessionCookie = "session_id"

type contextKey struct{}

// SessionMiddleware makes sure every request carries a valid session ID,
// issuing a new cookie when the browser has none.
func SessionMiddleware(ttl time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(SessionCookie); err == nil && session.ValidID(cookie.Value) {
			id = cookie.Value
		} else {
			id = session.NewID()
		}

		// Refreshed on every request so the cookie outlives activity, not creation.
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
	})
}

// WithSessionID stores id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// SessionID returns the session ID stored by SessionMiddleware.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
