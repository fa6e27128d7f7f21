package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// AuthCookie marks a browser that passed the password gate.
const AuthCookie = "authenticated"

const authMessage = "pneumoscan-auth-v1"

// AuthToken is the cookie value issued after a successful login, an
// HMAC-SHA256 keyed by the password.
func AuthToken(password string) string {
	mac := hmac.New(sha256.New, []byte(password))
	mac.Write([]byte(authMessage))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthMiddleware requires the auth cookie when a password is configured.
// The login page, health check and static assets stay public.
func AuthMiddleware(password string, next http.Handler) http.Handler {
	if password == "" {
		return next
	}

	expected := []byte(AuthToken(password))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" ||
			r.URL.Path == "/auth/login" ||
			r.URL.Path == "/healthz" ||
			strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || !hmac.Equal([]byte(cookie.Value), expected) {
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
