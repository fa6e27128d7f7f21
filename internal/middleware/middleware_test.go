package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pneumoscan/internal/service/session"
)

func echoSession(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(SessionID(r.Context())))
}

func TestSessionMiddleware_IssuesAndReusesCookie(t *testing.T) {
	h := SessionMiddleware(time.Hour, http.HandlerFunc(echoSession))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie {
		t.Fatalf("Expected one session cookie, got %v", cookies)
	}
	id := cookies[0].Value
	if !session.ValidID(id) || rec.Body.String() != id {
		t.Fatalf("Expected handler to see issued id %q, got %q", id, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.String() != id {
		t.Errorf("Expected id to be reused, got %q", rec.Body.String())
	}
}

func TestSessionMiddleware_ReplacesForgedCookie(t *testing.T) {
	h := SessionMiddleware(time.Hour, http.HandlerFunc(echoSession))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc/passwd"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Body.String(); got == "../../etc/passwd" || !session.ValidID(got) {
		t.Errorf("Expected a fresh id, got %q", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	signed := AuthToken("secret")
	tests := []struct {
		name     string
		password string
		path     string
		cookie   string
		want     int
	}{
		{"no password configured", "", "/", "", http.StatusOK},
		{"page without cookie", "secret", "/upload", "", http.StatusSeeOther},
		{"api without cookie", "secret", "/api/result", "", http.StatusUnauthorized},
		{"health is public", "secret", "/healthz", "", http.StatusOK},
		{"static is public", "secret", "/static/app.css", "", http.StatusOK},
		{"page with forged cookie", "secret", "/upload", "true", http.StatusSeeOther},
		{"api with forged cookie", "secret", "/api/result", "true", http.StatusUnauthorized},
		{"page with signed cookie", "secret", "/upload", signed, http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.cookie != "" {
			req.AddCookie(&http.Cookie{Name: AuthCookie, Value: tt.cookie})
		}
		rec := httptest.NewRecorder()
		AuthMiddleware(tt.password, ok).ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, rec.Code)
		}
	}
}

func TestAuthToken_DependsOnPassword(t *testing.T) {
	if AuthToken("secret") == AuthToken("other") {
		t.Error("Expected different tokens for different passwords")
	}
	if AuthToken("secret") != AuthToken("secret") {
		t.Error("Expected a stable token for the same password")
	}

	// A token for an old password no longer opens the gate.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: AuthToken("old")})
	rec := httptest.NewRecorder()
	AuthMiddleware("new", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("Expected redirect to login, got %d", rec.Code)
	}
}
