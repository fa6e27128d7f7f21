package handler

import (
	"crypto/subtle"
	"net/http"

	"pneumoscan/internal/config"
	"pneumoscan/internal/logger"
	"pneumoscan/internal/middleware"
	"pneumoscan/internal/web"
)

// LoginPageHandler serves GET /login.
func LoginPageHandler(cfg *config.Config, renderer *web.Renderer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Password == "" {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		render(w, renderer, logger, http.StatusOK, web.PageLogin, "")
	}
}

// LoginHandler handles POST /auth/login by validating password and issuing an auth cookie.
func LoginHandler(cfg *config.Config, renderer *web.Renderer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		password := r.FormValue("password")
		if subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) != 1 {
			logger.Warning("Failed login attempt from %s", r.RemoteAddr)
			render(w, renderer, logger, http.StatusUnauthorized, web.PageLogin, "Invalid password")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AuthCookie,
			Value:    middleware.AuthToken(cfg.Password),
			Path:     "/",
			MaxAge:   2592000, // 30 days
			HttpOnly: true,
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler clears the authentication cookie and redirects to the login page.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   middleware.AuthCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
