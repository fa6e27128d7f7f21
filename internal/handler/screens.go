package handler

import (
	"net/http"

	"pneumoscan/internal/config"
	"pneumoscan/internal/dto"
	"pneumoscan/internal/logger"
	"pneumoscan/internal/middleware"
	"pneumoscan/internal/models"
	"pneumoscan/internal/service/session"
	"pneumoscan/internal/web"
)

// screenPath maps a screen to the page that shows it.
func screenPath(screen models.Screen) string {
	switch screen {
	case models.ScreenUpload:
		return "/upload"
	case models.ScreenResults:
		return "/results"
	default:
		return "/"
	}
}

// loadSession fetches the request's session, answering 500 on failure.
func loadSession(w http.ResponseWriter, r *http.Request, sessions *session.Service, logger *logger.Logger) (*models.Session, bool) {
	sess, err := sessions.Get(middleware.SessionID(r.Context()))
	if err != nil {
		logger.Error("Failed to load session: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

func uploadView(cfg *config.Config, sessions *session.Service, sess *models.Session) dto.UploadView {
	view := dto.UploadView{
		Error:     sess.Error,
		Busy:      sessions.IsBusy(sess.ID),
		MaxSizeMB: cfg.MaxUploadSize >> 20,
	}
	if sess.Upload != nil {
		view.HasFile = true
		view.FileName = sess.Upload.FileName
	}
	return view
}

func render(w http.ResponseWriter, renderer *web.Renderer, logger *logger.Logger, status int, page string, data interface{}) {
	if err := renderer.Render(w, status, page, data); err != nil {
		logger.Error("%v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// LandingHandler serves GET / and sends sessions past the landing screen
// back to the page they are on.
func LandingHandler(sessions *session.Service, renderer *web.Renderer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sess, ok := loadSession(w, r, sessions, logger)
		if !ok {
			return
		}
		if sess.Screen != models.ScreenLanding {
			http.Redirect(w, r, screenPath(sess.Screen), http.StatusSeeOther)
			return
		}
		render(w, renderer, logger, http.StatusOK, web.PageLanding, nil)
	}
}

// UploadPageHandler serves GET /upload.
func UploadPageHandler(cfg *config.Config, sessions *session.Service, renderer *web.Renderer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(w, r, sessions, logger)
		if !ok {
			return
		}
		if sess.Screen != models.ScreenUpload {
			http.Redirect(w, r, screenPath(sess.Screen), http.StatusSeeOther)
			return
		}
		render(w, renderer, logger, http.StatusOK, web.PageUpload, uploadView(cfg, sessions, sess))
	}
}

// ResultsPageHandler serves GET /results.
func ResultsPageHandler(sessions *session.Service, renderer *web.Renderer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(w, r, sessions, logger)
		if !ok {
			return
		}
		if sess.Screen != models.ScreenResults || sess.Result == nil {
			http.Redirect(w, r, screenPath(sess.Screen), http.StatusSeeOther)
			return
		}
		render(w, renderer, logger, http.StatusOK, web.PageResults, dto.NewResultsView(sess.Result, sess.Upload))
	}
}

type transition func(id string) (*models.Session, error)

// TransitionHandler applies a navigation transition on POST and redirects to
// the resulting screen.
func TransitionHandler(apply transition, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sess, err := apply(middleware.SessionID(r.Context()))
		if err != nil {
			logger.Error("Screen transition failed: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, screenPath(sess.Screen), http.StatusSeeOther)
	}
}

// StartHandler serves POST /start.
func StartHandler(sessions *session.Service, logger *logger.Logger) http.HandlerFunc {
	return TransitionHandler(sessions.Start, logger)
}

// BackHandler serves POST /back.
func BackHandler(sessions *session.Service, logger *logger.Logger) http.HandlerFunc {
	return TransitionHandler(sessions.Back, logger)
}

// StartOverHandler serves POST /start-over.
func StartOverHandler(sessions *session.Service, logger *logger.Logger) http.HandlerFunc {
	return TransitionHandler(sessions.StartOver, logger)
}
