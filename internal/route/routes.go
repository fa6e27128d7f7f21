package route

import (
	"net/http"

	"pneumoscan/internal/config"
	"pneumoscan/internal/handler"
	"pneumoscan/internal/logger"
	"pneumoscan/internal/middleware"
	"pneumoscan/internal/service/preview"
	"pneumoscan/internal/service/screen"
	"pneumoscan/internal/service/session"
	"pneumoscan/internal/service/websocket"
	"pneumoscan/internal/web"
)

// Predictor is the inference API as the routes use it.
type Predictor interface {
	screen.Analyzer
	handler.DiagnosedImageFetcher
}

// Deps groups what the handlers need.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Sessions  *session.Service
	Predictor Predictor
	Previews  *preview.Service
	Renderer  *web.Renderer
	Hub       *websocket.HubService
}

// SetupRoutes registers pages, result assets, API and ops endpoints, and
// wraps the mux with logging, authentication and session middleware.
func SetupRoutes(d Deps) http.Handler {
	cfg, log, sessions := d.Config, d.Logger, d.Sessions
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(web.Static())))

	// Screens
	mux.HandleFunc("/", handler.LandingHandler(sessions, d.Renderer, log))
	mux.HandleFunc("/start", handler.StartHandler(sessions, log))
	mux.HandleFunc("/upload", handler.UploadHandler(cfg, sessions, d.Renderer, log))
	mux.HandleFunc("/upload/preview", handler.PreviewHandler(sessions, d.Previews, log))
	mux.HandleFunc("/analyze", handler.AnalyzeHandler(cfg, sessions, d.Predictor, d.Renderer, log))
	mux.HandleFunc("/back", handler.BackHandler(sessions, log))
	mux.HandleFunc("/start-over", handler.StartOverHandler(sessions, log))
	mux.HandleFunc("/results", handler.ResultsPageHandler(sessions, d.Renderer, log))

	// Result assets
	mux.HandleFunc("/results/report", handler.ReportHandler(sessions, log))
	mux.HandleFunc("/results/diagnosed", handler.DiagnosedImageHandler(sessions, d.Predictor, d.Previews, log))
	mux.HandleFunc("/results/chart/", handler.ChartHandler(sessions, log))

	// API endpoints
	mux.HandleFunc("/api/status", handler.StatusWebsocketHandler(d.Hub, sessions, log))
	mux.HandleFunc("/api/result", handler.ResultAPIHandler(sessions, log))
	mux.HandleFunc("/healthz", handler.HealthHandler(cfg.APIBaseURL, d.Hub))

	// Log endpoints
	mux.HandleFunc("/logs/", handler.LogsHandler(log))

	// Auth endpoints
	mux.HandleFunc("/login", handler.LoginPageHandler(cfg, d.Renderer, log))
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, d.Renderer, log))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Apply middleware
	var h http.Handler = middleware.SessionMiddleware(cfg.SessionTTL, mux)
	h = middleware.AuthMiddleware(cfg.Password, h)
	return middleware.LoggingMiddleware(log, h)
}
