package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pneumoscan/internal/config"
	"pneumoscan/internal/logger"
	"pneumoscan/internal/repository"
	"pneumoscan/internal/repository/memory"
	"pneumoscan/internal/repository/sqlite"
	"pneumoscan/internal/route"
	"pneumoscan/internal/service/predictor"
	"pneumoscan/internal/service/preview"
	"pneumoscan/internal/service/session"
	"pneumoscan/internal/service/websocket"
	"pneumoscan/internal/web"
)

type App struct {
	config         *config.Config
	logger         *logger.Logger
	hubService     *websocket.HubService
	sessionService *session.Service
	closer         io.Closer
	handler        http.Handler
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	repo, closer, err := openSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	hub := websocket.NewHubService(log)
	sessions := session.NewService(repo, hub, cfg.SessionTTL, log)

	handler := route.SetupRoutes(route.Deps{
		Config:    cfg,
		Logger:    log,
		Sessions:  sessions,
		Predictor: predictor.NewClient(cfg, log),
		Previews:  preview.NewService(cfg.PreviewSize),
		Renderer:  renderer,
		Hub:       hub,
	})

	return &App{
		config:         cfg,
		logger:         log,
		hubService:     hub,
		sessionService: sessions,
		closer:         closer,
		handler:        handler,
	}, nil
}

// openSessionStore picks the session repository named by SESSION_STORE.
func openSessionStore(cfg *config.Config) (repository.SessionRepository, io.Closer, error) {
	switch cfg.SessionStore {
	case "memory", "":
		return memory.NewSessionRepository(), nil, nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewSessionRepository(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_STORE %q (want memory or sqlite)", cfg.SessionStore)
	}
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background services
	go a.hubService.Run()
	go a.sessionService.Run(ctx, a.config.SessionSweepInterval)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🩻 Pneumonia X-Ray Analyzer\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🤖 Inference API: %s\n", a.config.APIBaseURL)
	fmt.Printf("💾 Sessions: %s\n", a.config.SessionStore)
	if a.config.Password != "" {
		fmt.Printf("🔑 Password protection enabled\n")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		runErr = server.Shutdown(shutdownCtx)
		cancel()
	}

	a.hubService.Stop()
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			a.logger.Error("Failed to close session store: %v", err)
		}
	}
	return runErr
}
