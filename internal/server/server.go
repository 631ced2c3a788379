// Package server wires the dependency graph and defines the routes. It is
// the composition root: storage, the Steam client, the orchestrator, and
// the handlers are all constructed here and nowhere else.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/playmate/internal/auth"
	"github.com/sakif/playmate/internal/config"
	"github.com/sakif/playmate/internal/handler"
	"github.com/sakif/playmate/internal/middleware"
	"github.com/sakif/playmate/internal/notify"
	sqliteRepo "github.com/sakif/playmate/internal/repository/sqlite"
	"github.com/sakif/playmate/internal/service"
	"github.com/sakif/playmate/internal/state"
	"github.com/sakif/playmate/internal/steam"
)

// Server owns the router and the long-lived resources: the database
// connection and the reminder scheduler, both released on shutdown.
type Server struct {
	router    *chi.Mux
	config    config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	scheduler *notify.Scheduler
	svc       *service.Service
}

func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	scheduler, err := notify.NewScheduler(notify.NewLogNotifier(logger), logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating reminder scheduler: %w", err)
	}

	gateway := steam.NewClient(steam.Config{
		APIKey:  cfg.SteamAPIKey,
		BaseURL: cfg.SteamAPIBase,
	}, logger)

	svc := service.New(service.Deps{
		Users:     db,
		Searches:  db,
		Settings:  db,
		Sessions:  db,
		Gateway:   gateway,
		Passwords: auth.NewPasswordService(),
		Reminders: scheduler,
		Surface:   state.NewSurface(),
		Logger:    logger,
	})

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		db:        db,
		scheduler: scheduler,
		svc:       svc,
	}

	if err := s.setupRoutes(); err != nil {
		scheduler.Shutdown()
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	sessions := auth.NewMiddleware(tokens)

	authHandler := handler.NewAuthHandler(s.svc, tokens, s.logger)
	profileHandler := handler.NewProfileHandler(s.svc, s.logger)
	playHandler := handler.NewPlayHandler(s.svc, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.HandleSignUp)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Post("/authenticate", profileHandler.HandleAuthenticate)
		r.Get("/state", profileHandler.HandleState)
		r.Get("/status", profileHandler.HandleServerStatus)
		r.Get("/profile/{id}", profileHandler.HandleFetchProfile)
		r.Get("/stats/{id}", profileHandler.HandleFetchStats)
		r.Get("/matches/{id}", profileHandler.HandleFetchMatches)
		r.Get("/searches", profileHandler.HandleRecentSearches)
		r.Delete("/searches", profileHandler.HandleClearSearches)

		// Session tracking needs a signed-in account.
		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireAuth)
			r.Get("/auth/me", authHandler.HandleMe)
			r.Post("/play/start", playHandler.HandleStartSession)
			r.Post("/play/end", playHandler.HandleEndSession)
			r.Post("/play/break", playHandler.HandleBreak)
			r.Get("/play/daily", playHandler.HandleDailyPlaytime)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// in-flight requests get 30 seconds, then the scheduler and database are
// released.
func (s *Server) Start() error {
	defer s.db.Close()
	defer func() {
		if err := s.scheduler.Shutdown(); err != nil {
			s.logger.Warn("scheduler shutdown", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second, // the authenticate flow may run up to 30s
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
