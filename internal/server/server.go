// Package server is the composition root: it wires the database,
// services, handlers, and middleware into one router, and owns the HTTP
// server lifecycle.
//
// DEPENDENCY FLOW:
//
//	main.go reads config → server.New wires:
//	  sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, nothing below the handler sees HTTP.
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

	"github.com/sakif/portal/internal/auth"
	"github.com/sakif/portal/internal/handler"
	"github.com/sakif/portal/internal/middleware"
	"github.com/sakif/portal/internal/provider"
	sqliteRepo "github.com/sakif/portal/internal/repository/sqlite"
	"github.com/sakif/portal/internal/service"
)

// Config holds everything main.go reads from the environment.
type Config struct {
	Port   int
	DBPath string

	SessionSecret string

	DiscordClientID       string
	DiscordClientSecret   string
	DiscordCallbackURL    string
	DiscordBotToken       string
	DiscordGuildID        string
	DiscordVerifiedRoleID string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and assembles the full dependency graph.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
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

	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	discord := provider.NewDiscord(
		s.config.DiscordClientID,
		s.config.DiscordClientSecret,
		s.config.DiscordCallbackURL,
		s.config.DiscordBotToken,
		s.config.DiscordGuildID,
	)
	github := provider.NewGitHub(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	reporter := &service.LogReporter{Logger: s.logger}

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	identityService := service.NewIdentityService(
		s.db.Users(), discord, github, discord,
		s.config.DiscordVerifiedRoleID, reporter, s.logger,
	)
	userService := service.NewUserService(s.db.Users(), s.logger)
	projectService := service.NewProjectService(s.db.Projects(), s.logger)
	enrollmentService := service.NewEnrollmentService(
		s.db.Enrollments(), s.db.Semesters(), s.db.Projects(), s.logger,
	)
	meetingService := service.NewMeetingService(s.db.Meetings(), s.logger)

	authHandler := handler.NewAuthHandler(authService, identityService, s.logger)
	userHandler := handler.NewUserHandler(userService, authService, enrollmentService, s.logger)
	projectHandler := handler.NewProjectHandler(projectService, authService, s.logger)
	meetingHandler := handler.NewMeetingHandler(meetingService, authService, s.logger)
	flashHandler := handler.NewFlashHandler()

	optionalAuth := auth.OptionalAuth(tokens)
	requireAuth := auth.RequireAuth(tokens)

	// Identity flows. The callbacks sit behind OptionalAuth: the same URL
	// links for a signed-in viewer and logs in an anonymous one.
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		r.Get("/discord", authHandler.HandleDiscordStart)
		r.Get("/github", authHandler.HandleGitHubStart)

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/discord/callback", authHandler.HandleDiscordCallback)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/discord/unlink", authHandler.HandleDiscordUnlink)
			r.Post("/github/unlink", authHandler.HandleGitHubUnlink)
		})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/flash", flashHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/users", userHandler.HandleList)
			r.Get("/users/{id}", userHandler.HandleGet)
			r.Get("/projects", projectHandler.HandleList)
			r.Get("/projects/{id}", projectHandler.HandleGet)
			r.Get("/meetings", meetingHandler.HandleList)
			r.Get("/meetings/{id}", meetingHandler.HandleGet)
			r.Get("/semesters", userHandler.HandleSemesters)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/profile", userHandler.HandleGetProfile)
			r.Put("/profile", userHandler.HandleUpdateProfile)
			r.Post("/users/{id}/enroll", userHandler.HandleEnroll)
			r.Post("/projects", projectHandler.HandlePropose)
			r.Post("/meetings", meetingHandler.HandleCreate)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests (30s), close the
// database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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
