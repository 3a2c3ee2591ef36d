package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/blogem/oauth2-strategy/authenticator"
	"github.com/blogem/oauth2-strategy/config"
	"github.com/blogem/oauth2-strategy/controllers"
	"github.com/blogem/oauth2-strategy/database"
	authmiddleware "github.com/blogem/oauth2-strategy/middleware"
	"github.com/blogem/oauth2-strategy/repositories"
	"github.com/blogem/oauth2-strategy/services"
	"github.com/blogem/oauth2-strategy/strategy"
)

func main() {
	// Load environment variables from .env file, if there is one
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load the env vars", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Initialize database
	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	repos := repositories.NewRepositories(db)

	// Initialize services
	srvs := services.NewServices(repos)

	// Initialize the OAuth 2.0 strategy
	settings := cfg.Settings()
	settings.HTTPClient = &http.Client{Timeout: 30 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	auth, err := authenticator.New(ctx, settings, srvs.Accounts.Verify, strategy.WithLogger(logger))
	cancel()
	if err != nil {
		slog.Error("failed to initialize authentication strategy", "error", err)
		os.Exit(1)
	}

	// Initialize controllers
	ctrl := controllers.NewControllers(srvs, repos, auth)

	// Set up router
	r, err := setupRouter(ctrl, cfg)
	if err != nil {
		slog.Error("failed to setup router", "error", err)
		os.Exit(1)
	}

	slog.Info("server starting",
		"port", cfg.Port,
		"strategy", auth.Name(),
		"database", cfg.DatabasePath,
	)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// setupRouter configures all routes
func setupRouter(ctrl *controllers.Controllers, cfg *config.Config) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second)) // 60 second timeout for OAuth callbacks

	// Session middleware
	sessionHandler, err := session.Sessioner(session.Options{
		Provider:       "memory",
		ProviderConfig: "",
		CookieName:     "oauth2_session",
		Secure:         cfg.UseHTTPS, // Set to true when USE_HTTPS=true (production)
		Gclifetime:     3600,         // Session lifetime in seconds
		Maxlifetime:    3600,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	r.Use(sessionHandler)

	// PUBLIC ROUTES (no authentication required)
	r.Get("/", ctrl.Dashboard.Index)
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", ctrl.Auth.Authenticate)
		r.Get("/callback", ctrl.Auth.Authenticate)
		r.Get("/logout", ctrl.Auth.Logout)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"healthy"}`)
	})

	// PROTECTED ROUTES (authentication required)
	r.Group(func(r chi.Router) {
		r.Use(authmiddleware.RequireAuth)

		r.Get("/me", ctrl.Auth.Me)
	})

	return r, nil
}
