package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/psychotest/psychotest/internal/api"
	"github.com/psychotest/psychotest/internal/api/middleware"
	"github.com/psychotest/psychotest/internal/assignment"
	"github.com/psychotest/psychotest/internal/auth"
	"github.com/psychotest/psychotest/internal/catalog"
	"github.com/psychotest/psychotest/internal/config"
	"github.com/psychotest/psychotest/internal/database"
	"github.com/psychotest/psychotest/internal/reconciler"
	"github.com/psychotest/psychotest/internal/relation"
	"github.com/psychotest/psychotest/internal/screen"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := screen.Validate(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(startCtx, cfg.DatabaseURL, database.Options{MaxConns: cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(startCtx); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return err
	}
	authService := auth.NewService(auth.NewRepository(db.Pool()), tokens, cfg.BcryptCost)

	if _, err := authService.BootstrapAdmin(startCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrapping admin: %w", err)
	}

	tests := catalog.NewPostgresRepository(db.Pool())
	assignments := assignment.NewRepository(db.Pool())
	loader := screen.NewLoader(relation.NewFetcher(db.Pool()), relation.Options{
		DateLayout: cfg.DateLayout,
		Location:   cfg.Location(),
	})

	router := api.NewRouter(api.RouterDeps{
		DBPinger:        db,
		Version:         cfg.Version,
		AuthService:     authService,
		Loader:          loader,
		Assignments:     assignment.NewService(assignments, tests),
		Tests:           tests,
		Redirects:       middleware.Redirects{Login: cfg.LoginPath, Home: cfg.HomePath},
		RegisterLimiter: middleware.NewRateLimiter(cfg.RegisterRate, cfg.RegisterBurst, "Too many registration attempts. Please try again later."),
		SecureCookie:    cfg.SecureCookie,
		OpenAPISpec:     api.OpenAPISpec,

		TrustProxyHeaders: cfg.TrustProxy,
		CORSOrigins:       cfg.CORSOrigins,
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	if cfg.ExpiryInterval > 0 {
		go reconciler.New(assignments, cfg.ExpiryInterval, cfg.Location()).Start(bgCtx)
	} else {
		slog.Info("assignment expiry disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting psychotest server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		return err
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	stopBackground()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
