package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/go-questions/auth"
	"github.com/diewo77/go-questions/internal/config"
	"github.com/diewo77/go-questions/internal/db"
	"github.com/diewo77/go-questions/internal/server"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg.App.Dev)

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func setupLogger(dev bool) {
	var handler slog.Handler
	if dev {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	dbConn, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(dbConn)

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg); err != nil {
			return err
		}
		slog.Info("migrations completed")
		return nil
	}
	if *seedOnlyFlag {
		if err := db.Seed(ctx, dbConn, cfg.Admin); err != nil {
			return err
		}
		slog.Info("seeding completed")
		return nil
	}

	if err := db.Migrate(dbConn, cfg); err != nil {
		return err
	}
	if err := db.Seed(ctx, dbConn, cfg.Admin); err != nil {
		return err
	}

	sessions, closeSessions, err := newSessions(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer closeSessions()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.New(dbConn, cfg, sessions),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "dev", cfg.App.Dev, "session_store", cfg.Session.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

// newSessions builds the configured session store and its cleanup func.
func newSessions(ctx context.Context, cfg config.SessionConfig) (auth.Sessions, func(), error) {
	if cfg.Store != "redis" {
		return auth.NewCookieSessions(cfg.Secret, cfg.MaxAge, cfg.Secure), func() {}, nil
	}
	client, err := auth.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Error("close redis", "error", err)
		}
	}
	return auth.NewRedisSessions(client, cfg.Secret, cfg.MaxAge, cfg.Secure), closeFn, nil
}
