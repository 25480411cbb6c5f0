package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"happy-sandwich/config"
	"happy-sandwich/db"
	"happy-sandwich/handlers"
	"happy-sandwich/logger"
	"happy-sandwich/notify"
	"happy-sandwich/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// "keygen" prints a fresh access key and the bcrypt hash for ACCESS_KEY_HASH.
	if len(os.Args) > 1 && os.Args[1] == "keygen" {
		if err := runKeygen(); err != nil {
			fmt.Fprintln(os.Stderr, "keygen:", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New("orders-api", cfg.Log.Level)

	// "migrate" applies the schema and exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg, log); err != nil {
			log.Error("migrate failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.DB.URL, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	repo := services.NewRepository(store)
	seeded, err := repo.EnsureDefaultMenuItems(ctx)
	if err != nil {
		return err
	}
	if seeded > 0 {
		log.Info("seeded default menu", slog.Int("items", seeded))
	}

	notifier := notify.FromConfig(cfg.Notify, log)
	defer func() {
		if err := notifier.Close(); err != nil {
			log.Warn("failed to close notifier", slog.Any("error", err))
		}
	}()

	api := handlers.New(repo, notifier, cfg.HTTP, cfg.Notify.IncludeSummary, log)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			slog.String("addr", cfg.HTTP.Addr),
			slog.Any("notifiers", notifier.Senders()),
			slog.Bool("access_key", cfg.HTTP.AccessKey != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runMigrate(cfg *config.Config, log *slog.Logger) error {
	store, err := db.Open(context.Background(), cfg.DB.URL, log)
	if err != nil {
		return err
	}
	log.Info("migrations applied")
	return store.Close()
}

func runKeygen() error {
	key, err := handlers.GenerateAccessKey()
	if err != nil {
		return err
	}
	hash, err := handlers.HashAccessKey(key)
	if err != nil {
		return err
	}
	// single quotes keep godotenv from expanding the $ in the hash
	fmt.Printf("ACCESS_KEY=%s\nACCESS_KEY_HASH='%s'\n", key, hash)
	return nil
}
