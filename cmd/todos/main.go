package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"todoapp/internal/auth"
	"todoapp/internal/server"
	db "todoapp/repository/db"
	inmemory "todoapp/repository/inmemory"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	slog.Info("starting todo service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("service stopped with error", "err", err)
		stop()
		os.Exit(1)
	}
	slog.Info("service stopped")
}

func run(ctx context.Context, args []string) error {
	cfg, err := server.ReadConfig(args)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.Algorithm)
	if err != nil {
		return err
	}

	sessions, closeStore := openStore(cfg)
	defer closeStore()

	if err := server.EnsureAdmin(ctx, sessions, hasher, cfg.Admin); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	api := server.NewTodoAPI(cfg, sessions, hasher, tokens)
	if api == nil {
		return errors.New("failed to initialize API")
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.ListenAddr())
		serverErr <- api.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections", "timeout", cfg.ShutdownTimeout())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-serverErr:
		return err
	}
}

// openStore prefers PostgreSQL and falls back to process memory when the
// database cannot be migrated or reached.
func openStore(cfg *server.Config) (server.SessionFactory, func()) {
	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		slog.Warn("migrations failed, using in-memory storage", "err", err)
		return memoryStore()
	}

	dbStorage, err := db.NewStorage(cfg.DBStr)
	if err != nil {
		slog.Warn("database unavailable, using in-memory storage", "err", err)
		return memoryStore()
	}

	return server.Sessions(dbStorage.Acquire), func() {
		if err := dbStorage.Close(); err != nil {
			slog.Warn("failed to close database", "err", err)
		}
	}
}

func memoryStore() (server.SessionFactory, func()) {
	mem := inmemory.NewStorage()
	return server.Sessions(mem.Acquire), func() {}
}
