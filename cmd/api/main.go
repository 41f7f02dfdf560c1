package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patryk-bejcer/photobook/internal/app/migrate"
	httpx "github.com/patryk-bejcer/photobook/internal/http"
	"github.com/patryk-bejcer/photobook/internal/repository"
	"github.com/patryk-bejcer/photobook/internal/repository/denylist"
	"github.com/patryk-bejcer/photobook/internal/repository/postgres"
	"github.com/patryk-bejcer/photobook/internal/service/auth"
	"github.com/patryk-bejcer/photobook/pkg/config"
	"github.com/patryk-bejcer/photobook/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Up(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)

	var revoked repository.TokenDenylist
	if addr := strings.TrimSpace(cfg.DenylistRedisAddr); addr != "" {
		redisDenylist, err := denylist.NewRedis(addr, cfg.DenylistRedisPass, cfg.DenylistRedisDB, log)
		if err != nil {
			log.Warn("redis denylist unavailable, falling back to memory", "error", err)
		} else {
			revoked = redisDenylist
		}
	}
	if revoked == nil {
		revoked = denylist.NewMemory()
	}
	defer revoked.Close()

	authSvc := auth.New(repo, revoked, log, cfg)
	router := httpx.NewRouter(log, authSvc, pool.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
