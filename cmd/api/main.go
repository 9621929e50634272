package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Bahjat/llm-readiness-checker/internal/analyzer"
	"github.com/Bahjat/llm-readiness-checker/internal/identity"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/config"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/logger"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/middleware"
	"github.com/Bahjat/llm-readiness-checker/internal/readiness"
	"github.com/Bahjat/llm-readiness-checker/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFile)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := readiness.NewEngine(readiness.NewHTTPClient(), readiness.NewProbeClient(), cfg.ProbeConcurrency)
	svc := analyzer.NewService(engine, store, log)
	transport := analyzer.NewTransport(svc, log, cfg.AnalyzeTimeout)

	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.Logging(log)(mux)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, requests stay anonymous until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
		handler = middleware.Identity(identity.NewRedisSessions(rdb), log)(handler)
	}
	handler = middleware.RequestID(handler)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("the service started", "addr", srv.Addr, "probe_concurrency", cfg.ProbeConcurrency)
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

// openStore selects Postgres when a DATABASE_URL is configured and an
// in-memory store otherwise.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (storage.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, analyses are kept in memory")
		return storage.NewMemory(), nil
	}

	pg, err := storage.NewPostgres(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}
