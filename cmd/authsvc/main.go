package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/internal/logging"
	"github.com/MrEthical07/authsvc/internal/observability"
	"github.com/MrEthical07/authsvc/internal/server"
	"github.com/MrEthical07/authsvc/userstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	devRedis := flag.Bool("dev-redis", false, "run against an in-process Redis instead of REDIS_URL")
	flag.Parse()

	if err := run(*devRedis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(devRedis bool) error {
	_ = godotenv.Load()

	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Environment, cfg.Release); err != nil {
		logger.Error(context.Background(), "init sentry failed", "error", err)
	}
	defer observability.FlushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, closeRedis, err := openRedis(cfg.RedisURL, devRedis)
	if err != nil {
		return err
	}
	defer closeRedis()
	if devRedis {
		logger.Warn(ctx, "using in-process redis; state is lost on exit")
	}

	users, closeUsers, err := openUserStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeUsers()
	if cfg.DatabaseURL == "" {
		logger.Warn(ctx, "DATABASE_URL not set; users are kept in memory")
	}

	builder := authsvc.New().
		WithConfig(cfg.Engine).
		WithRedis(rdb).
		WithUserStore(users).
		WithLogger(logger)
	if cfg.AuditLog {
		builder.WithAuditSink(authsvc.NewSlogSink(logger.Slog().With("component", "audit")))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	for _, w := range engine.SecurityReport().Warnings {
		logger.Warn(ctx, "security posture", "warning", w)
	}

	srv, err := server.New(server.Options{
		Engine:         engine,
		Redis:          rdb,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server start", "addr", httpServer.Addr, "env", cfg.Environment)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openRedis(url string, dev bool) (redis.UniversalClient, func(), error) {
	if dev {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	return client, func() { _ = client.Close() }, nil
}

func openUserStore(ctx context.Context, dsn string) (authsvc.UserStore, func(), error) {
	if dsn == "" {
		return userstore.NewMemory(), func() {}, nil
	}

	db, err := userstore.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	store := userstore.NewPostgres(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, func() { _ = db.Close() }, nil
}
