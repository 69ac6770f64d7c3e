// Command timelockd runs the delayed-execution authorization gate behind an
// HTTP operations surface.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mindburn-Labs/timelock/pkg/api"
	"github.com/Mindburn-Labs/timelock/pkg/audit"
	"github.com/Mindburn-Labs/timelock/pkg/auth"
	"github.com/Mindburn-Labs/timelock/pkg/config"
	"github.com/Mindburn-Labs/timelock/pkg/dispatch"
	"github.com/Mindburn-Labs/timelock/pkg/observability"
	"github.com/Mindburn-Labs/timelock/pkg/registry"
	"github.com/Mindburn-Labs/timelock/pkg/timelock"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("timelockd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config file (optional)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "config: %v\n", err)
			return 1
		}
	} else {
		cfg = config.Load()
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("registry store", "error", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "timelock-gate",
		ServiceVersion: "1.0.0",
		Environment:    "production",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		Enabled:        cfg.TelemetryEnabled,
		Insecure:       true,
	})
	if err != nil {
		logger.Error("observability", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	notifier, closeAudit, err := openAudit(cfg)
	if err != nil {
		logger.Error("audit log", "error", err)
		return 1
	}
	defer closeAudit()

	gate := timelock.NewService(auth.Principal(cfg.Owner), store, dispatch.NewLocalDispatcher(), nil)
	gate.SetNotifier(notifier)
	gate.SetMetrics(obs)
	gate.SetLogger(logger)

	validator := auth.NewTokenValidator([]byte(cfg.AuthKey))
	limiter := api.NewGlobalRateLimiter(cfg.RateRPS, cfg.RateBurst)
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewServer(gate).Routes(validator, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("timelockd listening",
			"addr", cfg.ListenAddr, "owner", cfg.Owner, "backend", cfg.RegistryBackend)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
			return 1
		}
		return 0
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server", "error", err)
			return 1
		}
		return 0
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func openStore(ctx context.Context, cfg *config.Config) (registry.Store, error) {
	switch cfg.RegistryBackend {
	case "memory":
		return registry.NewMemoryStore(), nil
	case "sqlite":
		return registry.OpenSQLiteStore(cfg.SQLitePath)
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		store := registry.NewPostgresStore(db)
		if err := store.Init(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init postgres registry: %w", err)
		}
		return store, nil
	case "redis":
		store := registry.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.RegistryBackend)
	}
}

func openAudit(cfg *config.Config) (*audit.Log, func(), error) {
	if cfg.AuditPath == "" {
		return audit.NewLog(), func() {}, nil
	}
	f, err := os.OpenFile(cfg.AuditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	return audit.NewLogWithWriter(f), func() { _ = f.Close() }, nil
}
