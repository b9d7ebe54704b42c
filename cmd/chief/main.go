// Chief runs the orchestrator sweep: admits scouted detections,
// advances stories through the pipeline, services human prompts, and
// recovers stalled tasks.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/newsroom-systems/chief/pkg/chiefconfig"
	"github.com/newsroom-systems/chief/pkg/metrics"
	"github.com/newsroom-systems/chief/pkg/orchestrator"
	"github.com/newsroom-systems/chief/pkg/store"
	"github.com/newsroom-systems/chief/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config", getEnv("CHIEF_CONFIG", "./config/chief.yaml"), "Path to configuration file")
	envPath := flag.String("env-file", getEnv("CHIEF_ENV_FILE", ".env"), "Path to .env file")
	flag.Parse()

	slog.Info("starting", "version", version.Full())

	if err := godotenv.Load(*envPath); err != nil {
		slog.Warn("could not load env file, continuing with existing environment", "path", *envPath, "error", err)
	}

	cfg, err := chiefconfig.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, storeConfig(cfg))
	if err != nil {
		slog.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Bootstrap(ctx, cfg.Memory.EmbeddingDimension); err != nil {
		slog.Error("failed to bootstrap schema", "error", err)
		os.Exit(1)
	}

	chief := orchestrator.New(st, orchestrator.Config{
		MinNewsworthinessScore: cfg.Policy.MinNewsworthinessScore,
		MaxRevisions:           cfg.Policy.MaxRevisions,
		StalledLease:           time.Duration(cfg.Pacing.StalledLeaseSeconds) * time.Second,
		DefaultChannels:        []string{"rss"},
		PersistentStallResets:  3,
	})

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr)
	}

	slog.Info("chief starting", "sweep_interval_seconds", cfg.Pacing.SweepIntervalSeconds)
	chief.Run(ctx, time.Duration(cfg.Pacing.SweepIntervalSeconds)*time.Second)
	slog.Info("chief stopped")
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	slog.Info("metrics server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		slog.Error("metrics server failed", "error", err)
	}
}

func storeConfig(cfg *chiefconfig.Config) store.Config {
	return store.Config{
		Host:            cfg.Store.Host,
		Port:            cfg.Store.Port,
		User:            cfg.Store.User,
		Password:        cfg.Store.Password,
		Database:        cfg.Store.Database,
		SSLMode:         cfg.Store.SSLMode,
		MaxConns:        cfg.Store.MaxConns,
		MinConns:        cfg.Store.MinConns,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Store.ConnMaxIdleTime,
	}
}
