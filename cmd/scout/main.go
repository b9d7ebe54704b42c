// Scout runs the feed ingestion loop: poll configured feeds, score
// entries for newsworthiness, dedup against memory, and emit
// story.detected events, per spec.md §4.7.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/newsroom-systems/chief/pkg/chiefconfig"
	"github.com/newsroom-systems/chief/pkg/externalsvc"
	"github.com/newsroom-systems/chief/pkg/memory"
	"github.com/newsroom-systems/chief/pkg/scout"
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

	if len(cfg.Scout.Feeds) == 0 {
		slog.Error("no feeds configured under scout.feeds")
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

	reader := externalsvc.NewRSSFeedReader(15 * time.Second)
	embedder := externalsvc.NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_EMBEDDING_MODEL"), cfg.Memory.EmbeddingDimension)
	mem := memory.New(st, cfg.Memory.EmbeddingDimension)

	s := scout.New(st, reader, embedder, mem, scout.Config{
		Feeds:          cfg.Scout.Feeds,
		ScanInterval:   time.Duration(cfg.Pacing.ScanIntervalSeconds) * time.Second,
		ScoreThreshold: cfg.Policy.ScoutScoreThreshold,
		DedupThreshold: cfg.Memory.DedupSimilarityThreshold,
	})

	s.Start(ctx)
	slog.Info("scout running", "feeds", len(cfg.Scout.Feeds))
	<-ctx.Done()
	s.Stop()
	slog.Info("scout stopped")
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
