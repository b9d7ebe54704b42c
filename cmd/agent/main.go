// Agent runs one role-specific worker loop: claim a task, execute it
// through the role's Handler, report completion or failure. The role
// is fixed for the process's lifetime, per spec.md §4.5.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/newsroom-systems/chief/pkg/agentrt"
	"github.com/newsroom-systems/chief/pkg/agents"
	"github.com/newsroom-systems/chief/pkg/article"
	"github.com/newsroom-systems/chief/pkg/chiefconfig"
	"github.com/newsroom-systems/chief/pkg/externalsvc"
	"github.com/newsroom-systems/chief/pkg/human"
	"github.com/newsroom-systems/chief/pkg/notify"
	"github.com/newsroom-systems/chief/pkg/store"
	"github.com/newsroom-systems/chief/pkg/taskqueue"
	"github.com/newsroom-systems/chief/pkg/version"
	"github.com/newsroom-systems/chief/pkg/worker"
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
	role := flag.String("role", getEnv("AGENT_ROLE", ""), "Role to run: reporter, editor, or publisher")
	flag.Parse()

	slog.Info("starting", "version", version.Full())

	if err := godotenv.Load(*envPath); err != nil {
		slog.Warn("could not load env file, continuing with existing environment", "path", *envPath, "error", err)
	}

	if *role == "" {
		slog.Error("-role (or AGENT_ROLE) is required")
		os.Exit(1)
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

	handler, err := buildHandler(*role, st, cfg)
	if err != nil {
		slog.Error("failed to build handler", "role", *role, "error", err)
		os.Exit(1)
	}

	runner := agentrt.NewRunner(st, *role, handler, agentrt.Config{
		PollInterval:      time.Duration(cfg.Pacing.TaskPollIntervalSeconds) * time.Second,
		HeartbeatInterval: time.Duration(cfg.Pacing.AgentHeartbeatIntervalSeconds) * time.Second,
	})

	if err := runner.Start(ctx); err != nil {
		slog.Error("failed to start agent", "error", err)
		os.Exit(1)
	}

	slog.Info("agent running", "role", *role, "agent_id", runner.AgentID())
	<-ctx.Done()
	runner.Stop(context.Background())
}

// buildHandler selects the concrete worker.Handler for role, wiring
// the Anthropic chat client and the Brave-backed search chain it
// builds from the environment.
func buildHandler(role string, st *store.Store, cfg *chiefconfig.Config) (worker.Handler, error) {
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	chat := externalsvc.NewAnthropicChat(anthropicKey)
	search := externalsvc.NewFallbackSearcher(externalsvc.NewBraveSearcher(os.Getenv("BRAVE_API_KEY")))

	switch role {
	case taskqueue.RoleReporter:
		return agents.NewReporter(chat, search, human.New(st)), nil
	case taskqueue.RoleEditor:
		return agents.NewEditor(chat, search), nil
	case taskqueue.RolePublisher:
		dispatcher := buildDispatcher(cfg)
		return agents.NewPublisher(article.New(st), dispatcher), nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

// buildDispatcher wires every configured publish channel. RSS is
// always available; Slack joins in when slack.enabled is set.
func buildDispatcher(cfg *chiefconfig.Config) *notify.Dispatcher {
	channels := []notify.Channel{
		notify.NewRSSChannel(
			getEnv("RSS_FEED_TITLE", "Newsroom"),
			getEnv("RSS_FEED_LINK", "http://localhost"),
			getEnv("RSS_FEED_DESCRIPTION", "Automated coverage feed"),
			200,
		),
	}
	if cfg.Slack.Enabled {
		token := os.Getenv(cfg.Slack.TokenEnv)
		if token != "" && cfg.Slack.Channel != "" {
			channels = append(channels, notify.NewSlackChannel(token, cfg.Slack.Channel))
		} else {
			slog.Warn("slack enabled but token_env or channel missing, skipping channel", "token_env", cfg.Slack.TokenEnv)
		}
	}
	return notify.NewDispatcher(channels...)
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
