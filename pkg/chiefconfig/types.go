// Package chiefconfig loads and validates the coordination substrate's
// configuration: a single YAML file merged over built-in defaults with
// dario.cat/mergo, environment-variable expansion, and struct-tag
// validation via go-playground/validator, the same shape the teacher's
// pkg/config uses for its tarsy.yaml.
package chiefconfig

import "time"

// Config is the fully-resolved, validated configuration for every
// process in the substrate (cmd/chief, cmd/agent, cmd/scout).
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Pacing  PacingConfig  `yaml:"pacing"`
	Policy  PolicyConfig  `yaml:"policy"`
	Memory  MemoryConfig  `yaml:"memory"`
	Metrics MetricsConfig `yaml:"metrics"`
	Slack   SlackConfig   `yaml:"slack"`
	Scout   ScoutConfig   `yaml:"scout"`
}

// StoreConfig is the Postgres connection configuration, ambient to
// every process that touches the durable store.
type StoreConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Database string `yaml:"database" validate:"required"`
	SSLMode  string `yaml:"ssl_mode"`

	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// PacingConfig holds the timing constants of spec.md §6's
// "Configuration" table that govern polling and sweeping cadence.
type PacingConfig struct {
	StalledLeaseSeconds           int `yaml:"stalled_lease_seconds" validate:"min=1"`
	TaskPollIntervalSeconds       int `yaml:"task_poll_interval_seconds" validate:"min=1"`
	AgentHeartbeatIntervalSeconds int `yaml:"agent_heartbeat_interval_seconds" validate:"min=1"`
	ScanIntervalSeconds           int `yaml:"scan_interval_seconds" validate:"min=1"`
	SweepIntervalSeconds          int `yaml:"sweep_interval_seconds" validate:"min=1"`
}

// PolicyConfig holds the admission and revision-loop policy knobs of
// spec.md §6.
type PolicyConfig struct {
	MinNewsworthinessScore float64 `yaml:"min_newsworthiness_score" validate:"min=0,max=1"`
	ScoutScoreThreshold    float64 `yaml:"scout_score_threshold" validate:"min=0,max=1"`
	MaxRevisions           int     `yaml:"max_revisions" validate:"min=0"`
	MaxConcurrentAgents    int     `yaml:"max_concurrent_agents" validate:"min=1"`
}

// MemoryConfig holds the deduplication memory's configuration.
type MemoryConfig struct {
	DedupSimilarityThreshold float64 `yaml:"dedup_similarity_threshold" validate:"min=0,max=1"`
	EmbeddingDimension       int     `yaml:"embedding_dimension" validate:"min=1"`
}

// MetricsConfig controls the ambient Prometheus metrics surface.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// SlackConfig mirrors the teacher's SlackYAMLConfig shape, repurposed
// for story/article publish notifications instead of alert sessions.
type SlackConfig struct {
	Enabled  bool   `yaml:"enabled"`
	TokenEnv string `yaml:"token_env"`
	Channel  string `yaml:"channel"`
}

// ScoutConfig lists the feeds the ingestion loop polls, per spec.md
// §4.7.
type ScoutConfig struct {
	Feeds []string `yaml:"feeds"`
}
