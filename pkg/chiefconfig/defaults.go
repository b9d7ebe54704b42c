package chiefconfig

// Default builds the built-in configuration: every value named in
// spec.md §6's configuration table, plus the ambient store/metrics
// settings a deployment typically overrides.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "chief",
			Database: "chief",
			SSLMode:  "disable",
			MaxConns: 10,
			MinConns: 2,
		},
		Pacing: PacingConfig{
			StalledLeaseSeconds:           1800,
			TaskPollIntervalSeconds:       5,
			AgentHeartbeatIntervalSeconds: 30,
			ScanIntervalSeconds:           300,
			SweepIntervalSeconds:          5,
		},
		Policy: PolicyConfig{
			MinNewsworthinessScore: 0.6,
			ScoutScoreThreshold:    0.6,
			MaxRevisions:           3,
			MaxConcurrentAgents:    10,
		},
		Memory: MemoryConfig{
			DedupSimilarityThreshold: 0.85,
			EmbeddingDimension:       1536,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Slack: SlackConfig{
			Enabled:  false,
			TokenEnv: "SLACK_BOT_TOKEN",
		},
		Scout: ScoutConfig{
			Feeds: []string{},
		},
	}
}
