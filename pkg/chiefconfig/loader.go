package chiefconfig

import (
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path, expands environment variables,
// merges it over Default() (file values override defaults — any field
// the file sets non-zero wins, per mergo.WithOverride), and validates
// the result. A missing file is not an error: Default() alone is
// returned, validated, so a deployment can run on defaults with no
// config file present at all.
func Load(path string) (*Config, error) {
	log := slog.With("config_path", path)

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		data = expandEnv(data)
		var fromFile Config
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := mergo.Merge(cfg, fromFile, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging %s over defaults: %w", path, err)
		}
	case os.IsNotExist(err):
		log.Info("no config file found, using built-in defaults")
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration loaded",
		"min_newsworthiness_score", cfg.Policy.MinNewsworthinessScore,
		"dedup_similarity_threshold", cfg.Memory.DedupSimilarityThreshold,
		"max_revisions", cfg.Policy.MaxRevisions,
	)
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}
