package chiefconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Policy.MinNewsworthinessScore, cfg.Policy.MinNewsworthinessScore)
	assert.Equal(t, Default().Memory.DedupSimilarityThreshold, cfg.Memory.DedupSimilarityThreshold)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chief.yaml")
	yamlBody := `
policy:
  min_newsworthiness_score: 0.75
store:
  host: db.internal
  port: 5432
  user: chief
  database: chief
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.Policy.MinNewsworthinessScore)
	assert.Equal(t, "db.internal", cfg.Store.Host)
	// Fields absent from the file keep their built-in default.
	assert.Equal(t, Default().Policy.MaxRevisions, cfg.Policy.MaxRevisions)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("CHIEF_TEST_DB_HOST", "expanded-host")
	path := filepath.Join(t.TempDir(), "chief.yaml")
	yamlBody := `
store:
  host: ${CHIEF_TEST_DB_HOST}
  port: 5432
  user: chief
  database: chief
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-host", cfg.Store.Host)
}

func TestValidateRejectsOutOfRangeScore(t *testing.T) {
	cfg := Default()
	cfg.Policy.MinNewsworthinessScore = 1.5
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsMissingStoreFields(t *testing.T) {
	cfg := Default()
	cfg.Store.Database = ""
	assert.Error(t, Validate(cfg))
}
