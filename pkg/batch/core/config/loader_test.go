package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
)

const testYAML = `
rlsgen:
  system:
    logging:
      level: DEBUG
  catalog:
    db_ref: catalog
  generation:
    api_key: "${CLAUDE_API_KEY}"
  output:
    dir: ./out
  database:
    catalog:
      type: postgres
      host: "${PG_HOST}"
      port: "${PG_PORT}"
      user: "${PG_USER}"
      password: "${PG_PASSWORD}"
      database: "${PG_DATABASE}"
`

func setDatabaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_PORT", "54322")
	t.Setenv("PG_USER", "postgres")
	t.Setenv("PG_PASSWORD", "postgres")
	t.Setenv("PG_DATABASE", "postgres")
	t.Setenv("CLAUDE_API_KEY", "sk-test")
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := coreconfig.NewConfig()

	assert.Equal(t, "INFO", cfg.RLSGen.System.Logging.Level)
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.RLSGen.Generation.Model)
	assert.Equal(t, 2048, cfg.RLSGen.Generation.MaxTokens)
	assert.Equal(t, 5, cfg.RLSGen.Generation.Retry.MaxAttempts)
	assert.Equal(t, 30000, cfg.RLSGen.Generation.Retry.MaxInterval)
	assert.Equal(t, "./supabase/tests", cfg.RLSGen.Output.Dir)
	assert.Equal(t, coreconfig.OnCollisionFail, cfg.RLSGen.Output.OnCollision)
	assert.False(t, cfg.RLSGen.Dispatcher.ReserveCoordinator)
	assert.Contains(t, cfg.RLSGen.Catalog.IgnoredSchemas, "pg_catalog")
	assert.Len(t, cfg.RLSGen.Catalog.IgnoredSchemas, 13)
}

func TestLoadConfig_ExpandsPlaceholdersAndMergesYAML(t *testing.T) {
	setDatabaseEnv(t)

	cfg, err := coreconfig.LoadConfig([]string{}, coreconfig.EmbeddedConfig(testYAML), nil)
	require.NoError(t, err)
	require.NoError(t, coreconfig.Validate(cfg))

	assert.Equal(t, "DEBUG", cfg.RLSGen.System.Logging.Level)
	assert.Equal(t, "./out", cfg.RLSGen.Output.Dir)
	assert.Equal(t, "sk-test", cfg.RLSGen.Generation.APIKey)
	assert.Equal(t, "2023-06-01", cfg.RLSGen.Generation.APIVersion, "defaults survive the merge")

	db, ok := cfg.RLSGen.AdapterConfigs["catalog"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "localhost", db["host"])
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setDatabaseEnv(t)
	t.Setenv("RLSGEN_OUTPUT_DIR", "/tmp/tests")
	t.Setenv("RLSGEN_DISPATCHER_MAX_WORKERS", "3")
	t.Setenv("RLSGEN_DISPATCHER_RESERVE_COORDINATOR", "true")
	t.Setenv("RLSGEN_CATALOG_IGNORED_SCHEMAS", "auth, storage")

	cfg, err := coreconfig.LoadConfig([]string{}, coreconfig.EmbeddedConfig(testYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tests", cfg.RLSGen.Output.Dir)
	assert.Equal(t, 3, cfg.RLSGen.Dispatcher.MaxWorkers)
	assert.True(t, cfg.RLSGen.Dispatcher.ReserveCoordinator)
	assert.Equal(t, []string{"auth", "storage"}, cfg.RLSGen.Catalog.IgnoredSchemas)
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	t.Setenv("RLSGEN_DISPATCHER_MAX_WORKERS", "many")

	_, err := coreconfig.LoadConfig([]string{}, coreconfig.EmbeddedConfig(testYAML), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrConfiguration)
}

func TestLoadConfig_ReadsEnvFiles(t *testing.T) {
	for _, name := range []string{"PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DATABASE", "CLAUDE_API_KEY"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	base := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(local, []byte("PG_HOST=from-local\n"), 0o600))
	require.NoError(t, os.WriteFile(base, []byte("PG_HOST=from-base\nPG_PORT=5432\nPG_USER=u\nPG_PASSWORD=p\nPG_DATABASE=d\nCLAUDE_API_KEY=k\n"), 0o600))
	t.Cleanup(func() {
		for _, name := range []string{"PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DATABASE", "CLAUDE_API_KEY"} {
			os.Unsetenv(name)
		}
	})

	cfg, err := coreconfig.LoadConfig([]string{local, base, filepath.Join(dir, "missing.env")}, coreconfig.EmbeddedConfig(testYAML), nil)
	require.NoError(t, err)
	require.NoError(t, coreconfig.Validate(cfg))

	db := cfg.RLSGen.AdapterConfigs["catalog"].(map[string]interface{})
	assert.Equal(t, "from-local", db["host"])
}

func TestValidate_ReportsEveryMissingVariable(t *testing.T) {
	for _, name := range []string{"PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DATABASE", "CLAUDE_API_KEY"} {
		t.Setenv(name, "")
	}
	t.Setenv("PG_HOST", "localhost")

	cfg, err := coreconfig.LoadConfig([]string{}, coreconfig.EmbeddedConfig(testYAML), nil)
	require.NoError(t, err)

	err = coreconfig.Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrConfiguration)
	for _, name := range []string{"PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DATABASE", "CLAUDE_API_KEY"} {
		assert.Contains(t, err.Error(), name)
	}
	assert.NotContains(t, err.Error(), "PG_HOST")
}

func TestValidate_RejectsUnknownCollisionPolicy(t *testing.T) {
	setDatabaseEnv(t)
	t.Setenv("RLSGEN_OUTPUT_ON_COLLISION", "rename")

	cfg, err := coreconfig.LoadConfig([]string{}, coreconfig.EmbeddedConfig(testYAML), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, coreconfig.Validate(cfg), exception.ErrConfiguration)
}
