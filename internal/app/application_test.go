package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	"github.com/tigerroll/rlsgen/pkg/batch/core/job/runner"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const testYAML = `
rlsgen:
  database:
    catalog:
      type: "postgres"
      host: "${PG_HOST}"
      port: "${PG_PORT}"
      user: "${PG_USER}"
      password: "${PG_PASSWORD}"
      database: "${PG_DATABASE}"
  generation:
    api_key: "${CLAUDE_API_KEY}"
  output:
    dir: "./supabase/tests"
`

func setConnectionEnv(t *testing.T) {
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_PORT", "54322")
	t.Setenv("PG_USER", "postgres")
	t.Setenv("PG_PASSWORD", "postgres")
	t.Setenv("PG_DATABASE", "postgres")
	t.Setenv("CLAUDE_API_KEY", "sk-test")
}

func TestLoadConfiguration_AppliesFlagOverrides(t *testing.T) {
	setConnectionEnv(t)

	cfg, err := LoadConfiguration(config.EmbeddedConfig(testYAML), Options{
		EnvFiles:   []string{},
		OutputDir:  t.TempDir(),
		CorpusDir:  "/srv/guides",
		MaxWorkers: 3,
		LogLevel:   "DEBUG",
	})
	require.NoError(t, err)

	assert.Equal(t, "/srv/guides", cfg.RLSGen.Corpus.LocalDir)
	assert.Equal(t, 3, cfg.RLSGen.Dispatcher.MaxWorkers)
	assert.Equal(t, "DEBUG", cfg.RLSGen.System.Logging.Level)
	assert.NotEqual(t, "./supabase/tests", cfg.RLSGen.Output.Dir)
	assert.Equal(t, "sk-test", cfg.RLSGen.Generation.APIKey)
}

func TestLoadConfiguration_ZeroOptionsKeepConfiguredValues(t *testing.T) {
	setConnectionEnv(t)

	cfg, err := LoadConfiguration(config.EmbeddedConfig(testYAML), Options{EnvFiles: []string{}})
	require.NoError(t, err)

	assert.Equal(t, "./supabase/tests", cfg.RLSGen.Output.Dir)
	assert.Equal(t, 0, cfg.RLSGen.Dispatcher.MaxWorkers)
}

func TestLoadConfiguration_MissingVariablesAreReportedTogether(t *testing.T) {
	setConnectionEnv(t)
	t.Setenv("PG_HOST", "")
	t.Setenv("CLAUDE_API_KEY", "")

	_, err := LoadConfiguration(config.EmbeddedConfig(testYAML), Options{EnvFiles: []string{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrConfiguration)
	assert.Contains(t, err.Error(), "PG_HOST")
	assert.Contains(t, err.Error(), "CLAUDE_API_KEY")
}

func TestRunApplication_ConfigurationErrorExitsBeforeConnecting(t *testing.T) {
	setConnectionEnv(t)
	t.Setenv("CLAUDE_API_KEY", "")

	code := RunApplication(context.Background(), config.EmbeddedConfig(testYAML), Options{EnvFiles: []string{}})
	assert.Equal(t, runner.ExitCodeFailure, code)
}

func TestLogEffectiveConfiguration_OnlyAtDebug(t *testing.T) {
	setConnectionEnv(t)
	cfg, err := LoadConfiguration(config.EmbeddedConfig(testYAML), Options{EnvFiles: []string{}})
	require.NoError(t, err)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetLogLevel("INFO") })

	logger.SetLogLevel("INFO")
	logEffectiveConfiguration(cfg)
	assert.Empty(t, buf.String())

	logger.SetLogLevel("DEBUG")
	logEffectiveConfiguration(cfg)
	assert.Contains(t, buf.String(), "Effective configuration")
	assert.NotContains(t, buf.String(), "sk-test")
}
