package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/scorebook-stats-service/internal/config"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("APP_POSTGRES_USER", "")
	t.Setenv("APP_POSTGRES_PASSWORD", "")
	t.Setenv("APP_POSTGRES_DB", "")
}

func TestLoad_FromYAMLAndEnv(t *testing.T) {
	yaml := `
app:
  name: scorebook-stats-service
  version: 0.1.0
  env: test
  port: 18080

logger:
  level: info
  format: json
  output_target: stdout
  time_format: rfc3339

postgres:
  host: 127.0.0.1
  port: 5432
  sslmode: disable
  max_conns: 5

extraction:
  policy: reject

stats:
  obp_formula: standard
`
	path := writeTempConfig(t, yaml)
	t.Setenv("APP_POSTGRES_USER", "testuser")
	t.Setenv("APP_POSTGRES_PASSWORD", "testpass")
	t.Setenv("APP_POSTGRES_DB", "testdb")
	t.Setenv("APP_VISION_API_KEY", "sk-test")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 18080, cfg.App.Port)
	assert.Equal(t, "testuser", cfg.Postgres.User)
	assert.Equal(t, "testpass", cfg.Postgres.Password)
	assert.Equal(t, "testdb", cfg.Postgres.DBName)
	assert.Equal(t, "127.0.0.1", cfg.Postgres.Host)
	assert.Equal(t, int32(5), cfg.Postgres.MaxConns)
	assert.Equal(t, "sk-test", cfg.Vision.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Vision.Model)
	assert.Equal(t, "reject", cfg.Extraction.Policy)
	assert.False(t, cfg.Ingestion.ValidateManual)
	assert.False(t, cfg.Redis.Enabled)

	opts := cfg.StatsOptions()
	assert.Equal(t, stats.OBPStandard, opts.OBP)
	assert.Equal(t, stats.DefaultWeights, opts.Weights)
}

func TestLoad_MissingSecretsFails(t *testing.T) {
	path := writeTempConfig(t, `
postgres:
  host: localhost
  port: 5432
`)
	clearSecrets(t)

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsUnknownPolicy(t *testing.T) {
	path := writeTempConfig(t, `
extraction:
  policy: guess
`)
	t.Setenv("APP_POSTGRES_USER", "u")
	t.Setenv("APP_POSTGRES_PASSWORD", "p")
	t.Setenv("APP_POSTGRES_DB", "d")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Policy")
}

func TestLoad_RedisRequiresURLWhenEnabled(t *testing.T) {
	path := writeTempConfig(t, `
redis:
  enabled: true
`)
	t.Setenv("APP_POSTGRES_USER", "u")
	t.Setenv("APP_POSTGRES_PASSWORD", "p")
	t.Setenv("APP_POSTGRES_DB", "d")
	t.Setenv("APP_REDIS_URL", "")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	path := writeTempConfig(t, "app:\n  port: 9090\n")
	clearSecrets(t)
	os.Unsetenv("APP_POSTGRES_USER")
	os.Unsetenv("APP_POSTGRES_PASSWORD")
	os.Unsetenv("APP_POSTGRES_DB")
	env := "APP_POSTGRES_USER=fromdotenv\nAPP_POSTGRES_PASSWORD=pw\nAPP_POSTGRES_DB=db\n"
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".env"), []byte(env), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromdotenv", cfg.Postgres.User)
	assert.Equal(t, 9090, cfg.App.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
