package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("INSEE_API_KEY", "")
	t.Setenv("SBD_INSEE_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.INSEE.APIKey)
	assert.Equal(t, "https://api.insee.fr/api-sirene/3.11", cfg.INSEE.BaseURL)
	assert.Equal(t, 15, cfg.INSEE.TimeoutSecs)
	assert.Equal(t, 30, cfg.INSEE.RequestsPerMinute)
	assert.Equal(t, "https://recherche-entreprises.api.gouv.fr", cfg.GOUV.BaseURL)
	assert.Equal(t, 10, cfg.GOUV.EnrichTimeoutSecs)
	assert.Equal(t, 7, cfg.GOUV.RequestsPerSecond)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "eu-west-3", cfg.AWS.Region)
}

func TestLoadLegacyINSEEKey(t *testing.T) {
	chdirTemp(t)
	t.Setenv("INSEE_API_KEY", "legacy-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.INSEE.APIKey)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
gouv:
  requests_per_second: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 3, cfg.GOUV.RequestsPerSecond)
	// Defaults still apply for unset values
	assert.Equal(t, 15, cfg.GOUV.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SBD_LOG_LEVEL", "warn")
	t.Setenv("SBD_INSEE_REQUESTS_PER_MINUTE", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 0, cfg.INSEE.RequestsPerMinute)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func TestLoadAWSStaticCredentials(t *testing.T) {
	cfg, err := LoadAWS(context.Background(), AWSConfig{
		Region:          "eu-west-3",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "eu-west-3", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
}
