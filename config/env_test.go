package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMapDefaults(t *testing.T) {
	cfg := FromMap(nil)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, defaultSQLiteDSN, cfg.DatabaseDSN)
	assert.Equal(t, "memory", cfg.SessionDriver)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.QueueMaxRetry)
	assert.True(t, cfg.Mail.UseSSL)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.TrustProxy)
	assert.True(t, FromMap(map[string]string{"TRUST_PROXY": "true"}).TrustProxy)
}

func TestFromMapRejectsUnknownDrivers(t *testing.T) {
	cfg := FromMap(map[string]string{
		"DB_DRIVER":      "oracle",
		"SESSION_DRIVER": "files",
		"QUEUE_WORKERS":  "-3",
		"MAIL_TIMEOUT":   "soon",
	})

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "memory", cfg.SessionDriver)
	assert.Equal(t, 2, cfg.QueueWorkers)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
}

func TestLoadFromMergesFilesAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"db_driver":"postgres","mail_port":587,"mail_use_ssl":false}`), 0o600))
	require.NoError(t, os.WriteFile(envPath, []byte("# comment\nAPP_PORT=9090\nMAIL_FROM=\"shop@example.com\"\n"), 0o600))
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadFrom(jsonPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, defaultPostgresDSN, cfg.DatabaseDSN)
	assert.Equal(t, "587", cfg.Mail.Port)
	assert.False(t, cfg.Mail.UseSSL)
	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "shop@example.com", cfg.Mail.From)
	assert.True(t, cfg.IsProduction())
}

func TestLoadFromMissingFilesIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(dir, "nope.json"), filepath.Join(dir, "nope.env"))
	require.NoError(t, err)
	assert.Equal(t, defaultAppPort, cfg.AppPort)
}
