package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(Options{EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Executor.Workers)
	assert.Zero(t, cfg.Executor.Timeout)
	assert.Equal(t, "keyring", cfg.Keystore.Backend)
	assert.Equal(t, "keyforge", cfg.Keystore.Service)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "keyforge.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log:
  level: debug
executor:
  workers: 3
  timeout: 30s
keystore:
  backend: memory
`), 0o600))

	t.Setenv("KEYFORGE_LOG_FORMAT", "json")
	t.Setenv("KEYFORGE_EXECUTOR_WORKERS", "5")

	cfg, err := Load(Options{ConfigFile: file, EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Executor.Workers)
	assert.Equal(t, 30*time.Second, cfg.Executor.Timeout)
	assert.Equal(t, "memory", cfg.Keystore.Backend)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("KEYFORGE_KEYSTORE_SERVICE=from-dotenv\n"), 0o600))
	t.Setenv("KEYFORGE_KEYSTORE_SERVICE", "")
	os.Unsetenv("KEYFORGE_KEYSTORE_SERVICE")

	cfg, err := Load(Options{ConfigFile: writeEmptyConfig(t), EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Keystore.Service)
}

func TestLoad_InvalidWorkers(t *testing.T) {
	t.Setenv("KEYFORGE_EXECUTOR_WORKERS", "0")
	_, err := Load(Options{ConfigFile: writeEmptyConfig(t), EnvFile: noEnvFile(t)})
	assert.ErrorContains(t, err, "executor.workers must be positive")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), EnvFile: noEnvFile(t)})
	assert.ErrorContains(t, err, "failed to read config")
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "keyforge.yaml")
	require.NoError(t, os.WriteFile(file, []byte("{}\n"), 0o600))
	return file
}
