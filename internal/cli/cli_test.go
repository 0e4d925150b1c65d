package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joncooperworks/keyforge/executor"
)

func TestBootstrap_MemoryKeystore(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KEYFORGE_KEYSTORE_BACKEND", "memory")
	t.Setenv("KEYFORGE_LOG_FORMAT", "json")
	t.Setenv("KEYFORGE_EXECUTOR_WORKERS", "2")

	var stderr bytes.Buffer
	app, err := Bootstrap(Options{Keystore: true, Stderr: &stderr})
	require.NoError(t, err)
	assert.Equal(t, 2, app.Config.Executor.Workers)

	res, err := app.Executor.Execute(context.Background(), &executor.ExecuteRequest{Operation: "list_keys"})
	require.NoError(t, err)
	assert.Empty(t, res.Result)
	assert.Contains(t, stderr.String(), `"operation":"list_keys"`)
}

func TestBootstrap_FileKeystoreWithPassword(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KEYFORGE_KEYSTORE_FILE_DIR", filepath.Join(t.TempDir(), "ring"))
	t.Setenv("KEYFORGE_KEYSTORE_PASSWORD", "correct horse")

	app, err := Bootstrap(Options{Keystore: true, Stderr: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.NotNil(t, app.Executor)
}

func TestBootstrap_FileKeystoreNeedsTerminal(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KEYFORGE_KEYSTORE_FILE_DIR", filepath.Join(t.TempDir(), "ring"))

	stdin, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer stdin.Close()

	_, err = Bootstrap(Options{Keystore: true, Stderr: &bytes.Buffer{}, Stdin: stdin})
	assert.ErrorContains(t, err, "stdin is not a terminal")
}

func TestBootstrap_WithoutKeystore(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KEYFORGE_KEYSTORE_BACKEND", "no-such-backend")

	app, err := Bootstrap(Options{Stderr: &bytes.Buffer{}})
	require.NoError(t, err)

	_, err = app.Executor.Execute(context.Background(), &executor.ExecuteRequest{Operation: "list_keys"})
	assert.ErrorContains(t, err, "no keystore configured")
}

func TestBootstrap_InvalidLogLevel(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KEYFORGE_LOG_LEVEL", "loud")

	_, err := Bootstrap(Options{Stderr: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "invalid log level")
}
