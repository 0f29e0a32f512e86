package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/internal/config"
	"momentum/internal/log"
)

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MOMENTUM_TEST_VALUE=from-file\n"), 0600))
	t.Setenv("MOMENTUM_TEST_VALUE", "")
	os.Unsetenv("MOMENTUM_TEST_VALUE")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("MOMENTUM_TEST_VALUE"))
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MOMENTUM_TEST_VALUE=from-file\n"), 0600))
	t.Setenv("MOMENTUM_TEST_VALUE", "from-env")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv("MOMENTUM_TEST_VALUE"))
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug"}, log.ComponentWorker)
	assert.Equal(t, log.ComponentWorker, logger.Component())
}
