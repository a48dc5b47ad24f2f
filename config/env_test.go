package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/recembed/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKey(t *testing.T) {
	t.Setenv("RECEMBED_TEST_KEY", "sk-from-env")

	key, err := EmbedderConfig{APIKeyEnv: "RECEMBED_TEST_KEY"}.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", key)
}

func TestAPIKey_Missing(t *testing.T) {
	t.Setenv("RECEMBED_TEST_KEY", "  ")

	_, err := EmbedderConfig{APIKeyEnv: "RECEMBED_TEST_KEY"}.APIKey()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingCredential)
	assert.Contains(t, err.Error(), "RECEMBED_TEST_KEY")
}

func TestAPIKey_DefaultVariable(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "sk-default")

	key, err := EmbedderConfig{}.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-default", key)
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RECEMBED_DOTENV_KEY=sk-dotenv\n"), 0o600))

	// Registers cleanup that restores the variable after the test
	t.Setenv("RECEMBED_DOTENV_KEY", "")
	require.NoError(t, os.Unsetenv("RECEMBED_DOTENV_KEY"))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "sk-dotenv", os.Getenv("RECEMBED_DOTENV_KEY"))
}

func TestLoadEnv_ExistingVariableWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RECEMBED_DOTENV_KEY=from-file\n"), 0o600))
	t.Setenv("RECEMBED_DOTENV_KEY", "from-env")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-env", os.Getenv("RECEMBED_DOTENV_KEY"))
}

func TestLoadEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "absent.env")))
}
