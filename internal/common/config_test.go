package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 10, config.Agent.MaxSteps)
	assert.Equal(t, "30s", config.Reddit.Timeout)
	assert.Equal(t, 3, config.Structuring.MinComplaints)
	assert.Equal(t, 7, config.Structuring.MaxComplaints)
	assert.Equal(t, LLMProviderOpenRouter, config.LLM.DefaultProvider)
	assert.Equal(t, "openai/gpt-4.1-mini", config.OpenRouter.Model)
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	override := filepath.Join(dir, "override.toml")

	require.NoError(t, os.WriteFile(base, []byte(`
[server]
port = 9000

[agent]
max_steps = 6
`), 0644))
	require.NoError(t, os.WriteFile(override, []byte(`
[server]
port = 9100
`), 0644))

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, 6, config.Agent.MaxSteps)
	assert.Equal(t, "localhost", config.Server.Host, "untouched values keep their defaults")
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rantradar.toml")
	require.NoError(t, os.WriteFile(path, []byte("[llm]\ndefault_provider = \"gemini\"\n"), 0644))

	t.Setenv("RANTRADAR_LLM_DEFAULT_PROVIDER", "claude")
	t.Setenv("RANTRADAR_AGENT_MAX_STEPS", "4")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
	assert.Equal(t, 4, config.Agent.MaxSteps)
	assert.Equal(t, "or-key", config.OpenRouter.APIKey)
}

func TestLoadFromFiles_InvalidToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0644))

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadDotEnv_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RANTRADAR_TEST_DOTENV=from-file\nRANTRADAR_TEST_DOTENV_NEW=new\n"), 0644))

	t.Setenv("RANTRADAR_TEST_DOTENV", "from-env")
	t.Cleanup(func() { os.Unsetenv("RANTRADAR_TEST_DOTENV_NEW") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "absent.env")))

	assert.Equal(t, "from-env", os.Getenv("RANTRADAR_TEST_DOTENV"))
	assert.Equal(t, "new", os.Getenv("RANTRADAR_TEST_DOTENV_NEW"))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, ParseDuration("30s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("-5s", time.Minute))
}

func TestConfigValidate(t *testing.T) {
	config := NewDefaultConfig()
	require.NoError(t, config.Validate())

	config.Storage.Badger.ResetOnStartup = true
	assert.NoError(t, config.Validate(), "reset is allowed outside production")

	config.Environment = "Production"
	assert.True(t, config.IsProduction())
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Structuring.MinComplaints = 8
	assert.Error(t, config.Validate())
}
