package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datascrub-cli/internal/profile"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load(writeConfig(t, "api_key: sk-test\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", c.APIKey)
	assert.Equal(t, "openrouter", c.DefaultProvider)
	assert.Equal(t, 3, c.RetryMaxAttempts)
	assert.Equal(t, "medium", c.OutlierSensitivity)
	assert.Equal(t, 15, c.PlanMaxColumns)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".datascrub", "projects"), c.ProjectsDir)
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DATASCRUB_MAX_TOKENS", "999")
	p := writeConfig(t, "default_provider: local\noutlier_sensitivity: HIGH\nparallelism: 2\nmax_tokens: 100\n")
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.DefaultProvider)
	assert.Equal(t, 999, c.MaxTokens, "env overrides file")

	s := c.Settings()
	assert.Equal(t, profile.SensitivityHigh, s.OutlierSensitivity)
	assert.Equal(t, 2, s.Parallelism)
	assert.Equal(t, 0.8, s.TypeThreshold)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load(writeConfig(t, "log_format: xml\ntemperature: 5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
	assert.Contains(t, err.Error(), "temperature")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSet(t *testing.T) {
	c := &Global{DefaultModel: "m", DefaultProvider: "openrouter"}

	require.NoError(t, c.Set("default_provider", "Local"))
	assert.Equal(t, "ollama", c.DefaultProvider)
	require.NoError(t, c.Set("outlier_sensitivity", "Low"))
	assert.Equal(t, "low", c.OutlierSensitivity)
	require.NoError(t, c.Set("plan_max_columns", "8"))
	assert.Equal(t, 8, c.PlanMaxColumns)

	assert.Error(t, c.Set("default_provider", "bogus"))
	assert.Equal(t, "ollama", c.DefaultProvider, "failed Set leaves the value unchanged")
	assert.Error(t, c.Set("max_tokens", "lots"))
	assert.Error(t, c.Set("ollama_host", "not a url"))
	assert.Error(t, c.Set("nope", "1"))
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	c := &Global{DefaultModel: "llama3:latest", DefaultProvider: "ollama", LogLevel: "debug", ProjectsDir: "/tmp/p"}
	require.NoError(t, Save(c, p))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "llama3:latest", got.DefaultModel)
	assert.Equal(t, "ollama", got.DefaultProvider)
	assert.Equal(t, "debug", got.LogLevel)
	assert.Equal(t, "/tmp/p", got.ProjectsDir)
}
