package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "logs/manifest.json", cfg.Dataset.ManifestPath)
	assert.Equal(t, "logs", cfg.Dataset.LogsPath)
	assert.True(t, cfg.Dataset.EnrichKeywords)
	assert.Equal(t, "openai", cfg.Diagnostic.Provider)
	assert.Equal(t, "https://api.github.com", cfg.Contributors.APIBaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HISTPATCH_SERVER_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
}
