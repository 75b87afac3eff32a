package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultSettings(t *testing.T) {
	settings := NewDefaultSettings()

	assert.Equal(t, "llmdock", settings.Network)
	assert.Equal(t, "ollama", settings.Ollama.ContainerName)
	assert.Equal(t, 11434, settings.Ollama.HostPort)
	assert.Equal(t, "open-webui", settings.WebUI.ContainerName)
	assert.Equal(t, 3000, settings.WebUI.HostPort)
	assert.Equal(t, 8080, settings.WebUI.ContainerPort)
	assert.Equal(t, Duration(5*time.Second), settings.SettleDelay)
	assert.NoError(t, settings.Validate())
}

func TestLoadSettingsMissingFileReturnsDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultSettings(), settings)
}

func TestLoadSettingsOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
gpu: false
settle_delay: 500ms
webui:
  container_name: open-webui
  image: ghcr.io/open-webui/open-webui:main
  host_port: 8081
  container_port: 8080
  volume: open-webui-data
  mount_path: /app/backend/data
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	assert.False(t, settings.GPU)
	assert.Equal(t, Duration(500*time.Millisecond), settings.SettleDelay)
	assert.Equal(t, 8081, settings.WebUI.HostPort)

	// Untouched sections keep their defaults.
	assert.Equal(t, "ollama", settings.Ollama.ContainerName)
	assert.Equal(t, 11434, settings.Ollama.HostPort)
}

func TestLoadSettingsRejectsInvalidPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ollama:
  container_name: ollama
  image: ollama/ollama:latest
  host_port: -1
  container_port: 11434
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoadSettingsRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse settings file")
}

func TestServiceURL(t *testing.T) {
	svc := Service{HostPort: 3000}
	assert.Equal(t, "http://localhost:3000", svc.URL())
}
