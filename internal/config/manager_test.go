package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	m, err := NewManager(path)
	require.NoError(t, err)

	assert.Equal(t, Default(), m.Get())
	assert.Equal(t, path, m.GetConfigPath())
	assert.False(t, m.Exists())
}

func TestNewManagerReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
state_path: /tmp/state.json
server_port: 9090
capture:
  backend: x11
ocr:
  languages: eng
  min_confidence: 60
tools:
  tesseract: /opt/bin/tesseract
`), 0644))

	m, err := NewManager(path)
	require.NoError(t, err)
	cfg := m.Get()

	assert.Equal(t, "/tmp/state.json", cfg.StatePath)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "x11", cfg.Capture.Backend)
	assert.Equal(t, "eng", cfg.OCR.Languages)
	assert.Equal(t, 60.0, cfg.OCR.MinConfidence)
	assert.Equal(t, "/opt/bin/tesseract", cfg.Tools.Tesseract)
	// untouched keys keep their defaults
	assert.Equal(t, "wmctrl", cfg.Tools.Wmctrl)
	assert.Equal(t, Default().ScreenshotDir, cfg.ScreenshotDir)
}

func TestNewManagerRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: [unclosed"), 0644))

	_, err := NewManager(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("state_path: /from/file.json\n"), 0644))
	t.Setenv("DESKINSPECT_STATE_PATH", "/from/env.json")
	t.Setenv("DESKINSPECT_OCR_MIN_CONFIDENCE", "75.5")

	m, err := NewManager(path)
	require.NoError(t, err)
	cfg := m.Get()

	assert.Equal(t, "/from/env.json", cfg.StatePath)
	assert.Equal(t, 75.5, cfg.OCR.MinConfidence)
}

func TestSetAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	require.NoError(t, m.Set("server_port", "9191"))
	require.NoError(t, m.Set("log_pretty", "true"))
	require.NoError(t, m.Set("ocr.languages", "eng+deu"))
	require.NoError(t, m.Save())
	assert.True(t, m.Exists())

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	cfg := reloaded.Get()
	assert.Equal(t, 9191, cfg.ServerPort)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "eng+deu", cfg.OCR.Languages)

	value, err := reloaded.Lookup("server_port")
	require.NoError(t, err)
	assert.EqualValues(t, 9191, value)
}

func TestSetRejectsInvalidValues(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	tests := []struct {
		key, value, wantErr string
	}{
		{"server_port", "eighty", "invalid port number"},
		{"server_port", "70000", "between 1 and 65535"},
		{"log_pretty", "maybe", "invalid boolean"},
		{"ocr.min_confidence", "150", "between 0 and 100"},
		{"capture.backend", "pipewire", "capture backend"},
		{"log_level", "verbose", "invalid log level"},
		{"no.such.key", "x", "configuration key not found"},
	}

	for _, tt := range tests {
		err := m.Set(tt.key, tt.value)
		assert.ErrorContains(t, err, tt.wantErr, "%s=%s", tt.key, tt.value)
	}

	// rejected values leave the previous ones in place
	assert.NoError(t, m.Get().Validate())
	assert.Equal(t, Default(), m.Get())
}

func TestKeysAreSorted(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	keys := m.Keys()
	assert.Contains(t, keys, "ocr.min_confidence")
	assert.Contains(t, keys, "tools.scrot")
	assert.IsIncreasing(t, keys)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	cfg := Default()
	cfg.StatePath = ""
	assert.ErrorContains(t, cfg.Validate(), "state path")

	cfg = Default()
	cfg.OCR.MinConfidence = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Capture.Backend = "x11"
	cfg.LogLevel = "DEBUG"
	assert.NoError(t, cfg.Validate())

	for _, level := range []string{"debug", "info", "warn", "warning", "error", "disabled", "off"} {
		cfg = Default()
		cfg.LogLevel = level
		assert.NoError(t, cfg.Validate(), level)
	}
}
