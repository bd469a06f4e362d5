package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment overrides, e.g. DESKINSPECT_STATE_PATH
const EnvPrefix = "DESKINSPECT"

// Manager layers defaults, the YAML file, environment variables and bound
// flags, in increasing precedence
type Manager struct {
	configPath string
	v          *viper.Viper
	mu         sync.RWMutex
}

// DefaultPath returns $HOME/.config/deskinspect/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "deskinspect", "config.yaml"), nil
}

// NewManager creates a configuration manager. An empty configFile selects
// DefaultPath. A missing file is not an error; defaults apply until Save.
func NewManager(configFile string) (*Manager, error) {
	configPath := configFile
	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m := &Manager{configPath: configPath, v: v}

	if _, err := os.Stat(configPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Debug().
			Str("path", configPath).
			Msg("Config file not found, using defaults")
		return m, nil
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	logger.WithComponent("config").Debug().
		Str("path", configPath).
		Msg("Config loaded")

	return m, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("state_path", cfg.StatePath)
	v.SetDefault("screenshot_dir", cfg.ScreenshotDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_pretty", cfg.LogPretty)
	v.SetDefault("server_port", cfg.ServerPort)
	v.SetDefault("capture.backend", cfg.Capture.Backend)
	v.SetDefault("ocr.languages", cfg.OCR.Languages)
	v.SetDefault("ocr.min_confidence", cfg.OCR.MinConfidence)
	v.SetDefault("tools.wmctrl", cfg.Tools.Wmctrl)
	v.SetDefault("tools.xdotool", cfg.Tools.Xdotool)
	v.SetDefault("tools.xprop", cfg.Tools.Xprop)
	v.SetDefault("tools.scrot", cfg.Tools.Scrot)
	v.SetDefault("tools.tesseract", cfg.Tools.Tesseract)
}

// Get returns the effective configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		logger.WithComponent("config").Warn().
			Err(err).
			Msg("Invalid configuration values, using defaults")
		return Default()
	}
	return &cfg
}

// GetViper exposes the underlying viper instance for flag binding
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// Keys lists every known configuration key in sorted order
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := m.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Lookup returns the effective value of key
func (m *Manager) Lookup(key string) (interface{}, error) {
	if !m.known(key) {
		return nil, fmt.Errorf("configuration key not found: %s", key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.Get(key), nil
}

// Set parses value for key and applies it if the result is valid. The
// change is in memory until Save.
func (m *Manager) Set(key, value string) error {
	key = strings.ToLower(key)
	if !m.known(key) {
		return fmt.Errorf("configuration key not found: %s", key)
	}

	var parsed interface{}
	switch key {
	case "server_port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port number: %s", value)
		}
		parsed = port
	case "log_pretty":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s (use: true or false)", value)
		}
		parsed = enabled
	case "ocr.min_confidence":
		conf, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %s", value)
		}
		parsed = conf
	default:
		parsed = value
	}

	m.mu.Lock()
	previous := m.v.Get(key)
	m.v.Set(key, parsed)
	m.mu.Unlock()

	if err := m.Get().Validate(); err != nil {
		m.mu.Lock()
		m.v.Set(key, previous)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Manager) known(key string) bool {
	key = strings.ToLower(key)
	for _, k := range m.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// Save writes the effective configuration to the config file
func (m *Manager) Save() error {
	cfg := m.Get()

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Saving config")

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("config_dir", configDir).
			Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("path", m.configPath).
			Msg("Failed to write config")
		return err
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Msg("Config saved")
	return nil
}

// Exists reports whether the config file is present on disk
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
