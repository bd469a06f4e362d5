package config

import (
	"fmt"

	"github.com/bryanchriswhite/deskinspect/internal/capture"
	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/bryanchriswhite/deskinspect/internal/ocr"
	"github.com/bryanchriswhite/deskinspect/internal/state"
)

// Config holds all application configuration
type Config struct {
	StatePath     string `json:"state_path" yaml:"state_path" mapstructure:"state_path"`
	ScreenshotDir string `json:"screenshot_dir" yaml:"screenshot_dir" mapstructure:"screenshot_dir"`
	LogLevel      string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty     bool   `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
	ServerPort    int    `json:"server_port" yaml:"server_port" mapstructure:"server_port"`

	Capture CaptureConfig `json:"capture" yaml:"capture" mapstructure:"capture"`
	OCR     OCRConfig     `json:"ocr" yaml:"ocr" mapstructure:"ocr"`
	Tools   ToolsConfig   `json:"tools" yaml:"tools" mapstructure:"tools"`
}

// CaptureConfig selects the screenshot backend
type CaptureConfig struct {
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`
}

// OCRConfig tunes text recognition
type OCRConfig struct {
	// Languages is a tesseract language list such as "eng+jpn"
	Languages     string  `json:"languages" yaml:"languages" mapstructure:"languages"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence" mapstructure:"min_confidence"`
}

// ToolsConfig names the external executables
type ToolsConfig struct {
	Wmctrl    string `json:"wmctrl" yaml:"wmctrl" mapstructure:"wmctrl"`
	Xdotool   string `json:"xdotool" yaml:"xdotool" mapstructure:"xdotool"`
	Xprop     string `json:"xprop" yaml:"xprop" mapstructure:"xprop"`
	Scrot     string `json:"scrot" yaml:"scrot" mapstructure:"scrot"`
	Tesseract string `json:"tesseract" yaml:"tesseract" mapstructure:"tesseract"`
}

// Default returns a Config with the paths shared with the agent container
func Default() *Config {
	ocrDefaults := ocr.DefaultOptions()
	return &Config{
		StatePath:     state.DefaultPath,
		ScreenshotDir: capture.DefaultDir,
		LogLevel:      "warn",
		LogPretty:     false,
		ServerPort:    8080,
		Capture: CaptureConfig{
			Backend: capture.BackendScrot,
		},
		OCR: OCRConfig{
			Languages:     ocrDefaults.Languages,
			MinConfidence: ocrDefaults.MinConfidence,
		},
		Tools: ToolsConfig{
			Wmctrl:    "wmctrl",
			Xdotool:   "xdotool",
			Xprop:     "xprop",
			Scrot:     "scrot",
			Tesseract: ocrDefaults.Command,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Capture.Backend {
	case capture.BackendScrot, capture.BackendX11:
	default:
		return fmt.Errorf("capture backend must be %q or %q, got %q",
			capture.BackendScrot, capture.BackendX11, c.Capture.Backend)
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.ServerPort)
	}

	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 100 {
		return fmt.Errorf("ocr min confidence must be between 0 and 100, got %v", c.OCR.MinConfidence)
	}

	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (use: debug, info, warn, warning, error, disabled, off)", c.LogLevel)
	}

	if c.StatePath == "" {
		return fmt.Errorf("state path cannot be empty")
	}

	if c.ScreenshotDir == "" {
		return fmt.Errorf("screenshot dir cannot be empty")
	}

	return nil
}
