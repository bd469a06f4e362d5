package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/deskinspect/internal/config"
	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "deskinspect",
		Short: "deskinspect - desktop snapshot and change detection",
		Long: `deskinspect captures every window on the X11 desktop, fingerprints the
pixels and runs OCR on the windows whose content changed since the previous
run. The result is printed to stdout as a single JSON document.

Features:
  • Enumerate windows via wmctrl (X11 fallback)
  • Focus and capture each window with xdotool and scrot
  • SHA-256 change detection persisted across runs
  • Tesseract OCR with per-word desktop coordinates
  • HTTP and WebSocket API for long-running agents`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// flag name -> configuration key
var persistentFlagKeys = map[string]string{
	"log-level":  "log_level",
	"log-pretty": "log_pretty",
	"state-path": "state_path",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/deskinspect/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human readable logs on stderr")
	rootCmd.PersistentFlags().String("state-path", "", "fingerprint state file (default is /shared/lg-state.json)")

	// the bare command behaves like inspect
	rootCmd.RunE = runInspect
	addInspectFlags(rootCmd)
}

// loadConfig reads the configuration, applies flag overrides and configures
// logging
func loadConfig() (*config.Manager, *config.Config, error) {
	configMgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	v := configMgr.GetViper()
	for flag, key := range persistentFlagKeys {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			return nil, nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.WithComponent("cli").Debug().
		Str("config", configMgr.GetConfigPath()).
		Str("state_path", cfg.StatePath).
		Str("capture_backend", cfg.Capture.Backend).
		Msg("Configuration loaded")

	return configMgr, cfg, nil
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
