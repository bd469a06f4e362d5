package commands

import (
	"context"
	"time"

	"github.com/bryanchriswhite/deskinspect/internal/api"
	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the deskinspect API server",
	Long: `Start an HTTP server exposing the pipeline to long-running agents.

Endpoints:
  GET    /api/health
  GET    /api/snapshot[?changes_only=true]
  GET    /api/snapshot/stream   (WebSocket, send {"changes_only": bool})
  GET    /api/windows
  GET    /api/state
  DELETE /api/state

Snapshot runs never overlap; concurrent requests wait their turn.`,
	Example: `  # Start server on the configured port (default 8080)
  deskinspect serve

  # Start server on custom port
  deskinspect serve --port 9090

  # Start with debug logging
  deskinspect serve --log-level debug --log-pretty`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 0, "server port (default is server_port from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, _, err := loadConfig()
	if err != nil {
		return err
	}

	if err := configMgr.GetViper().BindPFlag("server_port", cmd.Flags().Lookup("port")); err != nil {
		return err
	}
	cfg := configMgr.Get()
	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	log := logger.WithComponent("cli")
	server := api.NewServer(p.assembler, p.windows, p.store)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.ServerPort)
	}()

	log.Info().
		Int("port", cfg.ServerPort).
		Str("state_path", cfg.StatePath).
		Msg("deskinspect is running")

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	log.Info().Msg("Shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
