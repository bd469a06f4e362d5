package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/deskinspect/internal/snapshot"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Capture, fingerprint and OCR every window",
	Long: `Run the pipeline once and print the snapshot to stdout.

Every window is focused and captured. Windows whose screenshot differs from
the previous run are passed through OCR; unchanged windows carry empty text.
The original focus is restored afterwards and the new fingerprints replace
the state file.`,
	Example: `  # Full snapshot as JSON (default)
  deskinspect inspect

  # Only windows that changed since the last run
  deskinspect inspect --changes-only

  # YAML output
  deskinspect inspect --format yaml`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

var (
	inspectChangesOnly bool
	inspectFormat      string
)

func init() {
	rootCmd.AddCommand(inspectCmd)
	addInspectFlags(inspectCmd)
}

func addInspectFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&inspectChangesOnly, "changes-only", false, "only list windows that changed since the last run")
	cmd.Flags().StringVarP(&inspectFormat, "format", "f", snapshot.FormatJSON, "output format (json or yaml)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	switch inspectFormat {
	case snapshot.FormatJSON, snapshot.FormatYAML:
	default:
		return fmt.Errorf("unsupported format: %s (use 'json' or 'yaml')", inspectFormat)
	}

	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	result := p.assembler.Run(cmd.Context(), snapshot.Options{ChangesOnly: inspectChangesOnly})
	return snapshot.Encode(os.Stdout, result, inspectFormat)
}
