package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/deskinspect/internal/window"
	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List top-level windows",
	Long: `List the windows the pipeline would inspect, with their geometry.

No window is focused or captured and the state file is left untouched.`,
	Example: `  # List windows in table format (default)
  deskinspect windows

  # List windows in JSON format
  deskinspect windows --format json

  # Show the focused window id as well
  deskinspect windows --focused`,
	Args: cobra.NoArgs,
	RunE: runWindows,
}

var (
	windowsFormat  string
	windowsFocused bool
)

func init() {
	rootCmd.AddCommand(windowsCmd)

	windowsCmd.Flags().StringVarP(&windowsFormat, "format", "f", "table", "output format (table or json)")
	windowsCmd.Flags().BoolVar(&windowsFocused, "focused", false, "print the focused window id")
}

func runWindows(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := cmd.Context()
	windows := p.windows.ListWindows(ctx)

	if windowsFocused {
		fmt.Fprintf(cmd.ErrOrStderr(), "Focused: %s\n", p.windows.Focused(ctx))
	}

	switch windowsFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(windows)
	case "table":
		return printWindowsTable(os.Stdout, windows)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", windowsFormat)
	}
}

func printWindowsTable(out io.Writer, windows []window.Window) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tGEOMETRY\tTITLE")
	fmt.Fprintln(w, "--\t--------\t-----")

	for _, win := range windows {
		g := win.Geometry
		fmt.Fprintf(w, "%s\t%dx%d%+d%+d\t%s\n", win.ID, g.W, g.H, g.X, g.Y, win.Title)
	}

	return w.Flush()
}
