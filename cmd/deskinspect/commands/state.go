package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/bryanchriswhite/deskinspect/internal/state"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage the fingerprint state",
	Long:  `View or clear the window fingerprints persisted between runs.`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored fingerprints",
	Example: `  # Show fingerprints as a table (default)
  deskinspect state show

  # Show the raw state document
  deskinspect state show --format json`,
	Args: cobra.NoArgs,
	RunE: runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all fingerprints",
	Long:  `Remove the state file. The next run reports every window as changed.`,
	Args:  cobra.NoArgs,
	RunE:  runStateReset,
}

var statePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show state file path",
	Args:  cobra.NoArgs,
	RunE:  runStatePath,
}

var stateFormat string

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
	stateCmd.AddCommand(statePathCmd)

	stateShowCmd.Flags().StringVarP(&stateFormat, "format", "f", "table", "output format (table or json)")
}

func openStore() (*state.Store, error) {
	_, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return state.NewStore(cfg.StatePath), nil
}

func runStateShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	st := store.Load()

	switch stateFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(st)
	case "table":
		ids := make([]string, 0, len(st.Windows))
		for id := range st.Windows {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSHA256")
		fmt.Fprintln(w, "--\t------")
		for _, id := range ids {
			fmt.Fprintf(w, "%s\t%s\n", id, st.Windows[id])
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", stateFormat)
	}
}

func runStateReset(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.Reset(); err != nil {
		return err
	}

	fmt.Printf("State cleared: %s\n", store.Path())
	return nil
}

func runStatePath(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	fmt.Println(store.Path())
	return nil
}
