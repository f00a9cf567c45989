package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/mselser95/betview/internal/scenario"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the available scenarios",
	Args:  cobra.NoArgs,
	RunE:  runScenarios,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarios(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSUFFIX\tFALLBACK")
	for _, sc := range scenario.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", sc.Name, sc.Suffix, sc.Fallback)
	}
	return w.Flush()
}
