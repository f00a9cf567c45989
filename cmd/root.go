package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "betview",
	Short: "Display layer for a sports-betting arbitrage engine",
	Long: `betview runs betting scenarios against an arbitrage engine, parses the
text report the engine prints and projects it onto named display slots.

Slots are served over HTTP, pushed live to WebSocket viewers and kept in a
projection history (console or PostgreSQL).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().String("replay-dir", "", "Directory of canned engine reports (overrides ENGINE_REPLAY_DIR)")
}
