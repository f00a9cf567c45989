package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/mselser95/betview/internal/engine"
	"github.com/mselser95/betview/internal/report"
	"github.com/mselser95/betview/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var oddsCmd = &cobra.Command{
	Use:   "odds <sport> [match]",
	Short: "List known matches or show the odds of one match",
	Long: `Reads the replay engine's odds store. With only a sport, lists its
matches; with a match, prints the odds of every bookmaker sorted by name.

Example:
  betview odds football "Paris SG - Marseille"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runOdds,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(oddsCmd)
}

func runOdds(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sport := args[0]

	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	replayDir, _ := cmd.Flags().GetString("replay-dir")
	if replayDir == "" {
		replayDir = cfg.ReplayDir
	}

	replay, err := engine.NewReplay(&engine.ReplayConfig{Dir: replayDir, Logger: zap.NewNop()})
	if err != nil {
		return fmt.Errorf("create replay engine: %w", err)
	}

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		matches, listErr := replay.Matches(ctx, sport)
		if listErr != nil {
			return fmt.Errorf("list matches: %w", listErr)
		}
		if len(matches) == 0 {
			fmt.Fprintf(out, "No matches for %s\n", sport)
			return nil
		}
		for _, m := range matches {
			fmt.Fprintln(out, m)
		}
		return nil
	}

	match := args[1]
	mo, err := replay.MatchOdds(ctx, sport, match)
	if err != nil {
		return fmt.Errorf("lookup odds: %w", err)
	}

	fmt.Fprintf(out, "Match: %s\n", match)
	if mo.Date != nil {
		fmt.Fprintf(out, "Date:  %s\n", mo.Date.Format(report.DateLayout))
	}
	fmt.Fprintln(out)
	printTable(out, report.SortedOddsTable(mo.Odds))

	return nil
}
