package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/mselser95/betview/internal/app"
	"github.com/mselser95/betview/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the display server",
	Long: `Starts the betview server, which will:
1. Serve scenario invocations on POST /api/scenarios/{scenario}
2. Push every slot change to viewers connected on /ws
3. Record each projection in the history storage
4. Expose /metrics, /health and /ready

Reports are replayed from --replay-dir (or ENGINE_REPLAY_DIR).`,
	RunE: runServer,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runServer(cmd *cobra.Command, _ []string) error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	replayDir, _ := cmd.Flags().GetString("replay-dir")

	application, err := app.New(cfg, logger, &app.Options{ReplayDir: replayDir})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
