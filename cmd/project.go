package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/mselser95/betview/internal/engine"
	"github.com/mselser95/betview/internal/scenario"
	"github.com/mselser95/betview/internal/view"
	"github.com/mselser95/betview/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//nolint:gochecknoglobals // Cobra boilerplate
var projectCmd = &cobra.Command{
	Use:   "project <scenario> <form.json|form.yaml|->",
	Short: "Run one scenario and print the resulting slots",
	Long: `Runs a single scenario against the replay engine and prints the slots
it projects. The form is a JSON object keyed by widget name, or a YAML
mapping when the file ends in .yaml or .yml; "-" reads JSON from stdin.

Example:
  betview project stake stake.json --replay-dir ./reports`,
	Args: cobra.ExactArgs(2),
	RunE: runProject,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.Flags().BoolP("json", "j", false, "Output outcome and slots as JSON")
	projectCmd.Flags().Bool("strict", false, "Fail on malformed reports instead of showing the not-found view")
}

type projectResult struct {
	Outcome *scenario.Outcome    `json:"outcome"`
	Slots   map[string]view.Slot `json:"slots"`
	Popups  []string             `json:"popups,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func runProject(cmd *cobra.Command, args []string) error {
	name := scenario.Name(args[0])
	sc, ok := scenario.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s (see 'betview scenarios')", scenario.ErrUnknownScenario, name)
	}

	form, err := readForm(args[1])
	if err != nil {
		return err
	}

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
	if replayDir == "" {
		replayDir = cfg.ReplayDir
	}
	strict, _ := cmd.Flags().GetBool("strict")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	replay, err := engine.NewReplay(&engine.ReplayConfig{Dir: replayDir, Logger: logger})
	if err != nil {
		return fmt.Errorf("create replay engine: %w", err)
	}

	board := view.NewBoard()
	orch := scenario.New(&scenario.Config{
		Engine: replay,
		Odds:   replay,
		Window: board,
		Strict: strict || cfg.StrictReports,
		Logger: logger,
	})

	out, runErr := orch.Run(context.Background(), name, form)

	result := projectResult{
		Outcome: out,
		Slots:   board.Snapshot(sc.Suffix),
		Popups:  board.Popups(),
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	stdout := cmd.OutOrStdout()
	if jsonOutput {
		data, marshalErr := json.MarshalIndent(result, "", "  ")
		if marshalErr != nil {
			return fmt.Errorf("encode result: %w", marshalErr)
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		printProjection(stdout, &result)
	}

	if runErr != nil {
		return fmt.Errorf("run %s: %w", name, runErr)
	}
	return nil
}

func printProjection(out io.Writer, r *projectResult) {
	if r.Outcome != nil {
		fmt.Fprintf(out, "Scenario: %s\n", r.Outcome.Scenario)
		fmt.Fprintf(out, "Branch:   %s\n", r.Outcome.Branch)
		if r.Outcome.Match != "" {
			fmt.Fprintf(out, "Match:    %s\n", r.Outcome.Match)
		}
	}
	for _, p := range r.Popups {
		fmt.Fprintf(out, "Popup:    %s\n", p)
	}
	fmt.Fprintln(out)

	printSlots(out, r.Slots, func(s view.Slot) (any, bool) { return s.Value, s.Visible })
}

func readForm(path string) (scenario.Form, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read form: %w", err)
	}

	var form scenario.Form
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &form)
	default:
		err = json.Unmarshal(data, &form)
	}
	if err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	return form, nil
}
