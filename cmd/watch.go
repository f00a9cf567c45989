package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/mselser95/betview/pkg/config"
	"github.com/mselser95/betview/pkg/websocket"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchCmd = &cobra.Command{
	Use:   "watch [ws-url]",
	Short: "Follow live slot updates from a running server",
	Long: `Connects to a betview server's /ws endpoint and prints every slot update
and popup as it happens. The connection is re-established with exponential
backoff if it drops.

Example:
  betview watch ws://localhost:8080/ws`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolP("json", "j", false, "Output raw JSON messages")
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	url := "ws://localhost:" + cfg.HTTPPort + "/ws"
	if len(args) == 1 {
		url = args[0]
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	viewer := websocket.NewViewer(websocket.ViewerConfig{
		URL:                   url,
		DialTimeout:           10 * time.Second,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: time.Second,
		ReconnectMaxDelay:     30 * time.Second,
		ReconnectBackoffMult:  2.0,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})

	err = viewer.Start()
	if err != nil {
		return fmt.Errorf("start viewer: %w", err)
	}
	defer viewer.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s...\n", url)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			fmt.Fprintln(out, "\nShutting down...")
			return nil
		case msg, ok := <-viewer.Messages():
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if jsonOutput {
				data, _ := json.Marshal(msg)
				fmt.Fprintln(out, string(data))
				continue
			}
			printMessage(out, msg)
		}
	}
}

func printMessage(out io.Writer, msg *websocket.Message) {
	timestamp := time.Now().Format("15:04:05")

	switch msg.Type {
	case websocket.TypeSnapshot:
		fmt.Fprintf(out, "[%s] snapshot (%d slots)\n", timestamp, len(msg.Slots))
		printSlots(out, msg.Slots, func(s websocket.SlotState) (any, bool) { return s.Value, s.Visible })
	case websocket.TypeUpdate:
		fmt.Fprintf(out, "[%s] %s\t%s\t%s\n", timestamp, msg.Key, visibility(msg.Visible), formatValue(msg.Value))
	case websocket.TypePopup:
		fmt.Fprintf(out, "[%s] POPUP\t%s\n", timestamp, msg.Text)
	default:
		fmt.Fprintf(out, "[%s] unknown message type %q\n", timestamp, msg.Type)
	}
}
