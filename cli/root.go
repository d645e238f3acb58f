package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	// configDir is the directory holding .env, config.yaml and config/.
	configDir string

	// grpcAddr is the SyncControl address the client commands dial.
	grpcAddr string

	// rpcTimeout bounds each client call.
	rpcTimeout time.Duration

	// outputFormat controls client output (text, json).
	outputFormat string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "discord-summarizer",
	Short: "Discord channel sync and summary service",
	Long: `discord-summarizer mirrors the recent history of Discord servers into a
local SQLite store and serves cached per-channel summaries over HTTP, gRPC and
slash commands.

Run "serve" to start the service; the other commands talk to a running
instance over gRPC.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configDir, "config-dir", ".",
		"Directory containing .env, config.yaml and config/guilds.json",
	)
	rootCmd.PersistentFlags().StringVar(
		&grpcAddr, "addr", "127.0.0.1:50051",
		"Address of a running SyncControl service",
	)
	rootCmd.PersistentFlags().DurationVar(
		&rpcTimeout, "timeout", 30*time.Second,
		"Timeout for each gRPC call",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "text",
		"Output format: text, json",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(clearCacheCmd)
	rootCmd.AddCommand(channelsCmd)
}

// outputJSON prints v as indented JSON.
func outputJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
