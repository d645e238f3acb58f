package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	grpcsvc "discord-summarizer/grpc"
	"discord-summarizer/models"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync <server_id>",
	Short: "Start a background sync of a server",
	Args:  cobra.ExactArgs(1),
	RunE:  runSync,
}

var statusCmd = &cobra.Command{
	Use:   "status <server_id>",
	Short: "Show the state of a server's latest sync",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <server_id>",
	Short: "Print the channel summaries of a server",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache <server_id>",
	Short: "Delete the cached summaries of a server",
	Args:  cobra.ExactArgs(1),
	RunE:  runClearCache,
}

var channelsCmd = &cobra.Command{
	Use:   "channels <server_id>",
	Short: "List the stored channels of a server",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannels,
}

// withClient dials the configured SyncControl address for one call.
func withClient(call func(ctx context.Context, c *grpcsvc.Client) error) error {
	client, err := grpcsvc.NewClient(grpcAddr, rpcTimeout)
	if err != nil {
		return err
	}
	defer client.Close()

	return call(context.Background(), client)
}

func runSync(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *grpcsvc.Client) error {
		res, err := c.StartSync(ctx, args[0])
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return outputJSON(res)
		}
		fmt.Printf("Sync %s (run %s)\n", res.Status, res.SyncState.RunID)
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *grpcsvc.Client) error {
		state, err := c.SyncStatus(ctx, args[0])
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return outputJSON(state)
		}
		fmt.Print(formatState(state))
		return nil
	})
}

func runSummarize(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *grpcsvc.Client) error {
		resp, err := c.Summarize(ctx, args[0])
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return outputJSON(resp)
		}
		fmt.Print(formatSummaries(resp))
		return nil
	})
}

func runClearCache(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *grpcsvc.Client) error {
		res, err := c.ClearCache(ctx, args[0])
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return outputJSON(res)
		}
		fmt.Printf("%s (%d summaries)\n", res.Message, res.Cleared)
		return nil
	})
}

func runChannels(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *grpcsvc.Client) error {
		channels, err := c.ListChannels(ctx, args[0])
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return outputJSON(channels)
		}
		fmt.Print(formatChannels(channels))
		return nil
	})
}

func formatState(state models.SyncJobState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run:       %s\n", state.RunID)
	fmt.Fprintf(&b, "Status:    %s\n", state.Status)
	fmt.Fprintf(&b, "Progress:  %d/%d (%d failed)\n",
		state.ChannelsCompleted, state.ChannelsTotal, state.ChannelsFailed)
	fmt.Fprintf(&b, "Started:   %s\n", state.StartTime.Local().Format("2006-01-02 15:04:05"))
	if state.EndTime != nil {
		fmt.Fprintf(&b, "Finished:  %s\n", state.EndTime.Local().Format("2006-01-02 15:04:05"))
	}
	if state.Error != "" {
		fmt.Fprintf(&b, "Error:     %s\n", state.Error)
	}
	for _, e := range state.Errors {
		fmt.Fprintf(&b, "  - %s\n", e)
	}
	return b.String()
}

func formatSummaries(resp models.SummaryResponse) string {
	if len(resp.Channels) == 0 {
		return resp.SyncStatus + "\n"
	}

	names := make([]string, 0, len(resp.Channels))
	for name := range resp.Channels {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		ch := resp.Channels[name]
		fmt.Fprintf(&b, "#%s (%d messages, %d participants)\n",
			name, ch.MessageCount, ch.TotalParticipants)
		fmt.Fprintf(&b, "%s\n\n", ch.Summary)
	}
	fmt.Fprintf(&b, "Cache: %d hits, %d misses (%.0f%%)\n",
		resp.CacheMetrics.Hits, resp.CacheMetrics.Misses, resp.CacheMetrics.HitRatio*100)
	return b.String()
}

func formatChannels(channels []models.ChannelInfo) string {
	if len(channels) == 0 {
		return "No channels stored for this server.\n"
	}

	var b strings.Builder
	for _, ch := range channels {
		synced := "never"
		if ch.LastSynced != nil {
			synced = ch.LastSynced.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(&b, "%-20s #%-30s synced %s\n", ch.ChannelID, ch.Name, synced)
	}
	return b.String()
}
