package handlers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"discord-summarizer/models"
	"discord-summarizer/utils"

	"github.com/bwmarrin/discordgo"
)

const (
	maxEmbeds            = 10
	embedDescriptionSize = 4096
	embedColor           = 0x5865f2
)

// FormatTimestamp renders t as a Discord relative timestamp.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// FormatSyncState renders a run's progress as a short status block.
func FormatSyncState(state models.SyncJobState) string {
	var b strings.Builder

	icon := "⏳"
	switch state.Status {
	case models.SyncCompleted:
		icon = "✅"
	case models.SyncFailed:
		icon = "❌"
	}

	fmt.Fprintf(&b, "%s **%s** (server %s)\n", icon, state.Status, state.ServerID)
	fmt.Fprintf(&b, "Channels: %d/%d synced, %d failed\n",
		state.ChannelsCompleted, state.ChannelsTotal, state.ChannelsFailed)
	fmt.Fprintf(&b, "Started: %s", FormatTimestamp(state.StartTime))
	if state.EndTime != nil {
		fmt.Fprintf(&b, " · Finished: %s", FormatTimestamp(*state.EndTime))
	}
	if state.Error != "" {
		fmt.Fprintf(&b, "\nError: %s", state.Error)
	}
	if n := len(state.Errors); n > 0 && state.Error == "" {
		fmt.Fprintf(&b, "\nLast error (%d total): %s", n, state.Errors[n-1])
	}

	return b.String()
}

// SummaryEmbeds renders a summarize response as a header line plus one embed
// per active channel, most recently active first.
func SummaryEmbeds(resp models.SummaryResponse) (string, []*discordgo.MessageEmbed) {
	if resp.SyncStatus != "" {
		return resp.SyncStatus, nil
	}

	header := fmt.Sprintf("📋 %d of %d channels active · cache hits %d, misses %d (%.0f%%)",
		resp.ActiveChannels, resp.ChannelsTotal,
		resp.CacheMetrics.Hits, resp.CacheMetrics.Misses, resp.CacheMetrics.HitRatio*100)
	if len(resp.Channels) == 0 {
		return header + "\nNo recent activity to summarize.", nil
	}

	names := make([]string, 0, len(resp.Channels))
	for name := range resp.Channels {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		ca, cb := resp.Channels[names[a]], resp.Channels[names[b]]
		if !ca.LastActive.Equal(cb.LastActive) {
			return ca.LastActive.After(cb.LastActive)
		}
		return names[a] < names[b]
	})

	embeds := make([]*discordgo.MessageEmbed, 0, min(len(names), maxEmbeds))
	for _, name := range names {
		if len(embeds) == maxEmbeds {
			header += fmt.Sprintf("\n…and %d more channels", len(names)-maxEmbeds)
			break
		}
		ch := resp.Channels[name]
		embeds = append(embeds, &discordgo.MessageEmbed{
			Title:       "#" + name,
			Description: utils.Truncate(ch.Summary, embedDescriptionSize),
			Color:       embedColor,
			Timestamp:   ch.GeneratedAt.Format(time.RFC3339),
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Messages", Value: fmt.Sprint(ch.MessageCount), Inline: true},
				{Name: "Participants", Value: fmt.Sprint(ch.TotalParticipants), Inline: true},
				{Name: "Last active", Value: FormatTimestamp(ch.LastActive), Inline: true},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: "cache " + ch.CacheStatus},
		})
	}

	return header, embeds
}
