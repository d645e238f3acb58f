package scanner

import (
	"context"
	"errors"
	"net/http"
	"time"

	"discord-summarizer/models"

	"github.com/bwmarrin/discordgo"
)

// messagesPerPage is the most messages Discord returns per request.
const messagesPerPage = 100

// DiscordAPI is the part of *discordgo.Session the fetcher needs.
type DiscordAPI interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// DiscordFetcher reads channels and messages through the Discord REST API.
type DiscordFetcher struct {
	api      DiscordAPI
	window   time.Duration
	maxPages int
	now      func() time.Time
}

// FetcherOption configures a DiscordFetcher.
type FetcherOption func(*DiscordFetcher)

// WithWindow stops paging once a page reaches messages older than d.
func WithWindow(d time.Duration) FetcherOption {
	return func(f *DiscordFetcher) {
		f.window = d
	}
}

// WithMaxPages bounds how many pages of history are read per channel.
func WithMaxPages(n int) FetcherOption {
	return func(f *DiscordFetcher) {
		if n > 0 {
			f.maxPages = n
		}
	}
}

// WithFetcherClock replaces the clock used to evaluate the window.
func WithFetcherClock(now func() time.Time) FetcherOption {
	return func(f *DiscordFetcher) {
		f.now = now
	}
}

func NewDiscordFetcher(api DiscordAPI, opts ...FetcherOption) *DiscordFetcher {
	f := &DiscordFetcher{
		api:      api,
		window:   7 * 24 * time.Hour,
		maxPages: 10,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchChannelList returns the server's message-bearing channels.
func (f *DiscordFetcher) FetchChannelList(ctx context.Context, serverID string) ([]models.ChannelRef, error) {
	channels, err := f.api.GuildChannels(serverID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("server ID: "+serverID, err)
	}

	refs := make([]models.ChannelRef, 0, len(channels))
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		switch ch.Type {
		case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
			refs = append(refs, models.ChannelRef{ID: ch.ID, Name: ch.Name})
		}
	}
	return refs, nil
}

// FetchMessages pages backwards through the channel history until it passes
// the window or reads the page limit.
func (f *DiscordFetcher) FetchMessages(ctx context.Context, channelID string) ([]models.Message, error) {
	cutoff := f.now().Add(-f.window)

	var (
		out      []models.Message
		beforeID string
	)
	for page := 0; page < f.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, &models.FetchError{Resource: "channel ID: " + channelID, Err: err}
		}

		msgs, err := f.api.ChannelMessages(channelID, messagesPerPage, beforeID, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, classify("channel ID: "+channelID, err)
		}
		if len(msgs) == 0 {
			break
		}

		reachedCutoff := false
		for _, m := range msgs {
			if m == nil {
				return nil, &models.ValidationError{Resource: "channel ID: " + channelID, Reason: "null message in page"}
			}
			out = append(out, toMessage(channelID, m))
			beforeID = m.ID
			if m.Timestamp.Before(cutoff) {
				reachedCutoff = true
			}
		}

		if reachedCutoff || len(msgs) < messagesPerPage {
			break
		}
	}

	return out, nil
}

func toMessage(channelID string, m *discordgo.Message) models.Message {
	author := ""
	if m.Author != nil {
		author = m.Author.Username
	}
	return models.Message{
		MessageID: m.ID,
		ChannelID: channelID,
		Author:    author,
		Content:   m.Content,
		Timestamp: m.Timestamp.UTC(),
	}
}

// classify maps a discordgo error onto the sync error taxonomy.
func classify(resource string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden {
		return &models.PermissionDeniedError{Resource: resource}
	}
	if errors.Is(err, discordgo.ErrJSONUnmarshal) {
		return &models.ValidationError{Resource: resource, Reason: "unexpected response shape", Err: err}
	}
	return &models.FetchError{Resource: resource, Err: err}
}
