// Package summarizer serves per-channel summaries, reusing cached ones while
// they are valid and generating fresh ones through a language model.
package summarizer

import (
	"context"
	"fmt"
	"log"
	"time"

	"discord-summarizer/models"

	"github.com/lightningnetwork/lnd/fn/v2"
)

const (
	DefaultMaxAge = 24 * time.Hour
	DefaultWindow = 7 * 24 * time.Hour
)

// Store is the part of the message store the resolver reads and writes.
type Store interface {
	ChannelsForServer(ctx context.Context, serverID string) ([]models.ChannelInfo, error)
	CachedSummary(ctx context.Context, channelID string, maxAge time.Duration) (fn.Option[models.CachedSummary], error)
	RecentMessages(ctx context.Context, channelID string, window time.Duration) ([]models.Message, error)
	WriteCachedSummary(ctx context.Context, channelID string, data models.SummaryData, window time.Duration) (models.CachedSummary, error)
}

// Resolver produces channel summaries from the cache or the generator.
type Resolver struct {
	store  Store
	gen    Generator
	maxAge time.Duration
	window time.Duration
	now    func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMaxAge sets how long a cached summary stays valid.
func WithMaxAge(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.maxAge = d
		}
	}
}

// WithWindow sets how far back messages are summarized. The same window is
// stamped on cached rows.
func WithWindow(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.window = d
		}
	}
}

// WithClock replaces the clock used for response timestamps.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

func NewResolver(store Store, gen Generator, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:  store,
		gen:    gen,
		maxAge: DefaultMaxAge,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the channel's summary. None means the channel has nothing
// to report: no recent messages, or the generator returned nothing.
func (r *Resolver) Resolve(ctx context.Context, ch models.ChannelInfo) (fn.Option[models.ChannelSummary], error) {
	none := fn.None[models.ChannelSummary]()

	cached, err := r.store.CachedSummary(ctx, ch.ChannelID, r.maxAge)
	if err != nil {
		return none, err
	}
	if cached.IsSome() {
		cs := cached.UnwrapOr(models.CachedSummary{})
		return fn.Some(models.ChannelSummary{
			ChannelID:         cs.ChannelID,
			Summary:           cs.Summary,
			MessageCount:      cs.MessageCount,
			LastActive:        cs.LastActive,
			TotalParticipants: cs.TotalParticipants,
			CacheStatus:       models.CacheHit,
			GeneratedAt:       cs.GeneratedAt,
		}), nil
	}

	messages, err := r.store.RecentMessages(ctx, ch.ChannelID, r.window)
	if err != nil {
		return none, err
	}
	if len(messages) == 0 {
		return none, nil
	}

	text, err := r.gen.GenerateSummary(ctx, messages, ch.Name)
	if err != nil {
		return none, fmt.Errorf("generate summary for %s: %w", ch.Name, err)
	}
	if text == "" {
		return none, nil
	}

	written, err := r.store.WriteCachedSummary(ctx, ch.ChannelID, summarize(text, messages), r.window)
	if err != nil {
		return none, err
	}

	return fn.Some(models.ChannelSummary{
		ChannelID:         written.ChannelID,
		Summary:           written.Summary,
		MessageCount:      written.MessageCount,
		LastActive:        written.LastActive,
		TotalParticipants: written.TotalParticipants,
		CacheStatus:       models.CacheMiss,
		GeneratedAt:       written.GeneratedAt,
	}), nil
}

// Summarize resolves every known channel of the server. A channel that
// fails is logged and left out; only failing to list the channels fails the
// request.
func (r *Resolver) Summarize(ctx context.Context, serverID string) (models.SummaryResponse, error) {
	channels, err := r.store.ChannelsForServer(ctx, serverID)
	if err != nil {
		return models.SummaryResponse{}, err
	}

	resp := models.SummaryResponse{
		ServerID:      serverID,
		Channels:      map[string]models.ChannelSummary{},
		ChannelsTotal: len(channels),
	}

	if len(channels) == 0 {
		resp.Timestamp = r.now().UTC()
		resp.CacheMetrics = models.NewCacheMetrics(0, 0)
		resp.SyncStatus = models.NoCachedDataStatus
		return resp, nil
	}

	var hits, misses int
	for _, ch := range channels {
		summary, err := r.Resolve(ctx, ch)
		if err != nil {
			log.Printf("Error processing channel %s: %v", ch.Name, err)
			continue
		}
		summary.WhenSome(func(s models.ChannelSummary) {
			resp.Channels[ch.Name] = s
			if s.CacheStatus == models.CacheHit {
				hits++
			} else {
				misses++
			}
		})
	}

	resp.Timestamp = r.now().UTC()
	resp.ActiveChannels = len(resp.Channels)
	resp.CacheMetrics = models.NewCacheMetrics(hits, misses)
	return resp, nil
}

// summarize derives the cached row's bookkeeping from the summarized
// messages.
func summarize(text string, messages []models.Message) models.SummaryData {
	authors := make(map[string]struct{}, len(messages))
	var lastActive time.Time
	for _, msg := range messages {
		authors[msg.Author] = struct{}{}
		if msg.Timestamp.After(lastActive) {
			lastActive = msg.Timestamp
		}
	}

	return models.SummaryData{
		Summary:           text,
		MessageCount:      len(messages),
		TotalParticipants: len(authors),
		LastActive:        lastActive,
	}
}
