package models

import "time"

// Cache outcomes reported per channel in a summarize response.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// CachedSummary is the single live summary row for a channel.
type CachedSummary struct {
	ChannelID         string    `json:"channel_id"`
	Summary           string    `json:"summary"`
	MessageCount      int       `json:"message_count"`
	TotalParticipants int       `json:"total_participants"`
	LastActive        time.Time `json:"last_active"`
	GeneratedAt       time.Time `json:"generated_at"`
	WindowStart       time.Time `json:"window_start"`
	WindowEnd         time.Time `json:"window_end"`

	// LastSynced is the sync time the row was validated against.
	LastSynced time.Time `json:"last_synced"`
}

// SummaryData is what the resolver hands to the store when caching a freshly
// generated summary. Window and generation times are stamped by the store.
type SummaryData struct {
	Summary           string
	MessageCount      int
	TotalParticipants int
	LastActive        time.Time
}

// ChannelSummary is one entry of the summarize response.
type ChannelSummary struct {
	ChannelID         string    `json:"channel_id"`
	Summary           string    `json:"summary"`
	MessageCount      int       `json:"message_count"`
	LastActive        time.Time `json:"last_active"`
	TotalParticipants int       `json:"total_participants"`
	CacheStatus       string    `json:"cache_status"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// CacheMetrics reports how many channel summaries were served from cache.
type CacheMetrics struct {
	Hits     int     `json:"hits"`
	Misses   int     `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}

// NewCacheMetrics computes the hit ratio, defined as 0 when nothing was
// served at all.
func NewCacheMetrics(hits, misses int) CacheMetrics {
	m := CacheMetrics{Hits: hits, Misses: misses}
	if hits+misses > 0 {
		m.HitRatio = float64(hits) / float64(hits+misses)
	}
	return m
}

// NoCachedDataStatus is reported when a server has never been synced.
const NoCachedDataStatus = "No cached data available. Please run /sync first."

// SummaryResponse aggregates the per-channel summaries of a server.
type SummaryResponse struct {
	ServerID       string                    `json:"server_id"`
	Timestamp      time.Time                 `json:"timestamp"`
	Channels       map[string]ChannelSummary `json:"channels"`
	ChannelsTotal  int                       `json:"channels_total"`
	ActiveChannels int                       `json:"active_channels"`
	CacheMetrics   CacheMetrics              `json:"cache_metrics"`
	SyncStatus     string                    `json:"sync_status,omitempty"`
}

// ClearCacheResult is returned after a server's cached summaries are dropped.
type ClearCacheResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Cleared int64  `json:"cleared"`
}
