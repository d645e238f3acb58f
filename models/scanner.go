package models

import "time"

// SyncState is the lifecycle status of a server-level sync run.
type SyncState string

const (
	SyncInProgress SyncState = "in_progress"
	SyncCompleted  SyncState = "completed"
	SyncFailed     SyncState = "failed"
)

// Terminal reports whether no further transitions are expected.
func (s SyncState) Terminal() bool {
	return s == SyncCompleted || s == SyncFailed
}

// SyncJobState is the in-memory progress record of one sync run.
type SyncJobState struct {
	ServerID          string     `json:"server_id"`
	RunID             string     `json:"run_id"`
	Status            SyncState  `json:"status"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	ChannelsTotal     int        `json:"channels_total"`
	ChannelsCompleted int        `json:"channels_completed"`
	ChannelsFailed    int        `json:"channels_failed"`
	LastUpdated       time.Time  `json:"last_updated"`
	Errors            []string   `json:"errors"`

	// Error holds the run-level failure, if any.
	Error string `json:"error,omitempty"`
}

// Clone returns a deep copy safe to hand out of the tracker.
func (s SyncJobState) Clone() SyncJobState {
	c := s
	c.Errors = append([]string(nil), s.Errors...)
	if c.Errors == nil {
		c.Errors = []string{}
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return c
}

// Results of a start-sync trigger.
const (
	StartStarted        = "started"
	StartAlreadyRunning = "already_running"
)

// StartSyncResult is returned by the start-sync triggering interface.
type StartSyncResult struct {
	Status    string       `json:"status"`
	SyncState SyncJobState `json:"sync_state"`
}

// ChannelSyncResult is the outcome of syncing a single channel.
type ChannelSyncResult struct {
	ChannelID      string `json:"channel_id"`
	ChannelName    string `json:"channel_name"`
	Success        bool   `json:"success"`
	Skipped        bool   `json:"skipped,omitempty"`
	Error          string `json:"error,omitempty"`
	MessagesSynced int    `json:"messages_synced"`
}
