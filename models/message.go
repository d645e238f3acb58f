package models

import "time"

// Channel is a message stream within a server, as recorded by the store.
type Channel struct {
	ChannelID string    `json:"channel_id" db:"channel_id"`
	ServerID  string    `json:"server_id" db:"server_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Message represents a chat message pulled from a channel.
type Message struct {
	MessageID string    `json:"message_id" db:"message_id"`
	ChannelID string    `json:"channel_id" db:"channel_id"`
	Author    string    `json:"author" db:"author"`
	Content   string    `json:"content" db:"content"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// SyncStatus records when a channel was last synchronized.
type SyncStatus struct {
	ChannelID  string    `json:"channel_id" db:"channel_id"`
	LastSynced time.Time `json:"last_synced" db:"last_synced"`
}

// ChannelInfo is a known channel joined with its last sync time.
// LastSynced is nil when the channel has never been synced.
type ChannelInfo struct {
	ChannelID  string     `json:"channel_id"`
	Name       string     `json:"name"`
	LastSynced *time.Time `json:"last_synced"`
}

// ChannelRef is a channel as listed by the remote chat service.
type ChannelRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
