package database

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"discord-summarizer/models"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// MessageDB is the durable store for channels, messages, per-channel sync
// times and cached channel summaries. Each method is a single atomic
// operation against the shared SQLite file.
type MessageDB struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a MessageDB.
type Option func(*MessageDB)

// WithClock replaces the wall clock used for sync and cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *MessageDB) {
		m.now = now
	}
}

// NewMessageDB wraps an already migrated database handle.
func NewMessageDB(db *sql.DB, opts ...Option) *MessageDB {
	m := &MessageDB{db: db, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DB exposes the underlying handle.
func (m *MessageDB) DB() *sql.DB {
	return m.db
}

// Close closes the database connection.
func (m *MessageDB) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// UpsertChannel records a channel, replacing any previous row for the id.
func (m *MessageDB) UpsertChannel(ctx context.Context, channelID, serverID, name string) error {
	query := `INSERT OR REPLACE INTO channels (channel_id, server_id, name, created_at)
              VALUES (?, ?, ?, ?)`

	_, err := m.db.ExecContext(ctx, query, channelID, serverID, name, toNanos(m.now()))
	if err != nil {
		return wrapErr("upsert channel "+channelID, err)
	}
	return nil
}

// UpsertMessages writes messages in bulk, overwriting rows that share a
// message id. An empty slice is a no-op.
func (m *MessageDB) UpsertMessages(ctx context.Context, channelID string, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin upsert messages", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
    INSERT OR REPLACE INTO messages (message_id, channel_id, author, content, timestamp)
    VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return wrapErr("prepare upsert messages", err)
	}
	defer stmt.Close()

	for _, msg := range messages {
		_, err := stmt.ExecContext(ctx,
			msg.MessageID,
			channelID,
			msg.Author,
			msg.Content,
			toNanos(msg.Timestamp),
		)
		if err != nil {
			return wrapErr("upsert message "+msg.MessageID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit upsert messages", err)
	}
	return nil
}

// MarkSynced sets the channel's last sync time to now.
func (m *MessageDB) MarkSynced(ctx context.Context, channelID string) error {
	query := `INSERT OR REPLACE INTO sync_status (channel_id, last_synced) VALUES (?, ?)`

	if _, err := m.db.ExecContext(ctx, query, channelID, toNanos(m.now())); err != nil {
		return wrapErr("mark synced "+channelID, err)
	}
	return nil
}

// RecentMessages returns every message of the channel newer than
// now-window, newest first.
func (m *MessageDB) RecentMessages(ctx context.Context, channelID string, window time.Duration) ([]models.Message, error) {
	cutoff := toNanos(m.now().Add(-window))

	rows, err := m.db.QueryContext(ctx, `
    SELECT message_id, channel_id, author, content, timestamp
    FROM messages
    WHERE channel_id = ? AND timestamp > ?
    ORDER BY timestamp DESC`, channelID, cutoff)
	if err != nil {
		return nil, wrapErr("query recent messages", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			msg models.Message
			ts  int64
		)
		if err := rows.Scan(&msg.MessageID, &msg.ChannelID, &msg.Author, &msg.Content, &ts); err != nil {
			return nil, wrapErr("scan message", err)
		}
		msg.Timestamp = fromNanos(ts)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate recent messages", err)
	}

	return messages, nil
}

// NeedsSync reports whether the channel was never synced or was last synced
// longer than maxAge ago.
func (m *MessageDB) NeedsSync(ctx context.Context, channelID string, maxAge time.Duration) (bool, error) {
	cutoff := toNanos(m.now().Add(-maxAge))

	var lastSynced int64
	err := m.db.QueryRowContext(ctx, `
    SELECT last_synced FROM sync_status
    WHERE channel_id = ? AND last_synced > ?`, channelID, cutoff).Scan(&lastSynced)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return true, nil
	case err != nil:
		return false, wrapErr("query sync status", err)
	default:
		return false, nil
	}
}

// ChannelsForServer lists the known channels of a server ordered by name,
// each with its last sync time when there is one.
func (m *MessageDB) ChannelsForServer(ctx context.Context, serverID string) ([]models.ChannelInfo, error) {
	rows, err := m.db.QueryContext(ctx, `
    SELECT c.channel_id, c.name, s.last_synced
    FROM channels c
    LEFT JOIN sync_status s ON s.channel_id = c.channel_id
    WHERE c.server_id = ?
    ORDER BY c.name`, serverID)
	if err != nil {
		return nil, wrapErr("query server channels", err)
	}
	defer rows.Close()

	channels := []models.ChannelInfo{}
	for rows.Next() {
		var (
			info       models.ChannelInfo
			lastSynced sql.NullInt64
		)
		if err := rows.Scan(&info.ChannelID, &info.Name, &lastSynced); err != nil {
			return nil, wrapErr("scan channel", err)
		}
		if lastSynced.Valid {
			t := fromNanos(lastSynced.Int64)
			info.LastSynced = &t
		}
		channels = append(channels, info)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate server channels", err)
	}

	return channels, nil
}

// CachedSummary returns the channel's cached summary if it is still valid:
// generated within maxAge and after the channel's last sync. A channel with
// no sync row never has a valid cache.
func (m *MessageDB) CachedSummary(ctx context.Context, channelID string, maxAge time.Duration) (fn.Option[models.CachedSummary], error) {
	cutoff := toNanos(m.now().Add(-maxAge))

	var (
		cs                                   models.CachedSummary
		lastActive, generatedAt              int64
		windowStart, windowEnd, lastSyncedAt int64
	)
	err := m.db.QueryRowContext(ctx, `
    SELECT cs.channel_id, cs.summary, cs.message_count, cs.total_participants,
           cs.last_active, cs.generated_at, cs.message_window_start,
           cs.message_window_end, s.last_synced
    FROM channel_summaries cs
    JOIN sync_status s ON cs.channel_id = s.channel_id
    WHERE cs.channel_id = ?
      AND cs.generated_at > ?
      AND cs.generated_at > s.last_synced`, channelID, cutoff).Scan(
		&cs.ChannelID, &cs.Summary, &cs.MessageCount, &cs.TotalParticipants,
		&lastActive, &generatedAt, &windowStart, &windowEnd, &lastSyncedAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fn.None[models.CachedSummary](), nil
	case err != nil:
		return fn.None[models.CachedSummary](), wrapErr("query cached summary", err)
	}

	cs.LastActive = fromNanos(lastActive)
	cs.GeneratedAt = fromNanos(generatedAt)
	cs.WindowStart = fromNanos(windowStart)
	cs.WindowEnd = fromNanos(windowEnd)
	cs.LastSynced = fromNanos(lastSyncedAt)

	return fn.Some(cs), nil
}

// WriteCachedSummary replaces the channel's cached summary. The generation
// time and the [now-window, now] window are stamped here.
func (m *MessageDB) WriteCachedSummary(ctx context.Context, channelID string, data models.SummaryData, window time.Duration) (models.CachedSummary, error) {
	now := m.now().UTC()
	cs := models.CachedSummary{
		ChannelID:         channelID,
		Summary:           data.Summary,
		MessageCount:      data.MessageCount,
		TotalParticipants: data.TotalParticipants,
		LastActive:        data.LastActive.UTC(),
		GeneratedAt:       now,
		WindowStart:       now.Add(-window),
		WindowEnd:         now,
	}

	_, err := m.db.ExecContext(ctx, `
    INSERT OR REPLACE INTO channel_summaries
        (channel_id, summary, message_count, total_participants,
         last_active, generated_at, message_window_start, message_window_end)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cs.ChannelID,
		cs.Summary,
		cs.MessageCount,
		cs.TotalParticipants,
		toNanos(cs.LastActive),
		toNanos(cs.GeneratedAt),
		toNanos(cs.WindowStart),
		toNanos(cs.WindowEnd),
	)
	if err != nil {
		return models.CachedSummary{}, wrapErr("write cached summary "+channelID, err)
	}

	return cs, nil
}

// ClearSummaries deletes the cached summaries of every channel belonging to
// the server and returns how many rows went away.
func (m *MessageDB) ClearSummaries(ctx context.Context, serverID string) (int64, error) {
	res, err := m.db.ExecContext(ctx, `
    DELETE FROM channel_summaries
    WHERE channel_id IN (
        SELECT channel_id FROM channels WHERE server_id = ?
    )`, serverID)
	if err != nil {
		return 0, wrapErr("clear summaries", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("clear summaries rows affected", err)
	}

	log.Printf("Cleared %d cached summaries for server %s", n, serverID)
	return n, nil
}
