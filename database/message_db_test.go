package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"discord-summarizer/models"

	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDB(t *testing.T) (*MessageDB, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	db, err := Open(filepath.Join(t.TempDir(), "messages.db"), WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, clock
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "messages.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.UpsertChannel(context.Background(), "c1", "s1", "general"))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	channels, err := second.ChannelsForServer(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, channels, 1)
}

func TestUpsertChannelReplaces(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertChannel(ctx, "c1", "s1", "general"))
	require.NoError(t, db.UpsertChannel(ctx, "c1", "s1", "lobby"))

	channels, err := db.ChannelsForServer(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, channels, 1)
	require.Equal(t, "lobby", channels[0].Name)
	require.Nil(t, channels[0].LastSynced)
}

func TestUpsertMessagesOverwritesById(t *testing.T) {
	db, clock := newTestDB(t)
	ctx := context.Background()
	now := clock.Now()

	require.NoError(t, db.UpsertMessages(ctx, "c1", nil))
	require.NoError(t, db.UpsertMessages(ctx, "c1", []models.Message{
		{MessageID: "m1", Author: "alice", Content: "hello", Timestamp: now.Add(-time.Hour)},
		{MessageID: "m2", Author: "bob", Content: "hi", Timestamp: now.Add(-2 * time.Hour)},
	}))
	require.NoError(t, db.UpsertMessages(ctx, "c1", []models.Message{
		{MessageID: "m1", Author: "alice", Content: "edited", Timestamp: now.Add(-time.Hour)},
	}))

	msgs, err := db.RecentMessages(ctx, "c1", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "m1", msgs[0].MessageID)
	require.Equal(t, "edited", msgs[0].Content)
	require.Equal(t, "c1", msgs[0].ChannelID)
	require.True(t, msgs[0].Timestamp.Equal(now.Add(-time.Hour)))
	require.Equal(t, "m2", msgs[1].MessageID)
}

func TestRecentMessagesWindow(t *testing.T) {
	db, clock := newTestDB(t)
	ctx := context.Background()
	now := clock.Now()

	require.NoError(t, db.UpsertMessages(ctx, "c1", []models.Message{
		{MessageID: "old", Author: "a", Content: "x", Timestamp: now.Add(-8 * 24 * time.Hour)},
		{MessageID: "new", Author: "a", Content: "y", Timestamp: now.Add(-24 * time.Hour)},
	}))
	require.NoError(t, db.UpsertMessages(ctx, "c2", []models.Message{
		{MessageID: "other", Author: "a", Content: "z", Timestamp: now},
	}))

	msgs, err := db.RecentMessages(ctx, "c1", 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "new", msgs[0].MessageID)

	empty, err := db.RecentMessages(ctx, "missing", 7*24*time.Hour)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestNeedsSync(t *testing.T) {
	db, clock := newTestDB(t)
	ctx := context.Background()

	needs, err := db.NeedsSync(ctx, "c1", time.Hour)
	require.NoError(t, err)
	require.True(t, needs, "never synced")

	require.NoError(t, db.MarkSynced(ctx, "c1"))
	needs, err = db.NeedsSync(ctx, "c1", time.Hour)
	require.NoError(t, err)
	require.False(t, needs)

	clock.Advance(2 * time.Hour)
	needs, err = db.NeedsSync(ctx, "c1", time.Hour)
	require.NoError(t, err)
	require.True(t, needs, "stale")
}

func TestChannelsForServerOrderedWithSyncTimes(t *testing.T) {
	db, clock := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertChannel(ctx, "c2", "s1", "random"))
	require.NoError(t, db.UpsertChannel(ctx, "c1", "s1", "general"))
	require.NoError(t, db.UpsertChannel(ctx, "c3", "s2", "elsewhere"))
	require.NoError(t, db.MarkSynced(ctx, "c1"))

	channels, err := db.ChannelsForServer(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, channels, 2)
	require.Equal(t, "general", channels[0].Name)
	require.NotNil(t, channels[0].LastSynced)
	require.True(t, channels[0].LastSynced.Equal(clock.Now()))
	require.Equal(t, "random", channels[1].Name)
	require.Nil(t, channels[1].LastSynced)

	none, err := db.ChannelsForServer(ctx, "unknown")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestCachedSummaryRequiresSyncRow(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	_, err := db.WriteCachedSummary(ctx, "c1", models.SummaryData{Summary: "s"}, 7*24*time.Hour)
	require.NoError(t, err)

	cached, err := db.CachedSummary(ctx, "c1", time.Hour)
	require.NoError(t, err)
	require.True(t, cached.IsNone())
}

func TestCachedSummaryLifecycle(t *testing.T) {
	db, clock := newTestDB(t)
	ctx := context.Background()
	window := 7 * 24 * time.Hour

	require.NoError(t, db.UpsertChannel(ctx, "c1", "s1", "general"))
	require.NoError(t, db.MarkSynced(ctx, "c1"))
	clock.Advance(time.Second)

	lastActive := clock.Now().Add(-time.Minute)
	written, err := db.WriteCachedSummary(ctx, "c1", models.SummaryData{
		Summary:           "Two people said hello.",
		MessageCount:      2,
		TotalParticipants: 2,
		LastActive:        lastActive,
	}, window)
	require.NoError(t, err)
	require.True(t, written.GeneratedAt.Equal(clock.Now()))
	require.True(t, written.WindowEnd.Equal(clock.Now()))
	require.True(t, written.WindowStart.Equal(clock.Now().Add(-window)))

	cached, err := db.CachedSummary(ctx, "c1", time.Hour)
	require.NoError(t, err)
	require.True(t, cached.IsSome())
	cs := cached.UnwrapOr(models.CachedSummary{})
	require.Equal(t, "Two people said hello.", cs.Summary)
	require.Equal(t, 2, cs.MessageCount)
	require.Equal(t, 2, cs.TotalParticipants)
	require.True(t, cs.LastActive.Equal(lastActive))

	// Resync invalidates the cache even while it is young.
	clock.Advance(time.Second)
	require.NoError(t, db.MarkSynced(ctx, "c1"))
	cached, err = db.CachedSummary(ctx, "c1", time.Hour)
	require.NoError(t, err)
	require.True(t, cached.IsNone())

	// A fresh write is valid again until it ages out.
	clock.Advance(time.Second)
	_, err = db.WriteCachedSummary(ctx, "c1", models.SummaryData{Summary: "again"}, window)
	require.NoError(t, err)
	cached, err = db.CachedSummary(ctx, "c1", time.Hour)
	require.NoError(t, err)
	require.True(t, cached.IsSome())

	clock.Advance(2 * time.Hour)
	cached, err = db.CachedSummary(ctx, "c1", time.Hour)
	require.NoError(t, err)
	require.True(t, cached.IsNone())
}

func TestClearSummariesScopedToServer(t *testing.T) {
	db, clock := newTestDB(t)
	ctx := context.Background()
	window := 7 * 24 * time.Hour

	for _, ch := range []struct{ id, server string }{{"a", "s1"}, {"b", "s1"}, {"c", "s2"}} {
		require.NoError(t, db.UpsertChannel(ctx, ch.id, ch.server, ch.id))
		require.NoError(t, db.MarkSynced(ctx, ch.id))
	}
	clock.Advance(time.Second)
	for _, id := range []string{"a", "b", "c"} {
		_, err := db.WriteCachedSummary(ctx, id, models.SummaryData{Summary: id}, window)
		require.NoError(t, err)
	}

	n, err := db.ClearSummaries(ctx, "s1")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	for _, id := range []string{"a", "b"} {
		cached, err := db.CachedSummary(ctx, id, time.Hour)
		require.NoError(t, err)
		require.True(t, cached.IsNone())
	}
	cached, err := db.CachedSummary(ctx, "c", time.Hour)
	require.NoError(t, err)
	require.True(t, cached.IsSome())

	n, err = db.ClearSummaries(ctx, "unknown")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestCleanupOldMessages(t *testing.T) {
	db, clock := newTestDB(t)
	ctx := context.Background()
	now := clock.Now()

	require.NoError(t, db.UpsertMessages(ctx, "c1", []models.Message{
		{MessageID: "ancient", Author: "a", Content: "x", Timestamp: now.Add(-40 * 24 * time.Hour)},
		{MessageID: "recent", Author: "a", Content: "y", Timestamp: now.Add(-time.Hour)},
	}))

	n, err := db.CleanupOldMessages(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = db.CleanupOldMessages(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	msgs, err := db.RecentMessages(ctx, "c1", 365*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "recent", msgs[0].MessageID)
}
