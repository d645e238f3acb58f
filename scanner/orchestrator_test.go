package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"discord-summarizer/database"
	"discord-summarizer/models"
	"discord-summarizer/syncstate"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fakeSource serves a fixed channel list. fetchHook, when set, runs before
// every FetchMessages call and may fail it.
type fakeSource struct {
	mu        sync.Mutex
	channels  []models.ChannelRef
	listErr   error
	messages  map[string][]models.Message
	fetchHook func(channelID string) error
	fetched   []string
}

func (f *fakeSource) FetchChannelList(ctx context.Context, serverID string) ([]models.ChannelRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.channels, nil
}

func (f *fakeSource) FetchMessages(ctx context.Context, channelID string) ([]models.Message, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, channelID)
	hook := f.fetchHook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(channelID); err != nil {
			return nil, err
		}
	}
	return f.messages[channelID], nil
}

type fakeStore struct {
	mu       sync.Mutex
	channels map[string]string
	messages map[string]int
	synced   map[string]bool
	fresh    map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		channels: map[string]string{},
		messages: map[string]int{},
		synced:   map[string]bool{},
		fresh:    map[string]bool{},
	}
}

func (s *fakeStore) UpsertChannel(ctx context.Context, channelID, serverID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channelID] = serverID
	return nil
}

func (s *fakeStore) UpsertMessages(ctx context.Context, channelID string, messages []models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[channelID] += len(messages)
	return nil
}

func (s *fakeStore) MarkSynced(ctx context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced[channelID] = true
	return nil
}

func (s *fakeStore) NeedsSync(ctx context.Context, channelID string, maxAge time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.fresh[channelID], nil
}

// pauseCounter records the inter-batch pauses instead of sleeping.
type pauseCounter struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (p *pauseCounter) sleep(ctx context.Context, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses = append(p.pauses, d)
}

func (p *pauseCounter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pauses)
}

func makeChannels(n int) []models.ChannelRef {
	refs := make([]models.ChannelRef, n)
	for i := range refs {
		refs[i] = models.ChannelRef{
			ID:   fmt.Sprintf("c%d", i+1),
			Name: fmt.Sprintf("channel-%d", i+1),
		}
	}
	return refs
}

func TestSyncSevenChannelsTwoBatches(t *testing.T) {
	pauses := &pauseCounter{}

	// Record which batch each fetch belongs to by the number of pauses
	// taken before it.
	var (
		mu      sync.Mutex
		batchOf = map[string]int{}
	)
	source := &fakeSource{
		channels: makeChannels(7),
		messages: map[string][]models.Message{
			"c1": {{MessageID: "m1", Author: "a", Content: "hi"}},
		},
	}
	source.fetchHook = func(channelID string) error {
		mu.Lock()
		batchOf[channelID] = pauses.count()
		mu.Unlock()
		if channelID == "c3" {
			return &models.PermissionDeniedError{Resource: "channel ID: c3"}
		}
		return nil
	}

	store := newFakeStore()
	o := NewOrchestrator(source, store, syncstate.NewTracker(), WithSleep(pauses.sleep))

	state, created := o.Sync(context.Background(), "guild")
	require.True(t, created)

	require.Equal(t, models.SyncCompleted, state.Status)
	require.NotNil(t, state.EndTime)
	require.Equal(t, 7, state.ChannelsTotal)
	require.Equal(t, 6, state.ChannelsCompleted)
	require.Equal(t, 1, state.ChannelsFailed)
	require.Equal(t, []string{"access denied for channel ID: c3"}, state.Errors)

	require.Equal(t, 1, pauses.count())
	require.Equal(t, []time.Duration{DefaultBatchPause}, pauses.pauses)
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5"} {
		require.Equal(t, 0, batchOf[id], id)
	}
	for _, id := range []string{"c6", "c7"} {
		require.Equal(t, 1, batchOf[id], id)
	}

	// The denied channel is never stored.
	require.NotContains(t, store.channels, "c3")
	require.False(t, store.synced["c3"])
	require.True(t, store.synced["c1"])
	require.Equal(t, 1, store.messages["c1"])
}

func TestSyncBatchRunsConcurrently(t *testing.T) {
	// Every fetch in a batch of five blocks until all five have started;
	// sequential execution would deadlock.
	var (
		started sync.WaitGroup
		release = make(chan struct{})
		once    sync.Once
	)
	started.Add(5)
	go func() {
		started.Wait()
		once.Do(func() { close(release) })
	}()

	source := &fakeSource{channels: makeChannels(5)}
	source.fetchHook = func(string) error {
		started.Done()
		<-release
		return nil
	}

	o := NewOrchestrator(source, newFakeStore(), syncstate.NewTracker(), WithSleep(func(context.Context, time.Duration) {}))

	done := make(chan models.SyncJobState)
	go func() {
		state, _ := o.Sync(context.Background(), "guild")
		done <- state
	}()

	select {
	case state := <-done:
		require.Equal(t, 5, state.ChannelsCompleted)
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not run concurrently")
	}
}

func TestSyncChannelListFailureMarksFailed(t *testing.T) {
	source := &fakeSource{listErr: &models.FetchError{Resource: "server ID: guild", Err: errors.New("502")}}
	pauses := &pauseCounter{}
	o := NewOrchestrator(source, newFakeStore(), syncstate.NewTracker(), WithSleep(pauses.sleep))

	state, created := o.Sync(context.Background(), "guild")
	require.True(t, created)

	require.Equal(t, models.SyncFailed, state.Status)
	require.NotNil(t, state.EndTime)
	require.Equal(t, "fetch server ID: guild: 502", state.Error)
	require.Equal(t, []string{"fetch server ID: guild: 502"}, state.Errors)
	require.Zero(t, state.ChannelsTotal)
	require.Zero(t, pauses.count())
}

func TestSyncRecoversPanickingChannel(t *testing.T) {
	source := &fakeSource{channels: makeChannels(3)}
	source.fetchHook = func(channelID string) error {
		if channelID == "c2" {
			panic("boom")
		}
		return nil
	}

	o := NewOrchestrator(source, newFakeStore(), syncstate.NewTracker())
	state, _ := o.Sync(context.Background(), "guild")

	require.Equal(t, models.SyncCompleted, state.Status)
	require.Equal(t, 2, state.ChannelsCompleted)
	require.Equal(t, 1, state.ChannelsFailed)
	require.Equal(t, []string{"panic: boom"}, state.Errors)
}

func TestSyncSkipsChannelsWithoutIDOrName(t *testing.T) {
	source := &fakeSource{channels: []models.ChannelRef{
		{ID: "c1", Name: "general"},
		{ID: "", Name: "ghost"},
		{ID: "c3", Name: ""},
	}}

	o := NewOrchestrator(source, newFakeStore(), syncstate.NewTracker())
	state, _ := o.Sync(context.Background(), "guild")

	require.Equal(t, 3, state.ChannelsTotal)
	require.Equal(t, 1, state.ChannelsCompleted)
	require.Zero(t, state.ChannelsFailed)
	require.Equal(t, []string{"c1"}, source.fetched)
}

func TestSyncMinIntervalSkipsFreshChannels(t *testing.T) {
	source := &fakeSource{channels: makeChannels(2)}
	store := newFakeStore()
	store.fresh["c1"] = true

	o := NewOrchestrator(source, store, syncstate.NewTracker(), WithMinInterval(time.Hour))
	state, _ := o.Sync(context.Background(), "guild")

	require.Equal(t, 2, state.ChannelsCompleted)
	require.Equal(t, []string{"c2"}, source.fetched)
}

func TestStartSuppressesDuplicateRuns(t *testing.T) {
	release := make(chan struct{})
	source := &fakeSource{channels: makeChannels(2)}
	source.fetchHook = func(string) error {
		<-release
		return nil
	}

	tracker := syncstate.NewTracker()
	o := NewOrchestrator(source, newFakeStore(), tracker)

	first, started := o.Start(context.Background(), "guild")
	require.True(t, started)
	require.Equal(t, models.SyncInProgress, first.Status)

	second, started := o.Start(context.Background(), "guild")
	require.False(t, started)
	require.Equal(t, first.RunID, second.RunID)

	close(release)
	o.Wait()

	final := tracker.Get("guild").UnwrapOr(models.SyncJobState{})
	require.Equal(t, models.SyncCompleted, final.Status)
	require.Equal(t, 2, final.ChannelsCompleted)
	require.Len(t, tracker.All(), 1)
}

func TestStartSurvivesCallerCancellation(t *testing.T) {
	source := &fakeSource{channels: makeChannels(1)}
	tracker := syncstate.NewTracker()
	o := NewOrchestrator(source, newFakeStore(), tracker)

	ctx, cancel := context.WithCancel(context.Background())
	_, started := o.Start(ctx, "guild")
	cancel()
	require.True(t, started)

	o.Wait()
	final := tracker.Get("guild").UnwrapOr(models.SyncJobState{})
	require.Equal(t, models.SyncCompleted, final.Status)
	require.Equal(t, 1, final.ChannelsCompleted)
}

func TestSyncWritesToMessageStore(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	source := &fakeSource{
		channels: makeChannels(6),
		messages: map[string][]models.Message{
			"c1": {
				{MessageID: "m1", Author: "alice", Content: "hello", Timestamp: now.Add(-time.Minute)},
				{MessageID: "m2", Author: "bob", Content: "hey", Timestamp: now.Add(-2 * time.Minute)},
			},
		},
	}

	o := NewOrchestrator(source, db, syncstate.NewTracker(), WithBatchPause(0))
	state, _ := o.Sync(context.Background(), "guild")
	require.Equal(t, 6, state.ChannelsCompleted)

	ctx := context.Background()
	channels, err := db.ChannelsForServer(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, channels, 6)
	for _, ch := range channels {
		require.NotNil(t, ch.LastSynced, ch.Name)
	}

	msgs, err := db.RecentMessages(ctx, "c1", time.Hour)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	needs, err := db.NeedsSync(ctx, "c1", time.Hour)
	require.NoError(t, err)
	require.False(t, needs)
}

func TestBatchesPartition(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 60).Draw(rt, "channels")
		size := rapid.IntRange(1, 10).Draw(rt, "size")
		channels := makeChannels(n)

		groups := batches(channels, size)

		require.Equal(rt, (n+size-1)/size, len(groups))
		var flat []models.ChannelRef
		for i, g := range groups {
			require.NotEmpty(rt, g)
			require.LessOrEqual(rt, len(g), size)
			if i < len(groups)-1 {
				require.Len(rt, g, size)
			}
			flat = append(flat, g...)
		}
		require.Equal(rt, len(channels), len(flat))
		for i := range flat {
			require.Equal(rt, channels[i], flat[i])
		}
	})
}

func TestSyncPauseCountProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 23).Draw(rt, "channels")
		size := rapid.IntRange(1, 6).Draw(rt, "size")

		pauses := &pauseCounter{}
		source := &fakeSource{channels: makeChannels(n)}
		o := NewOrchestrator(source, newFakeStore(), syncstate.NewTracker(),
			WithBatchSize(size), WithSleep(pauses.sleep))

		state, _ := o.Sync(context.Background(), "guild")

		groups := (n + size - 1) / size
		require.Equal(rt, max(groups-1, 0), pauses.count())
		require.Equal(rt, n, state.ChannelsCompleted)
		require.Equal(rt, models.SyncCompleted, state.Status)
	})
}
