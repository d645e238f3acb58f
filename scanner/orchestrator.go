package scanner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"discord-summarizer/models"
	"discord-summarizer/syncstate"
	"discord-summarizer/utils"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchPause = time.Second
)

// ChannelSource is the chat service a sync pulls from.
type ChannelSource interface {
	FetchChannelList(ctx context.Context, serverID string) ([]models.ChannelRef, error)
	FetchMessages(ctx context.Context, channelID string) ([]models.Message, error)
}

// Store is the subset of the message store a sync writes to.
type Store interface {
	UpsertChannel(ctx context.Context, channelID, serverID, name string) error
	UpsertMessages(ctx context.Context, channelID string, messages []models.Message) error
	MarkSynced(ctx context.Context, channelID string) error
	NeedsSync(ctx context.Context, channelID string, maxAge time.Duration) (bool, error)
}

// Orchestrator runs server-level syncs: it lists the server's channels and
// syncs them in sequential batches, each batch fanned out concurrently.
type Orchestrator struct {
	source  ChannelSource
	store   Store
	tracker *syncstate.Tracker

	batchSize   int
	batchPause  time.Duration
	minInterval time.Duration
	sleep       func(ctx context.Context, d time.Duration)

	wg sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBatchSize sets how many channels sync concurrently. Values below one
// fall back to the default.
func WithBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithBatchPause sets the rate-limiting pause between batches.
func WithBatchPause(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.batchPause = d
	}
}

// WithMinInterval makes the sync skip channels synced less than d ago.
// Zero disables the check.
func WithMinInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.minInterval = d
	}
}

// WithSleep replaces the function used to pause between batches.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// NewOrchestrator wires an orchestrator to its collaborators.
func NewOrchestrator(source ChannelSource, store Store, tracker *syncstate.Tracker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:     source,
		store:      store,
		tracker:    tracker,
		batchSize:  DefaultBatchSize,
		batchPause: DefaultBatchPause,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Tracker returns the state tracker the orchestrator reports to.
func (o *Orchestrator) Tracker() *syncstate.Tracker {
	return o.tracker
}

// Start registers a run for serverID and, if none was in progress, runs it on
// a detached goroutine. It returns the run's current state and whether a new
// run was started. Cancelling ctx does not stop a started run.
func (o *Orchestrator) Start(ctx context.Context, serverID string) (models.SyncJobState, bool) {
	state, created := o.tracker.StartSync(serverID)
	if !created {
		log.Printf("Sync for server %s already running (run %s)", serverID, state.RunID)
		return state, false
	}

	runCtx := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(runCtx, serverID)
	}()

	return state, true
}

// Sync performs a run in the calling goroutine and returns its final state.
// If a run is already in progress for serverID its state is returned
// instead and created is false.
func (o *Orchestrator) Sync(ctx context.Context, serverID string) (state models.SyncJobState, created bool) {
	state, created = o.tracker.StartSync(serverID)
	if !created {
		return state, false
	}

	o.run(ctx, serverID)
	return o.tracker.Get(serverID).UnwrapOr(state), true
}

// Wait blocks until every run launched by Start has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) run(ctx context.Context, serverID string) {
	utils.Info("Orchestrator", "Sync", fmt.Sprintf("Starting sync for server %s", serverID))

	channels, err := o.source.FetchChannelList(ctx, serverID)
	if err != nil {
		o.tracker.Fail(serverID, err)
		utils.Error("Orchestrator", "Sync", fmt.Sprintf("Sync failed for server %s: %v", serverID, err))
		return
	}
	o.tracker.SetTotal(serverID, len(channels))

	groups := batches(channels, o.batchSize)
	for i, batch := range groups {
		for _, res := range o.syncBatch(ctx, serverID, batch) {
			if res.Success {
				o.tracker.RecordSuccess(serverID)
				continue
			}
			errMsg := res.Error
			if errMsg == "" {
				errMsg = "Unknown error"
			}
			o.tracker.RecordFailure(serverID, errMsg)
		}

		if i < len(groups)-1 && o.batchPause > 0 {
			o.sleep(ctx, o.batchPause)
		}
	}

	o.tracker.Complete(serverID)

	final := o.tracker.Get(serverID).UnwrapOr(models.SyncJobState{})
	utils.Info("Orchestrator", "Sync", fmt.Sprintf(
		"Sync for server %s finished: %d/%d channels synced, %d failed",
		serverID, final.ChannelsCompleted, final.ChannelsTotal, final.ChannelsFailed))
}

// syncBatch syncs every valid channel of the batch concurrently and waits for
// all of them. A panicking channel sync becomes a failed result.
func (o *Orchestrator) syncBatch(ctx context.Context, serverID string, batch []models.ChannelRef) []models.ChannelSyncResult {
	p := pool.NewWithResults[models.ChannelSyncResult]()

	for _, ch := range batch {
		if ch.ID == "" || ch.Name == "" {
			continue
		}
		ch := ch
		p.Go(func() models.ChannelSyncResult {
			var (
				res models.ChannelSyncResult
				pc  panics.Catcher
			)
			pc.Try(func() {
				res = o.syncChannel(ctx, serverID, ch)
			})
			if r := pc.Recovered(); r != nil {
				log.Printf("Panic syncing channel %s: %v", ch.Name, r.Value)
				return models.ChannelSyncResult{
					ChannelID:   ch.ID,
					ChannelName: ch.Name,
					Error:       fmt.Sprintf("panic: %v", r.Value),
				}
			}
			return res
		})
	}

	return p.Wait()
}

// syncChannel fetches one channel's messages and stores them. Failures are
// reported in the result, never returned.
func (o *Orchestrator) syncChannel(ctx context.Context, serverID string, ch models.ChannelRef) models.ChannelSyncResult {
	res := models.ChannelSyncResult{ChannelID: ch.ID, ChannelName: ch.Name}

	if o.minInterval > 0 {
		needs, err := o.store.NeedsSync(ctx, ch.ID, o.minInterval)
		if err != nil {
			res.Error = err.Error()
			log.Printf("Error checking sync status of channel %s: %v", ch.Name, err)
			return res
		}
		if !needs {
			res.Success = true
			res.Skipped = true
			log.Printf("Channel %s synced recently, skipping", ch.Name)
			return res
		}
	}

	log.Printf("Starting sync for channel: %s (%s)", ch.Name, ch.ID)

	messages, err := o.source.FetchMessages(ctx, ch.ID)
	if err != nil {
		res.Error = err.Error()
		if models.IsPermissionDenied(err) {
			log.Printf("Skipping channel %s: %v", ch.Name, err)
		} else {
			log.Printf("Error syncing channel %s: %v", ch.Name, err)
		}
		return res
	}

	if err := o.store.UpsertChannel(ctx, ch.ID, serverID, ch.Name); err != nil {
		res.Error = err.Error()
		log.Printf("Error syncing channel %s: %v", ch.Name, err)
		return res
	}
	if err := o.store.UpsertMessages(ctx, ch.ID, messages); err != nil {
		res.Error = err.Error()
		log.Printf("Error syncing channel %s: %v", ch.Name, err)
		return res
	}
	if err := o.store.MarkSynced(ctx, ch.ID); err != nil {
		res.Error = err.Error()
		log.Printf("Error syncing channel %s: %v", ch.Name, err)
		return res
	}

	res.Success = true
	res.MessagesSynced = len(messages)
	log.Printf("Successfully synced %d messages from %s", len(messages), ch.Name)
	return res
}

// batches splits channels into consecutive groups of at most size.
func batches(channels []models.ChannelRef, size int) [][]models.ChannelRef {
	if size <= 0 {
		size = DefaultBatchSize
	}

	var out [][]models.ChannelRef
	for start := 0; start < len(channels); start += size {
		end := min(start+size, len(channels))
		out = append(out, channels[start:end])
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
