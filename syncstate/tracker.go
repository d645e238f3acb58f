// Package syncstate keeps the in-memory progress of background sync runs,
// one entry per server.
package syncstate

import (
	"sort"
	"sync"
	"time"

	"discord-summarizer/models"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Tracker is the process-wide registry of sync runs keyed by server id.
// All mutations happen under one mutex, so a read-modify-write of an entry
// can never interleave with another.
type Tracker struct {
	mu   sync.Mutex
	jobs map[string]*models.SyncJobState
	now  func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock used for state timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker returns an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		jobs: make(map[string]*models.SyncJobState),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSync registers a run for serverID. If a run is already in progress
// its state is returned unchanged with created=false; duplicate triggers are
// suppressed this way. Otherwise a fresh in-progress entry replaces whatever
// finished run was there before, and created=true.
func (t *Tracker) StartSync(serverID string) (models.SyncJobState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.jobs[serverID]; ok && existing.Status == models.SyncInProgress {
		return existing.Clone(), false
	}

	now := t.now().UTC()
	state := &models.SyncJobState{
		ServerID:    serverID,
		RunID:       uuid.NewString(),
		Status:      models.SyncInProgress,
		StartTime:   now,
		LastUpdated: now,
		Errors:      []string{},
	}
	t.jobs[serverID] = state

	return state.Clone(), true
}

// Update applies mutate to the server's entry and refreshes last_updated. It
// returns false, without calling mutate, when no entry exists.
func (t *Tracker) Update(serverID string, mutate func(*models.SyncJobState)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.jobs[serverID]
	if !ok {
		return false
	}

	mutate(state)
	state.LastUpdated = t.now().UTC()
	return true
}

// SetTotal records how many channels the run will visit.
func (t *Tracker) SetTotal(serverID string, total int) {
	t.Update(serverID, func(s *models.SyncJobState) {
		s.ChannelsTotal = total
	})
}

// RecordSuccess counts one more synced channel.
func (t *Tracker) RecordSuccess(serverID string) {
	t.Update(serverID, func(s *models.SyncJobState) {
		s.ChannelsCompleted++
	})
}

// RecordFailure counts one more failed channel and keeps its error.
func (t *Tracker) RecordFailure(serverID, errMsg string) {
	t.Update(serverID, func(s *models.SyncJobState) {
		s.ChannelsFailed++
		s.Errors = append(s.Errors, errMsg)
	})
}

// Fail marks the run failed with a run-level error. A failed run is
// terminal; a later Complete leaves it failed.
func (t *Tracker) Fail(serverID string, err error) {
	t.Update(serverID, func(s *models.SyncJobState) {
		end := t.now().UTC()
		s.Status = models.SyncFailed
		s.EndTime = &end
		s.Error = err.Error()
		s.Errors = append(s.Errors, err.Error())
	})
}

// Complete marks an in-progress run completed and stamps its end time.
func (t *Tracker) Complete(serverID string) {
	t.Update(serverID, func(s *models.SyncJobState) {
		if s.Status != models.SyncInProgress {
			return
		}
		end := t.now().UTC()
		s.Status = models.SyncCompleted
		s.EndTime = &end
	})
}

// Get returns a snapshot of the server's run, if one was ever started.
func (t *Tracker) Get(serverID string) fn.Option[models.SyncJobState] {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.jobs[serverID]
	if !ok {
		return fn.None[models.SyncJobState]()
	}
	return fn.Some(state.Clone())
}

// All returns snapshots of every tracked run ordered by server id.
func (t *Tracker) All() []models.SyncJobState {
	t.mu.Lock()
	defer t.mu.Unlock()

	states := make([]models.SyncJobState, 0, len(t.jobs))
	for _, state := range t.jobs {
		states = append(states, state.Clone())
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].ServerID < states[j].ServerID
	})
	return states
}
