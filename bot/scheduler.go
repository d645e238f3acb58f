package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"discord-summarizer/models"
	"discord-summarizer/utils"

	"github.com/robfig/cron/v3"
)

const cleanupSchedule = "@daily"

// SyncTrigger starts a background sync for a server.
type SyncTrigger interface {
	StartSync(ctx context.Context, serverID string) (models.StartSyncResult, error)
}

// Cleaner deletes messages past the retention period.
type Cleaner interface {
	CleanupOldMessages(ctx context.Context, retention time.Duration) (int64, error)
}

// Scheduler runs the periodic sync of the configured guilds and the daily
// message cleanup.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	trigger   SyncTrigger
	cleaner   Cleaner
	retention time.Duration

	mu     sync.RWMutex
	guilds []models.GuildConfig
}

func NewScheduler(spec string, trigger SyncTrigger, cleaner Cleaner, retention time.Duration, guilds []models.GuildConfig) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		spec:      spec,
		trigger:   trigger,
		cleaner:   cleaner,
		retention: retention,
		guilds:    guilds,
	}
}

// SetGuilds replaces the guilds synced on the schedule.
func (s *Scheduler) SetGuilds(guilds []models.GuildConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds = guilds
	log.Printf("Scheduler now syncs %d guilds", len(guilds))
}

// Start starts the cron jobs.
func (s *Scheduler) Start(syncAtStartup bool) error {
	log.Println("Initializing scheduler...")

	if s.spec != "" {
		if _, err := s.cron.AddFunc(s.spec, s.RunSync); err != nil {
			return fmt.Errorf("could not set up sync job %q: %w", s.spec, err)
		}
		log.Printf("Sync job scheduled (%s).", s.spec)
	}
	if s.cleaner != nil && s.retention > 0 {
		if _, err := s.cron.AddFunc(cleanupSchedule, s.RunCleanup); err != nil {
			return fmt.Errorf("could not set up cleanup job: %w", err)
		}
	}
	s.cron.Start()

	// Perform an initial sync on startup based on config.
	if syncAtStartup {
		go func() {
			log.Println("Performing initial sync on startup...")
			s.RunSync()
		}()
	} else {
		log.Println("Skipping initial sync on startup as per configuration.")
	}
	return nil
}

// Stop stops the cron jobs and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("Scheduler stopped.")
}

// RunSync triggers a sync for every configured guild. Guilds with a run
// already in progress are left alone.
func (s *Scheduler) RunSync() {
	s.mu.RLock()
	guilds := append([]models.GuildConfig(nil), s.guilds...)
	s.mu.RUnlock()

	if len(guilds) == 0 {
		log.Println("No guilds configured for scheduled sync.")
		return
	}

	started := 0
	for _, g := range guilds {
		res, err := s.trigger.StartSync(context.Background(), g.GuildsID)
		if err != nil {
			utils.Error("Scheduler", "Sync", fmt.Sprintf("Could not start sync for %s (%s): %v", g.Name, g.GuildsID, err))
			continue
		}
		if res.Status == models.StartStarted {
			started++
		} else {
			log.Printf("Sync for %s (%s) is still running, skipping.", g.Name, g.GuildsID)
		}
	}
	log.Printf("Scheduled sync started %d of %d guilds.", started, len(guilds))
}

// RunCleanup deletes messages older than the retention period.
func (s *Scheduler) RunCleanup() {
	if s.cleaner == nil {
		return
	}
	if _, err := s.cleaner.CleanupOldMessages(context.Background(), s.retention); err != nil {
		utils.Error("Scheduler", "Cleanup", fmt.Sprintf("Message cleanup failed: %v", err))
	}
}
