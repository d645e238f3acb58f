// Package service is the triggering interface shared by the HTTP, gRPC,
// Discord and CLI surfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"discord-summarizer/models"
	"discord-summarizer/scanner"
	"discord-summarizer/summarizer"
	"discord-summarizer/utils"
)

var (
	// ErrNotFound is returned when no sync has been started for a server.
	ErrNotFound = errors.New("no sync found for server")

	// ErrInvalidServerID is returned for a blank server id.
	ErrInvalidServerID = errors.New("server id is required")
)

// CacheStore is the store access the service needs beyond the orchestrator
// and resolver.
type CacheStore interface {
	ClearSummaries(ctx context.Context, serverID string) (int64, error)
	ChannelsForServer(ctx context.Context, serverID string) ([]models.ChannelInfo, error)
}

type Service struct {
	orchestrator *scanner.Orchestrator
	resolver     *summarizer.Resolver
	store        CacheStore
}

func New(orchestrator *scanner.Orchestrator, resolver *summarizer.Resolver, store CacheStore) *Service {
	return &Service{
		orchestrator: orchestrator,
		resolver:     resolver,
		store:        store,
	}
}

func validServerID(serverID string) (string, error) {
	id := strings.TrimSpace(serverID)
	if id == "" {
		return "", ErrInvalidServerID
	}
	return id, nil
}

// StartSync launches a background sync for the server, or reports the run
// already in progress.
func (s *Service) StartSync(ctx context.Context, serverID string) (models.StartSyncResult, error) {
	id, err := validServerID(serverID)
	if err != nil {
		return models.StartSyncResult{}, err
	}

	state, started := s.orchestrator.Start(ctx, id)
	if !started {
		return models.StartSyncResult{Status: models.StartAlreadyRunning, SyncState: state}, nil
	}
	return models.StartSyncResult{Status: models.StartStarted, SyncState: state}, nil
}

// SyncStatus returns the latest run state of the server.
func (s *Service) SyncStatus(serverID string) (models.SyncJobState, error) {
	id, err := validServerID(serverID)
	if err != nil {
		return models.SyncJobState{}, err
	}

	state := s.orchestrator.Tracker().Get(id)
	if state.IsNone() {
		return models.SyncJobState{}, ErrNotFound
	}
	return state.UnwrapOr(models.SyncJobState{}), nil
}

// Summarize returns the aggregated channel summaries of the server.
func (s *Service) Summarize(ctx context.Context, serverID string) (models.SummaryResponse, error) {
	id, err := validServerID(serverID)
	if err != nil {
		return models.SummaryResponse{}, err
	}
	return s.resolver.Summarize(ctx, id)
}

// ClearCache drops every cached summary of the server's channels.
func (s *Service) ClearCache(ctx context.Context, serverID string) (models.ClearCacheResult, error) {
	id, err := validServerID(serverID)
	if err != nil {
		return models.ClearCacheResult{}, err
	}

	n, err := s.store.ClearSummaries(ctx, id)
	if err != nil {
		utils.Error("Service", "ClearCache", fmt.Sprintf("Failed to clear cache for server %s: %v", id, err))
		return models.ClearCacheResult{}, err
	}

	utils.Info("Service", "ClearCache", fmt.Sprintf("Cleared %d cached summaries for server %s", n, id))
	return models.ClearCacheResult{
		Status:  "success",
		Message: "Cache cleared successfully",
		Cleared: n,
	}, nil
}

// Channels lists the server's stored channels with their last sync time.
func (s *Service) Channels(ctx context.Context, serverID string) ([]models.ChannelInfo, error) {
	id, err := validServerID(serverID)
	if err != nil {
		return nil, err
	}
	return s.store.ChannelsForServer(ctx, id)
}

// Wait blocks until background syncs have finished.
func (s *Service) Wait() {
	s.orchestrator.Wait()
}
