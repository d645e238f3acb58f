package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCacheMetricsRatio(t *testing.T) {
	require.Equal(t, CacheMetrics{}, NewCacheMetrics(0, 0))

	rapid.Check(t, func(t *rapid.T) {
		hits := rapid.IntRange(0, 1000).Draw(t, "hits")
		misses := rapid.IntRange(0, 1000).Draw(t, "misses")

		m := NewCacheMetrics(hits, misses)
		require.GreaterOrEqual(t, m.HitRatio, 0.0)
		require.LessOrEqual(t, m.HitRatio, 1.0)
		if hits+misses > 0 {
			require.InDelta(t, float64(hits)/float64(hits+misses), m.HitRatio, 1e-12)
		}
	})
}

func TestSyncJobStateClone(t *testing.T) {
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := SyncJobState{ServerID: "s", Errors: []string{"a"}, EndTime: &end}

	c := orig.Clone()
	c.Errors[0] = "changed"
	*c.EndTime = end.Add(time.Hour)

	require.Equal(t, "a", orig.Errors[0])
	require.Equal(t, end, *orig.EndTime)

	require.NotNil(t, SyncJobState{}.Clone().Errors)
}

func TestSyncStateTerminal(t *testing.T) {
	require.False(t, SyncInProgress.Terminal())
	require.True(t, SyncCompleted.Terminal())
	require.True(t, SyncFailed.Terminal())
}

func TestErrorClassification(t *testing.T) {
	pd := fmt.Errorf("sync: %w", &PermissionDeniedError{Resource: "channel ID: 1"})
	require.True(t, IsPermissionDenied(pd))
	require.False(t, IsStorageError(pd))

	se := fmt.Errorf("op: %w", &StorageError{Op: "write", Err: errors.New("disk full")})
	require.True(t, IsStorageError(se))
	require.ErrorContains(t, se, "disk full")
}
