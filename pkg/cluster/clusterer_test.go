// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package cluster

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/database"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/extract"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
)

func testFacade(t *testing.T) *database.Facade {
	database.SetupTestDB(t)
	return &database.Facade{
		Service:   database.NewServiceFacade(),
		LogSource: database.NewLogSourceFacade(),
		Cluster:   database.NewClusterFacade(),
		Indexing:  database.NewIndexingFacade(),
	}
}

func javaRecord(logId string, ts time.Time) (*logs.NormalizedLog, *logs.ExceptionRecord) {
	record := &logs.NormalizedLog{
		LogId:     logId,
		ServiceId: "web-api",
		Timestamp: ts,
		Level:     logs.LevelError,
		Logger:    "com.x.UserService",
		Message:   "NullPointerException while loading user",
		StackTrace: "java.lang.NullPointerException\n" +
			"\tat com.x.UserService.getUser(UserService.java:45)\n" +
			"\tat com.x.Handler.handle(Handler.java:12)",
	}
	extractor := extract.NewExtractor(nil)
	exc, ok := extractor.Extract(record)
	if !ok {
		panic("extraction failed for test record")
	}
	return record, exc
}

func TestAssignCreatesThenJoins(t *testing.T) {
	facade := testFacade(t)
	clusterer := NewClusterer(facade)
	ctx := context.Background()
	ts := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	record, exc := javaRecord("log-1", ts)
	first, err := clusterer.Assign(ctx, record, exc)
	require.NoError(t, err)
	assert.True(t, first.Created)

	// A later record with the same stack shape joins the existing cluster.
	record2, exc2 := javaRecord("log-2", ts.Add(10*time.Minute))
	record2.Message = "NullPointerException while loading another user"
	second, err := clusterer.Assign(ctx, record2, exc2)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ClusterId, second.ClusterId)

	got, err := facade.Cluster.GetCluster(ctx, first.ClusterId)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Size)
	assert.True(t, got.FirstSeen.Equal(ts))
	assert.True(t, got.LastSeen.Equal(ts.Add(10*time.Minute)))

	// The representative stays pinned to the first record.
	assert.Equal(t, "log-1", got.Representative["log_id"])
}

func TestAssignKeepsDistinctKeysApart(t *testing.T) {
	facade := testFacade(t)
	clusterer := NewClusterer(facade)
	ctx := context.Background()
	ts := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	record, exc := javaRecord("log-1", ts)
	first, err := clusterer.Assign(ctx, record, exc)
	require.NoError(t, err)

	record2 := &logs.NormalizedLog{
		LogId:     "log-2",
		ServiceId: "web-api",
		Timestamp: ts,
		Level:     logs.LevelError,
		Logger:    "db.pool",
		Message:   "Connection failed to 10.0.0.1:5432 at 2025-01-01T00:00:00Z",
	}
	exc2, ok := extract.NewExtractor(nil).Extract(record2)
	require.True(t, ok)
	second, err := clusterer.Assign(ctx, record2, exc2)
	require.NoError(t, err)

	assert.True(t, second.Created)
	assert.NotEqual(t, first.ClusterId, second.ClusterId)
}

func TestAssignConcurrentFirstSight(t *testing.T) {
	facade := testFacade(t)
	clusterer := NewClusterer(facade)
	ts := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	const workers = 8
	outcomes := make([]*Outcome, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, exc := javaRecord("log-concurrent", ts.Add(time.Duration(i)*time.Second))
			outcomes[i], errs[i] = clusterer.Assign(context.Background(), record, exc)
		}(i)
	}
	wg.Wait()

	createdCount := 0
	clusterId := ""
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		if outcomes[i].Created {
			createdCount++
		}
		if clusterId == "" {
			clusterId = outcomes[i].ClusterId
		}
		assert.Equal(t, clusterId, outcomes[i].ClusterId)
	}
	assert.Equal(t, 1, createdCount)

	got, err := facade.Cluster.GetCluster(context.Background(), clusterId)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), got.Size)
}
