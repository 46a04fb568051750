// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
)

func newTestCluster(serviceId, fingerprint string, seen time.Time) *model.ExceptionCluster {
	buckets := model.NewHourBuckets()
	hour := seen.UTC().Unix() / 3600
	buckets.Touch(hour, hour)
	return &model.ExceptionCluster{
		Id:                uuid.NewString(),
		ServiceId:         serviceId,
		FingerprintStatic: fingerprint,
		ExceptionType:     "NullPointerException",
		ExceptionMessage:  "boom",
		ErrorCategory:     "NULL_ERROR",
		HasStackTrace:     true,
		Size:              1,
		Buckets:           buckets,
		BucketHour:        hour,
		FirstSeen:         seen,
		LastSeen:          seen,
		Status:            model.ClusterStatusActive,
	}
}

func TestFindOrCreateCluster(t *testing.T) {
	SetupTestDB(t)
	facade := NewClusterFacade()
	ctx := context.Background()
	seen := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	first := newTestCluster("web-api", "abcd1234abcd1234", seen)
	got, created, err := facade.FindOrCreateCluster(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.Id, got.Id)

	// Same key again: the insert is a no-op and the winner's row comes back.
	second := newTestCluster("web-api", "abcd1234abcd1234", seen.Add(time.Minute))
	got, created, err = facade.FindOrCreateCluster(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Id, got.Id)

	// Same fingerprint under another service is a distinct cluster.
	other := newTestCluster("batch-worker", "abcd1234abcd1234", seen)
	_, created, err = facade.FindOrCreateCluster(ctx, other)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestTouchCluster(t *testing.T) {
	SetupTestDB(t)
	facade := NewClusterFacade()
	ctx := context.Background()
	seen := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	cluster := newTestCluster("web-api", "feedfacefeedface", seen)
	_, _, err := facade.FindOrCreateCluster(ctx, cluster)
	require.NoError(t, err)

	require.NoError(t, facade.TouchCluster(ctx, cluster.Id, seen.Add(5*time.Minute)))
	require.NoError(t, facade.TouchCluster(ctx, cluster.Id, seen.Add(2*time.Hour)))

	got, err := facade.GetCluster(ctx, cluster.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Size)
	assert.True(t, got.LastSeen.Equal(seen.Add(2*time.Hour)))
	assert.Equal(t, seen.UTC().Unix()/3600+2, got.BucketHour)
	assert.Equal(t, int64(3), got.Buckets.Sum())
	assert.Equal(t, int64(3), got.Frequency24h(seen.Add(2*time.Hour)))

	// A late-arriving older record still counts but never regresses last_seen.
	require.NoError(t, facade.TouchCluster(ctx, cluster.Id, seen.Add(time.Minute)))
	got, err = facade.GetCluster(ctx, cluster.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Size)
	assert.True(t, got.LastSeen.Equal(seen.Add(2*time.Hour)))
}

func TestTouchClusterMissing(t *testing.T) {
	SetupTestDB(t)
	facade := NewClusterFacade()

	err := facade.TouchCluster(context.Background(), "no-such-id", time.Now())
	assert.Error(t, err)
}

func TestSetClusterStatus(t *testing.T) {
	SetupTestDB(t)
	facade := NewClusterFacade()
	ctx := context.Background()
	seen := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	cluster := newTestCluster("web-api", "0123456789abcdef", seen)
	_, _, err := facade.FindOrCreateCluster(ctx, cluster)
	require.NoError(t, err)

	require.NoError(t, facade.SetClusterStatus(ctx, cluster.Id, model.ClusterStatusResolved, "alice", seen.Add(time.Hour)))

	got, err := facade.GetCluster(ctx, cluster.Id)
	require.NoError(t, err)
	assert.Equal(t, model.ClusterStatusResolved, got.Status)
	assert.Equal(t, "alice", got.StatusUpdatedBy)
	require.NotNil(t, got.StatusUpdatedAt)

	// Re-applying the same status succeeds and only refreshes the audit trail.
	require.NoError(t, facade.SetClusterStatus(ctx, cluster.Id, model.ClusterStatusResolved, "bob", seen.Add(2*time.Hour)))
	got, err = facade.GetCluster(ctx, cluster.Id)
	require.NoError(t, err)
	assert.Equal(t, model.ClusterStatusResolved, got.Status)
	assert.Equal(t, "bob", got.StatusUpdatedBy)
}

func TestSetClusterStatusRejectsUnknown(t *testing.T) {
	SetupTestDB(t)
	facade := NewClusterFacade()

	err := facade.SetClusterStatus(context.Background(), "any", "archived", "alice", time.Now())
	require.Error(t, err)
	assert.Equal(t, errors.RequestParameterInvalid, errors.CodeOf(err))
}

func TestSetClusterStatusNotFound(t *testing.T) {
	SetupTestDB(t)
	facade := NewClusterFacade()

	err := facade.SetClusterStatus(context.Background(), "no-such-id", model.ClusterStatusSkipped, "alice", time.Now())
	require.Error(t, err)
	assert.Equal(t, errors.RequestDataNotExisted, errors.CodeOf(err))
}

func TestListClusters(t *testing.T) {
	SetupTestDB(t)
	facade := NewClusterFacade()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		cluster := newTestCluster("web-api", fmt.Sprintf("%016d", i), base.Add(time.Duration(i)*time.Hour))
		_, _, err := facade.FindOrCreateCluster(ctx, cluster)
		require.NoError(t, err)
	}
	other := newTestCluster("batch-worker", "ffffffffffffffff", base)
	_, _, err := facade.FindOrCreateCluster(ctx, other)
	require.NoError(t, err)

	serviceId := "web-api"
	clusters, total, err := facade.ListClusters(ctx, &ClusterFilter{ServiceId: &serviceId})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, clusters, 5)
	// Newest first.
	assert.Equal(t, "0000000000000004", clusters[0].FingerprintStatic)

	clusters, total, err = facade.ListClusters(ctx, &ClusterFilter{ServiceId: &serviceId, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, clusters, 2)
	assert.Equal(t, "0000000000000002", clusters[0].FingerprintStatic)

	since := base.Add(3 * time.Hour)
	clusters, _, err = facade.ListClusters(ctx, &ClusterFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, clusters, 2)
}

func TestCountClustersCreatedSince(t *testing.T) {
	SetupTestDB(t)
	facade := NewClusterFacade()
	ctx := context.Background()
	seen := time.Now().UTC()

	for i := 0; i < 3; i++ {
		cluster := newTestCluster("web-api", fmt.Sprintf("aaaa%012d", i), seen)
		_, _, err := facade.FindOrCreateCluster(ctx, cluster)
		require.NoError(t, err)
	}

	count, err := facade.CountClustersCreatedSince(ctx, "web-api", seen.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = facade.CountClustersCreatedSince(ctx, "web-api", seen.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMarkResolvedColdBefore(t *testing.T) {
	SetupTestDB(t)
	facade := NewClusterFacade()
	ctx := context.Background()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	cutoff := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	stale := newTestCluster("web-api", "1111111111111111", old)
	stale.Status = model.ClusterStatusResolved
	fresh := newTestCluster("web-api", "2222222222222222", recent)
	fresh.Status = model.ClusterStatusResolved
	active := newTestCluster("web-api", "3333333333333333", old)

	for _, c := range []*model.ExceptionCluster{stale, fresh, active} {
		_, _, err := facade.FindOrCreateCluster(ctx, c)
		require.NoError(t, err)
	}

	marked, err := facade.MarkResolvedColdBefore(ctx, "web-api", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	got, err := facade.GetCluster(ctx, stale.Id)
	require.NoError(t, err)
	assert.True(t, got.Cold)

	got, err = facade.GetCluster(ctx, active.Id)
	require.NoError(t, err)
	assert.False(t, got.Cold)
}
