// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package cluster assigns exception records to clusters: find-or-create on
// the (service_id, fingerprint_static) key, counter maintenance, status
// transitions.
package cluster

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/database"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
)

const (
	storeRetryAttempts = 3
	storeRetryBase     = 100 * time.Millisecond
)

type Outcome struct {
	ClusterId string
	Created   bool
}

type Clusterer struct {
	facade *database.Facade
}

func NewClusterer(facade *database.Facade) *Clusterer {
	return &Clusterer{facade: facade}
}

// Assign routes one exception record to its cluster, creating the cluster on
// first sight. Concurrent first-sight events for the same key resolve to one
// cluster through the store's unique constraint; the loser joins the
// winner's cluster as a hit.
func (c *Clusterer) Assign(ctx context.Context, record *logs.NormalizedLog, exc *logs.ExceptionRecord) (*Outcome, error) {
	var outcome *Outcome
	err := c.withRetry(ctx, func() error {
		var err error
		outcome, err = c.assignOnce(ctx, record, exc)
		return err
	})
	if err != nil {
		return nil, err
	}
	if outcome.Created {
		IncClustersCreated(record.ServiceId)
	} else {
		IncClusterHits(record.ServiceId)
	}
	return outcome, nil
}

func (c *Clusterer) assignOnce(ctx context.Context, record *logs.NormalizedLog, exc *logs.ExceptionRecord) (*Outcome, error) {
	now := record.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	existing, err := c.facade.Cluster.GetClusterByKey(ctx, record.ServiceId, exc.Fingerprints.Static)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := c.facade.Cluster.TouchCluster(ctx, existing.Id, now); err != nil {
			return nil, err
		}
		return &Outcome{ClusterId: existing.Id}, nil
	}

	candidate := c.buildCluster(record, exc, now)
	created, wasNew, err := c.facade.Cluster.FindOrCreateCluster(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if !wasNew {
		// Lost the first-sight race; count the hit against the winner.
		if err := c.facade.Cluster.TouchCluster(ctx, created.Id, now); err != nil {
			return nil, err
		}
	}
	return &Outcome{ClusterId: created.Id, Created: wasNew}, nil
}

// buildCluster materializes a new cluster with the record as representative.
// The representative snapshot is written here and never afterwards.
func (c *Clusterer) buildCluster(record *logs.NormalizedLog, exc *logs.ExceptionRecord, now time.Time) *model.ExceptionCluster {
	buckets := model.NewHourBuckets()
	nowHour := now.UTC().Unix() / 3600
	buckets[nowHour%model.BucketCount] = 1

	representative := model.ExtType{
		"log_id":            record.LogId,
		"exception_type":    exc.ExceptionType,
		"exception_message": exc.ExceptionMessage,
		"logger":            exc.Logger,
		"frames":            exc.Frames,
		"message":           record.Message,
		"hostname":          record.Hostname,
	}
	if len(exc.Frames) > 0 {
		representative["top_frame"] = exc.Frames[0]
	}

	return &model.ExceptionCluster{
		Id:                  uuid.NewString(),
		ServiceId:           record.ServiceId,
		LogSourceId:         record.SourceId,
		FingerprintStatic:   exc.Fingerprints.Static,
		FingerprintExact:    exc.Fingerprints.Exact,
		FingerprintTemplate: exc.Fingerprints.Template,
		FingerprintSemantic: exc.Fingerprints.Semantic,
		FingerprintCategory: exc.Fingerprints.Category,
		ExceptionType:       exc.ExceptionType,
		ExceptionMessage:    exc.ExceptionMessage,
		Logger:              exc.Logger,
		ErrorCategory:       exc.ErrorCategory,
		HasStackTrace:       exc.HasStackTrace,
		Representative:      representative,
		Size:                1,
		Buckets:             buckets,
		BucketHour:          nowHour,
		FirstSeen:           now,
		LastSeen:            now,
		Status:              model.ClusterStatusActive,
	}
}

// withRetry runs op up to storeRetryAttempts times with exponential backoff.
// Exhaustion leaves counters unchanged; the caller drops the record and
// counts the error.
func (c *Clusterer) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < storeRetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := storeRetryBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			log.Warnf("cluster store retry %d after error: %v", attempt, err)
		}
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}
