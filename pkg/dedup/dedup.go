// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package dedup suppresses byte-identical records seen within a rolling
// window. Suppression is advisory: a false negative only inflates a cluster
// by one, while a false positive would drop a distinct event, so the content
// hash covers everything that distinguishes events.
package dedup

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/normalize"
)

type Deduper struct {
	cache      *gocache.Cache
	maxEntries int
}

func NewDeduper(window time.Duration, maxEntries int) *Deduper {
	return &Deduper{
		cache:      gocache.New(window, window/2),
		maxEntries: maxEntries,
	}
}

// ContentHash identifies a record inside the window: message, level, logger
// and the timestamp truncated to the second.
func ContentHash(record *logs.NormalizedLog) string {
	return normalize.Hash(fmt.Sprintf("%s|%s|%s|%d",
		record.Message, record.Level, record.Logger,
		record.Timestamp.UTC().Truncate(time.Second).Unix()))
}

// SeenRecently checks and marks the (service, hash) pair in one step. The
// first caller within the window gets false; subsequent callers get true.
func (d *Deduper) SeenRecently(serviceId, contentHash string) bool {
	if d.cache.ItemCount() >= d.maxEntries {
		d.cache.DeleteExpired()
		if d.cache.ItemCount() >= d.maxEntries {
			// Shedding the whole window only risks false negatives, which
			// the dedup contract allows.
			d.cache.Flush()
		}
	}
	err := d.cache.Add(serviceId+"|"+contentHash, struct{}{}, gocache.DefaultExpiration)
	return err != nil
}

// Prune drops expired entries; called by the scheduled cleanup job.
func (d *Deduper) Prune() {
	d.cache.DeleteExpired()
}

func (d *Deduper) Len() int {
	return d.cache.ItemCount()
}
