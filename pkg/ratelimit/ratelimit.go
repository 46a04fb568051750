// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package ratelimit implements per-service token buckets with partial
// acceptance: a batch that overruns the bucket is split into accepted and
// rejected counts rather than shed whole.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens   float64
	lastFill time.Time
}

type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	capacity  float64
	perSecond float64
	now       func() time.Time
}

// NewLimiter builds a limiter where each service refills at refillPerMin
// tokens per minute up to capacity. New services start with a full bucket.
func NewLimiter(capacity, refillPerMin int) *Limiter {
	return &Limiter{
		buckets:   make(map[string]*bucket),
		capacity:  float64(capacity),
		perSecond: float64(refillPerMin) / 60.0,
		now:       time.Now,
	}
}

// SetClock overrides the time source; used by tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

// Allow takes up to n tokens for the service and returns how many were
// granted and how many were refused. Partial grants are normal near
// exhaustion.
func (l *Limiter) Allow(serviceId string, n int) (accepted, rejected int) {
	if n <= 0 {
		return 0, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refillLocked(serviceId)
	available := int(b.tokens)
	if available >= n {
		b.tokens -= float64(n)
		return n, 0
	}
	b.tokens -= float64(available)
	return available, n - available
}

// Remaining reports the current token count for the service.
func (l *Limiter) Remaining(serviceId string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.refillLocked(serviceId).tokens)
}

func (l *Limiter) refillLocked(serviceId string) *bucket {
	now := l.now()
	b, ok := l.buckets[serviceId]
	if !ok {
		b = &bucket{tokens: l.capacity, lastFill: now}
		l.buckets[serviceId] = b
		return b
	}
	elapsed := now.Sub(b.lastFill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.perSecond
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.lastFill = now
	}
	return b
}

// Services returns the ids with live buckets, for metrics export.
func (l *Limiter) Services() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.buckets))
	for id := range l.buckets {
		ids = append(ids, id)
	}
	return ids
}
