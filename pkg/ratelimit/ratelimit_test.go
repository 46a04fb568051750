// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestAllowWithinBudget(t *testing.T) {
	l := NewLimiter(10000, 10000)
	l.SetClock(fixedClock(time.Unix(1000, 0)))

	accepted, rejected := l.Allow("web-api", 500)
	assert.Equal(t, 500, accepted)
	assert.Equal(t, 0, rejected)
	assert.Equal(t, 9500, l.Remaining("web-api"))
}

func TestAllowPartialAcceptance(t *testing.T) {
	l := NewLimiter(10000, 10000)
	l.SetClock(fixedClock(time.Unix(1000, 0)))

	// Drain the bucket to 500 tokens, refill not due.
	accepted, rejected := l.Allow("web-api", 9500)
	assert.Equal(t, 9500, accepted)
	assert.Equal(t, 0, rejected)

	accepted, rejected = l.Allow("web-api", 2000)
	assert.Equal(t, 500, accepted)
	assert.Equal(t, 1500, rejected)

	accepted, rejected = l.Allow("web-api", 10)
	assert.Equal(t, 0, accepted)
	assert.Equal(t, 10, rejected)
}

func TestBurstOverCapacity(t *testing.T) {
	l := NewLimiter(10000, 10000)
	l.SetClock(fixedClock(time.Unix(1000, 0)))

	accepted, rejected := l.Allow("web-api", 25000)
	assert.Equal(t, 10000, accepted)
	assert.Equal(t, 15000, rejected)
}

func TestRefill(t *testing.T) {
	now := time.Unix(1000, 0)
	current := &now
	var mu sync.Mutex
	l := NewLimiter(10000, 6000) // 100 tokens/second
	l.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return *current
	})

	accepted, _ := l.Allow("web-api", 10000)
	assert.Equal(t, 10000, accepted)

	mu.Lock()
	later := now.Add(10 * time.Second)
	current = &later
	mu.Unlock()

	accepted, rejected := l.Allow("web-api", 2000)
	assert.Equal(t, 1000, accepted)
	assert.Equal(t, 1000, rejected)
}

func TestRefillCapsAtCapacity(t *testing.T) {
	now := time.Unix(1000, 0)
	current := &now
	var mu sync.Mutex
	l := NewLimiter(100, 6000)
	l.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return *current
	})

	l.Allow("web-api", 50)
	mu.Lock()
	later := now.Add(time.Hour)
	current = &later
	mu.Unlock()

	assert.Equal(t, 100, l.Remaining("web-api"))
}

func TestServicesIsolated(t *testing.T) {
	l := NewLimiter(100, 100)
	l.SetClock(fixedClock(time.Unix(1000, 0)))

	accepted, _ := l.Allow("a", 100)
	assert.Equal(t, 100, accepted)

	accepted, rejected := l.Allow("b", 100)
	assert.Equal(t, 100, accepted)
	assert.Equal(t, 0, rejected)

	assert.ElementsMatch(t, []string{"a", "b"}, l.Services())
}

func TestConcurrentAllowConserves(t *testing.T) {
	l := NewLimiter(1000, 1000)
	l.SetClock(fixedClock(time.Unix(1000, 0)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	totalAccepted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accepted, _ := l.Allow("web-api", 100)
			mu.Lock()
			totalAccepted += accepted
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, totalAccepted)
}
