// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const BucketCount = 24

// HourBuckets is a ring of hourly hit counters covering the last 24 hours,
// stored as a JSON array of 24 integers. Slot i holds the count for unix
// hour h where h%24 == i; stale slots are zeroed lazily on Touch.
type HourBuckets []int64

func NewHourBuckets() HourBuckets {
	return make(HourBuckets, BucketCount)
}

func (b HourBuckets) Value() (driver.Value, error) {
	if b == nil {
		b = NewHourBuckets()
	}
	return json.Marshal(b)
}

func (b *HourBuckets) Scan(value interface{}) error {
	if value == nil {
		*b = NewHourBuckets()
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported bucket source: %T", value)
	}
	if err := json.Unmarshal(data, b); err != nil {
		return err
	}
	if len(*b) != BucketCount {
		fixed := NewHourBuckets()
		copy(fixed, *b)
		*b = fixed
	}
	return nil
}

// Touch advances the ring from lastHour to nowHour, zeroing slots whose
// hours fell out of the window, and adds one hit to the current slot.
// It returns the new last-updated hour.
func (b HourBuckets) Touch(lastHour, nowHour int64) int64 {
	if nowHour < lastHour {
		// Clock went backwards; count against the known-latest hour.
		nowHour = lastHour
	}
	elapsed := nowHour - lastHour
	if elapsed >= BucketCount {
		for i := range b {
			b[i] = 0
		}
	} else {
		for h := lastHour + 1; h <= nowHour; h++ {
			b[h%BucketCount] = 0
		}
	}
	b[nowHour%BucketCount]++
	return nowHour
}

// Sum returns the total hits across the ring. Valid when the ring was
// touched within the last 24 hours; callers expire older rings themselves.
func (b HourBuckets) Sum() int64 {
	var total int64
	for _, v := range b {
		total += v
	}
	return total
}

// SumSince returns the in-window total given the ring's last-updated hour
// and the current hour, discounting slots that expired without a touch.
func (b HourBuckets) SumSince(lastHour, nowHour int64) int64 {
	if nowHour-lastHour >= BucketCount {
		return 0
	}
	var total int64
	for i, v := range b {
		slotStale := false
		for h := lastHour + 1; h <= nowHour; h++ {
			if h%BucketCount == int64(i) {
				slotStale = true
				break
			}
		}
		if !slotStale {
			total += v
		}
	}
	return total
}
