// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "worker_records_processed_total",
			Help:      "Records that completed the extract+cluster path, by service.",
		},
		[]string{"service"},
	)
	recordsDuplicateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "worker_records_duplicate_total",
			Help:      "Records suppressed by the dedup window inside the pool, by service.",
		},
		[]string{"service"},
	)
	recordsNonExceptionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "worker_records_non_exception_total",
			Help:      "Records below the error level set or without exception evidence, by service.",
		},
		[]string{"service"},
	)
	recordsDeadlineTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "worker_records_deadline_total",
			Help:      "Records dropped on the per-record deadline, by service.",
		},
		[]string{"service"},
	)
	storeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "worker_store_errors_total",
			Help:      "Records dropped after store retry exhaustion, by service.",
		},
		[]string{"service"},
	)
	recordsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "worker_records_dropped_total",
			Help:      "Records abandoned during shutdown.",
		},
	)
	batchesProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "worker_batches_processed_total",
			Help:      "Batches taken off the queue.",
		},
	)
	queueOverflowTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "worker_queue_overflow_total",
			Help:      "Enqueue attempts rejected on a full queue.",
		},
	)
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: "loglens",
			Name:      "worker_queue_depth",
			Help:      "Batches currently queued.",
		},
	)
)

func init() {
	prometheus.MustRegister(recordsProcessedTotal)
	prometheus.MustRegister(recordsDuplicateTotal)
	prometheus.MustRegister(recordsNonExceptionTotal)
	prometheus.MustRegister(recordsDeadlineTotal)
	prometheus.MustRegister(storeErrorsTotal)
	prometheus.MustRegister(recordsDroppedTotal)
	prometheus.MustRegister(batchesProcessedTotal)
	prometheus.MustRegister(queueOverflowTotal)
	prometheus.MustRegister(queueDepth)
}

func IncProcessed(service string) { recordsProcessedTotal.WithLabelValues(service).Inc() }

func IncDuplicates(service string) { recordsDuplicateTotal.WithLabelValues(service).Inc() }

func IncNonExceptions(service string) { recordsNonExceptionTotal.WithLabelValues(service).Inc() }

func IncDeadlineExceeded(service string) { recordsDeadlineTotal.WithLabelValues(service).Inc() }

func IncStoreErrors(service string) { storeErrorsTotal.WithLabelValues(service).Inc() }

func IncDropped(n int) { recordsDroppedTotal.Add(float64(n)) }

func IncBatchesProcessed() { batchesProcessedTotal.Inc() }

func IncOverflow() { queueOverflowTotal.Inc() }

func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }
