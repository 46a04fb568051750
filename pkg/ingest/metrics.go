// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordsReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "ingest_records_received_total",
			Help:      "Records received on the push endpoints.",
		},
	)
	recordsAcceptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "ingest_records_accepted_total",
			Help:      "Records accepted and enqueued.",
		},
	)
	recordsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "ingest_records_rejected_total",
			Help:      "Records rejected at ingest, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(recordsReceivedTotal)
	prometheus.MustRegister(recordsAcceptedTotal)
	prometheus.MustRegister(recordsRejectedTotal)
}

func IncReceived(n int) { recordsReceivedTotal.Add(float64(n)) }

func IncAccepted(n int) { recordsAcceptedTotal.Add(float64(n)) }

func IncRejected(reason string, n int) {
	recordsRejectedTotal.WithLabelValues(reason).Add(float64(n))
}
