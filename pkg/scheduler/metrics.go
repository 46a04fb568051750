// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "scheduler_ticks_total",
			Help:      "Scheduler ticks executed.",
		},
	)
	schedulingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "scheduler_errors_total",
			Help:      "Per-service scheduling errors.",
		},
		[]string{"service"},
	)
)

func init() {
	prometheus.MustRegister(ticksTotal)
	prometheus.MustRegister(schedulingErrorsTotal)
}

func IncTicks() {
	ticksTotal.Inc()
}

func IncSchedulingError(service string) {
	schedulingErrorsTotal.WithLabelValues(service).Inc()
}
