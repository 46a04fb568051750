// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
)

var fetchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: "loglens",
		Name:      "fetch_total",
		Help:      "Pull fetch cycles by source type and result.",
	},
	[]string{"type", "result"},
)

func init() {
	prometheus.MustRegister(fetchTotal)
}

func IncFetch(sourceType, result string) {
	fetchTotal.WithLabelValues(sourceType, result).Inc()
}
