// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package cluster

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	clustersCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "clusters_created_total",
			Help:      "Exception clusters created on first sight, by service.",
		},
		[]string{"service"},
	)
	clusterHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "loglens",
			Name:      "cluster_hits_total",
			Help:      "Exception records matched to an existing cluster, by service.",
		},
		[]string{"service"},
	)
)

func init() {
	prometheus.MustRegister(clustersCreatedTotal)
	prometheus.MustRegister(clusterHitsTotal)
}

func IncClustersCreated(service string) {
	clustersCreatedTotal.WithLabelValues(service).Inc()
}

func IncClusterHits(service string) {
	clusterHitsTotal.WithLabelValues(service).Inc()
}
