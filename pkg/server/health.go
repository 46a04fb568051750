// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
)

// InitHealthServer runs the sidecar listener carrying liveness, readiness
// and the prometheus scrape endpoint, kept off the main API port.
func InitHealthServer(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Infof("health server listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("health server exited: %v", err)
		}
	}()
}
