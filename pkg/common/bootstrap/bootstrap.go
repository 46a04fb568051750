// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package bootstrap

import (
	"context"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/cluster"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/clusterapi"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/config"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/database"
	dbmodel "github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/dedup"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/extract"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/fetcher"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/indexing"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/ingest"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/notify"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/ratelimit"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/router"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/scheduler"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/server"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/sql"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/worker"
)

func Bootstrap(ctx context.Context) error {
	return server.InitServerWithPreInitFunc(ctx, func(ctx context.Context, cfg *config.Config) error {
		if err := sql.InitGormDB(sql.DefaultDBKey, &cfg.Store); err != nil {
			return err
		}
		if err := sql.GetDefaultDB().AutoMigrate(
			&dbmodel.Service{},
			&dbmodel.LogSource{},
			&dbmodel.ExceptionCluster{},
			&dbmodel.IndexingRun{},
		); err != nil {
			return err
		}

		facade := database.GetFacade()
		deduper := dedup.NewDeduper(cfg.Ingest.GetDedupWindow(), cfg.Ingest.GetDedupMaxEntries())
		limiter := ratelimit.NewLimiter(cfg.Ingest.GetRateLimitPerMin(), cfg.Ingest.GetRateLimitPerMin())
		extractor := extract.NewExtractor(cfg.Extract.GetVendorPrefixes())
		clusterer := cluster.NewClusterer(facade)
		notifier := notify.NewNotifier(&cfg.Notification)

		pool := worker.NewPool(&cfg.Worker, deduper, extractor, clusterer, notifier)
		pool.Start(ctx)

		f := fetcher.NewFetcher(facade, pool)
		indexingClient := indexing.NewClient(&cfg.Indexing)
		sched := scheduler.NewScheduler(&cfg.Scheduler, facade, f, deduper, indexingClient)
		sched.Start(ctx)

		// Drain on shutdown: stop scheduling first, then let the pool
		// finish what it can inside the grace period.
		go func() {
			<-ctx.Done()
			log.Info("shutdown signal received, draining")
			sched.Stop()
			pool.Shutdown()
		}()

		ingestHandler := ingest.NewHandler(&cfg.Ingest, facade, limiter, deduper, pool)
		clusterHandler := clusterapi.NewHandler(facade)
		router.RegisterGroup(ingestHandler.RegisterRoutes)
		router.RegisterGroup(clusterHandler.RegisterRoutes)
		return nil
	})
}
