// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package scheduler drives the periodic work: per-source fetches, cleanup
// and the conditional code-indexing trigger. One tick enumerates active
// services; jobs run asynchronously and a failure for one service never
// blocks the others.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/config"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/database"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/dedup"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/fetcher"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/indexing"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
)

type Scheduler struct {
	conf     *config.SchedulerConfig
	facade   *database.Facade
	fetcher  *fetcher.Fetcher
	deduper  *dedup.Deduper
	indexing indexing.Client

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running map[string]bool

	now func() time.Time
}

func NewScheduler(conf *config.SchedulerConfig, facade *database.Facade,
	f *fetcher.Fetcher, deduper *dedup.Deduper, indexingClient indexing.Client) *Scheduler {
	return &Scheduler{
		conf:     conf,
		facade:   facade,
		fetcher:  f,
		deduper:  deduper,
		indexing: indexingClient,
		running:  make(map[string]bool),
		now:      time.Now,
	}
}

// SetClock overrides the time source; used by tests.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.conf.GetTick())
		defer ticker.Stop()
		log.Infof("scheduler started, tick %s", s.conf.GetTick())
		for {
			select {
			case <-runCtx.Done():
				log.Info("scheduler stopped")
				return
			case <-ticker.C:
				s.runTick(runCtx)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) runTick(ctx context.Context) {
	IncTicks()
	services, err := s.facade.Service.ListActiveServices(ctx)
	if err != nil {
		log.Errorf("scheduler: list active services failed: %v", err)
		return
	}
	for _, service := range services {
		if ctx.Err() != nil {
			return
		}
		if err := s.scheduleService(ctx, service); err != nil {
			IncSchedulingError(service.Id)
			log.Errorf("scheduler: service %s: %v", service.Id, err)
		}
	}
}

func (s *Scheduler) scheduleService(ctx context.Context, service *model.Service) error {
	now := s.now().UTC()

	if s.fetchDue(service, now) {
		sources, err := s.facade.LogSource.ListEnabledSources(ctx, service.Id)
		if err != nil {
			return err
		}
		for _, source := range sources {
			s.fireFetch(ctx, service, source)
		}
	}

	if s.cleanupDue(service, now) {
		s.fireCleanup(ctx, service, now)
	}

	if s.indexing != nil {
		if err := s.maybeTriggerIndexing(ctx, service, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) fetchDue(service *model.Service, now time.Time) bool {
	if !service.LogProcessingEnabled {
		return false
	}
	if service.LastLogFetch == nil {
		return true
	}
	return now.Sub(*service.LastLogFetch) >= service.LogFetchInterval()
}

func (s *Scheduler) cleanupDue(service *model.Service, now time.Time) bool {
	if service.LastCleanupAt == nil {
		return true
	}
	return now.Sub(*service.LastCleanupAt) >= service.CleanupInterval()
}

// fireFetch runs the fetch asynchronously, at most one in flight per source.
func (s *Scheduler) fireFetch(ctx context.Context, service *model.Service, source *model.LogSource) {
	key := "fetch/" + source.Id
	if !s.claim(key) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(key)
		if err := s.fetcher.FetchSource(ctx, service, source); err != nil {
			IncSchedulingError(service.Id)
		}
	}()
}

func (s *Scheduler) fireCleanup(ctx context.Context, service *model.Service, now time.Time) {
	key := "cleanup/" + service.Id
	if !s.claim(key) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(key)
		s.deduper.Prune()
		cutoff := now.Add(-s.conf.GetColdAfterResolved())
		marked, err := s.facade.Cluster.MarkResolvedColdBefore(ctx, service.Id, cutoff)
		if err != nil {
			IncSchedulingError(service.Id)
			log.Errorf("cleanup for service %s failed: %v", service.Id, err)
			return
		}
		if marked > 0 {
			log.Infof("cleanup for service %s: %d resolved clusters marked cold", service.Id, marked)
		}
		if err := s.facade.Service.AdvanceLastCleanup(ctx, service.Id, now); err != nil {
			IncSchedulingError(service.Id)
			log.Errorf("advance cleanup timestamp for service %s failed: %v", service.Id, err)
		}
	}()
}

// maybeTriggerIndexing fires the exception-driven indexing job when all four
// gates pass: new clusters since the last indexing, the minimum interval
// elapsed, nothing in flight, and the collaborator reports a changed commit.
func (s *Scheduler) maybeTriggerIndexing(ctx context.Context, service *model.Service, now time.Time) error {
	if service.LastIndexedAt != nil &&
		now.Sub(*service.LastIndexedAt) < s.conf.GetCodeIndexingMinInterval() {
		return nil
	}

	since := time.Time{}
	if service.LastIndexedAt != nil {
		since = *service.LastIndexedAt
	}
	newClusters, err := s.facade.Cluster.CountClustersCreatedSince(ctx, service.Id, since)
	if err != nil {
		return err
	}
	if newClusters == 0 {
		return nil
	}

	inFlight, err := s.facade.Indexing.HasRunningRun(ctx, service.Id)
	if err != nil {
		return err
	}
	if inFlight {
		return nil
	}

	commit, err := s.indexing.CurrentCommit(ctx, service.Id)
	if err != nil {
		return err
	}
	if commit == "" || commit == service.LastIndexedCommit {
		return nil
	}

	run := &model.IndexingRun{
		ServiceId:  service.Id,
		CommitHash: commit,
		Reason:     indexing.ReasonExceptionDetected,
		Status:     model.IndexingStatusRunning,
	}
	if err := s.facade.Indexing.CreateRun(ctx, run); err != nil {
		return err
	}
	log.Infof("indexing triggered for service %s (commit %s, %d new clusters)",
		service.Id, commit, newClusters)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runIndexing(ctx, service.Id, commit, run.Id)
	}()
	return nil
}

func (s *Scheduler) runIndexing(ctx context.Context, serviceId, commit string, runId uint) {
	now := s.now().UTC()
	if err := s.indexing.TriggerIndexing(ctx, serviceId, commit, indexing.ReasonExceptionDetected); err != nil {
		log.Errorf("indexing for service %s failed: %v", serviceId, err)
		if finishErr := s.facade.Indexing.FinishRun(ctx, runId, model.IndexingStatusFailed, err.Error(), now); finishErr != nil {
			log.Errorf("record indexing failure for service %s failed: %v", serviceId, finishErr)
		}
		return
	}
	if err := s.facade.Indexing.FinishRun(ctx, runId, model.IndexingStatusSucceeded, "", now); err != nil {
		log.Errorf("record indexing success for service %s failed: %v", serviceId, err)
	}
	if err := s.facade.Service.UpdateIndexedCommit(ctx, serviceId, commit, now); err != nil {
		log.Errorf("update indexed commit for service %s failed: %v", serviceId, err)
	}
}

func (s *Scheduler) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[key] {
		return false
	}
	s.running[key] = true
	return true
}

func (s *Scheduler) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, key)
}
