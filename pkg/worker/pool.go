// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package worker runs the bounded processing pool: batches come off one FIFO
// queue, each record walks dedup -> extract -> cluster -> signal.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/cluster"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/config"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/dedup"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/extract"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/notify"
)

// Batch is one unit of queued work. Records are processed in order by a
// single worker; ordering across batches is not guaranteed.
type Batch struct {
	TaskId    string
	ServiceId string
	SourceId  string
	// Deduped marks batches whose producer already consumed the dedup
	// window (the push path); the pool dedups everything else.
	Deduped bool
	Records []*logs.NormalizedLog
}

type Pool struct {
	conf      *config.WorkerConfig
	deduper   *dedup.Deduper
	extractor *extract.Extractor
	clusterer *cluster.Clusterer
	notifier  notify.Notifier

	queue  chan *Batch
	mu     sync.RWMutex
	closed bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(conf *config.WorkerConfig, deduper *dedup.Deduper, extractor *extract.Extractor,
	clusterer *cluster.Clusterer, notifier notify.Notifier) *Pool {
	return &Pool{
		conf:      conf,
		deduper:   deduper,
		extractor: extractor,
		clusterer: clusterer,
		notifier:  notifier,
		queue:     make(chan *Batch, conf.GetQueueCapacity()),
	}
}

func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	for i := 0; i < p.conf.GetPoolSize(); i++ {
		p.wg.Add(1)
		go p.run(runCtx, i)
	}
	log.Infof("worker pool started: %d workers, queue capacity %d",
		p.conf.GetPoolSize(), p.conf.GetQueueCapacity())
}

// Enqueue adds a batch, giving up after the enqueue timeout so producers
// surface an overflow error instead of blocking on a full queue.
func (p *Pool) Enqueue(ctx context.Context, batch *Batch) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.NewError().WithCode(errors.QueueOverflow).WithMessage("worker pool shut down")
	}

	timer := time.NewTimer(p.conf.GetEnqueueTimeout())
	defer timer.Stop()
	select {
	case p.queue <- batch:
		SetQueueDepth(len(p.queue))
		return nil
	case <-timer.C:
		IncOverflow()
		return errors.NewError().WithCode(errors.QueueOverflow).
			WithMessagef("queue full, batch of %d records rejected", len(batch.Records))
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// Shutdown stops intake, drains the queue for the grace period and abandons
// whatever is left.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("worker pool drained")
	case <-time.After(p.conf.GetShutdownGrace()):
		dropped := len(p.queue)
		log.Warnf("worker pool shutdown grace expired, abandoning %d queued batches", dropped)
		if p.cancel != nil {
			p.cancel()
		}
		<-done
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for batch := range p.queue {
		SetQueueDepth(len(p.queue))
		if ctx.Err() != nil {
			IncDropped(len(batch.Records))
			continue
		}
		p.processBatch(ctx, batch)
		IncBatchesProcessed()
	}
}

func (p *Pool) processBatch(ctx context.Context, batch *Batch) {
	for _, record := range batch.Records {
		if ctx.Err() != nil {
			IncDropped(1)
			continue
		}
		p.processRecord(ctx, batch, record)
	}
}

func (p *Pool) processRecord(ctx context.Context, batch *Batch, record *logs.NormalizedLog) {
	if !batch.Deduped {
		if p.deduper.SeenRecently(record.ServiceId, dedup.ContentHash(record)) {
			IncDuplicates(record.ServiceId)
			return
		}
	}

	exc, ok := p.extractor.Extract(record)
	if !ok {
		IncNonExceptions(record.ServiceId)
		return
	}

	recordCtx, cancel := context.WithTimeout(ctx, p.conf.GetRecordDeadline())
	outcome, err := p.clusterer.Assign(recordCtx, record, exc)
	cancel()
	if err != nil {
		if recordCtx.Err() != nil {
			IncDeadlineExceeded(record.ServiceId)
			log.Warnf("record for service %s dropped: deadline exceeded", record.ServiceId)
		} else {
			IncStoreErrors(record.ServiceId)
			log.GlobalLogger().WithContext(ctx).Errorf(
				"cluster assignment for service %s failed: %v", record.ServiceId, err)
		}
		return
	}

	IncProcessed(record.ServiceId)
	p.emitSignal(record, exc, outcome)
}

// emitSignal fires the downstream cluster signal without holding up the
// worker; the notifier enforces its own timeout.
func (p *Pool) emitSignal(record *logs.NormalizedLog, exc *logs.ExceptionRecord, outcome *cluster.Outcome) {
	event := notify.EventClusterHit
	if outcome.Created {
		event = notify.EventClusterCreated
	}
	signal := &notify.Signal{
		Event:             event,
		ServiceId:         record.ServiceId,
		ClusterId:         outcome.ClusterId,
		FingerprintStatic: exc.Fingerprints.Static,
		ExceptionType:     exc.ExceptionType,
		ErrorCategory:     exc.ErrorCategory,
	}
	go p.notifier.Notify(context.Background(), signal)
}
