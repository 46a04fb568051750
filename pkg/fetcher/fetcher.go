// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package fetcher pulls logs from external stores on a per-source schedule
// and feeds them into the worker pool as if they were pushed.
package fetcher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/database"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/worker"
)

const lookbackLimit = 24 * time.Hour

type Window struct {
	From time.Time
	To   time.Time
}

// Adapter retrieves records from one source type for a time window.
type Adapter interface {
	Fetch(ctx context.Context, source *model.LogSource, window Window) ([]*logs.LogRecord, error)
}

type Fetcher struct {
	facade   *database.Facade
	pool     *worker.Pool
	adapters map[string]Adapter
	now      func() time.Time
}

func NewFetcher(facade *database.Facade, pool *worker.Pool) *Fetcher {
	opensearch := &OpensearchAdapter{}
	return &Fetcher{
		facade: facade,
		pool:   pool,
		adapters: map[string]Adapter{
			model.SourceTypeOpensearch:    opensearch,
			model.SourceTypeElasticsearch: opensearch,
			model.SourceTypeFile:          &FileAdapter{},
			model.SourceTypeCloudwatch:    &CloudwatchAdapter{},
		},
		now: time.Now,
	}
}

// RegisterAdapter overrides the adapter for a source type; used by tests.
func (f *Fetcher) RegisterAdapter(sourceType string, adapter Adapter) {
	f.adapters[sourceType] = adapter
}

// SetClock overrides the time source; used by tests.
func (f *Fetcher) SetClock(now func() time.Time) {
	f.now = now
}

// FetchSource runs one fetch cycle for a source. The cursor only advances on
// full success, so a failed window is re-read next run and the dedup window
// absorbs the overlap.
func (f *Fetcher) FetchSource(ctx context.Context, service *model.Service, source *model.LogSource) error {
	if !service.LogProcessingEnabled {
		log.Infof("skipping fetch for source %s: service %s has log processing disabled",
			source.Id, service.Id)
		return nil
	}
	if !source.FetchEnabled {
		return nil
	}
	if source.Type == model.SourceTypeHTTPPush {
		return nil
	}

	adapter, ok := f.adapters[source.Type]
	if !ok {
		err := errors.NewError().
			WithCode(errors.RequestParameterInvalid).
			WithMessagef("no adapter for source type %q", source.Type)
		f.fail(ctx, source, err)
		return err
	}

	now := f.now().UTC()
	window := Window{From: now.Add(-lookbackLimit), To: now}
	if source.LastFetchAt != nil && source.LastFetchAt.After(window.From) {
		window.From = *source.LastFetchAt
	}

	records, err := adapter.Fetch(ctx, source, window)
	if err != nil {
		f.fail(ctx, source, err)
		return err
	}

	if len(records) > 0 {
		batch := &worker.Batch{
			TaskId:    uuid.NewString(),
			ServiceId: service.Id,
			SourceId:  source.Id,
			Records:   f.normalize(service.Id, source.Id, records),
		}
		if err := f.pool.Enqueue(ctx, batch); err != nil {
			f.fail(ctx, source, err)
			return err
		}
	}

	IncFetch(source.Type, "success")
	if err := f.facade.LogSource.AdvanceSourceFetchedAt(ctx, source.Id, window.To); err != nil {
		return err
	}
	if err := f.facade.Service.AdvanceLastLogFetch(ctx, service.Id, window.To); err != nil {
		return err
	}
	log.Debugf("fetched %d records from source %s (%s) window [%s, %s]",
		len(records), source.Id, source.Type,
		window.From.Format(time.RFC3339), window.To.Format(time.RFC3339))
	return nil
}

func (f *Fetcher) fail(ctx context.Context, source *model.LogSource, err error) {
	IncFetch(source.Type, "failure")
	log.GlobalLogger().WithContext(ctx).Errorf("fetch source %s (%s) failed: %v",
		source.Id, source.Type, err)
	if markErr := f.facade.LogSource.MarkSourceError(ctx, source.Id, err.Error()); markErr != nil {
		log.Errorf("mark source %s failed: %v", source.Id, markErr)
	}
}

func (f *Fetcher) normalize(serviceId, sourceId string, records []*logs.LogRecord) []*logs.NormalizedLog {
	out := make([]*logs.NormalizedLog, 0, len(records))
	for _, record := range records {
		out = append(out, &logs.NormalizedLog{
			LogId:            uuid.NewString(),
			ServiceId:        serviceId,
			SourceId:         sourceId,
			Timestamp:        record.Timestamp.UTC(),
			Level:            record.Level,
			Logger:           record.Logger,
			Message:          record.Message,
			ExceptionType:    record.ExceptionType,
			ExceptionMessage: record.ExceptionMessage,
			StackTrace:       record.StackTrace,
			Hostname:         record.Hostname,
			TraceId:          record.TraceId,
			RequestId:        record.RequestId,
			Attributes:       record.Attributes,
		})
	}
	return out
}
