// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package ingest implements the authenticated push endpoints: validate,
// rate-limit, dedup and enqueue. Once a caller is authenticated the response
// is always the batch summary; rejections are per record, per reason.
package ingest

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/config"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/database"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/dedup"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/rest"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/ratelimit"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/worker"
)

// Rejection reasons surfaced in the batch summary.
const (
	ReasonMissingFields      = "missing_fields"
	ReasonOversize           = "oversize"
	ReasonUnknownService     = "unknown_service"
	ReasonProcessingDisabled = "processing_disabled"
	ReasonRate               = "rate"
	ReasonDuplicate          = "duplicate"
	ReasonOverflow           = "overflow"
)

const (
	maxMessageBytes    = 50 * 1024
	maxStackTraceBytes = 100 * 1024
)

type BatchRequest struct {
	Logs []*logs.LogRecord `json:"logs"`
}

type BatchSummary struct {
	ReceivedCount int            `json:"received_count"`
	AcceptedCount int            `json:"accepted_count"`
	RejectedCount map[string]int `json:"rejected_count"`
	TaskId        string         `json:"task_id"`
}

type Handler struct {
	conf    *config.IngestConfig
	facade  *database.Facade
	limiter *ratelimit.Limiter
	deduper *dedup.Deduper
	pool    *worker.Pool

	statsMu sync.Mutex
	stats   struct {
		Accepted int64
		Rejected map[string]int64
	}
}

func NewHandler(conf *config.IngestConfig, facade *database.Facade,
	limiter *ratelimit.Limiter, deduper *dedup.Deduper, pool *worker.Pool) *Handler {
	h := &Handler{
		conf:    conf,
		facade:  facade,
		limiter: limiter,
		deduper: deduper,
		pool:    pool,
	}
	h.stats.Rejected = make(map[string]int64)
	return h
}

func (h *Handler) RegisterRoutes(group *gin.RouterGroup) error {
	g := group.Group("/ingest")
	g.GET("/health", h.Health)
	g.GET("/metrics", h.Metrics)

	authed := g.Group("")
	authed.Use(BearerAuth(h.conf.Token))
	authed.POST("/logs", h.IngestBatch)
	authed.POST("/logs/single", h.IngestSingle)
	return nil
}

func (h *Handler) IngestBatch(c *gin.Context) {
	req := &BatchRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(errors.NewError().
			WithCode(errors.RequestParameterInvalid).
			WithMessage("malformed batch body").
			WithError(err))
		return
	}
	if len(req.Logs) > h.conf.GetBatchLimit() {
		c.Error(errors.NewError().
			WithCode(errors.RequestTooLarge).
			WithMessagef("batch of %d exceeds limit %d", len(req.Logs), h.conf.GetBatchLimit()))
		return
	}
	summary := h.process(c, req.Logs)
	c.JSON(200, rest.SuccessResp(c, summary))
}

func (h *Handler) IngestSingle(c *gin.Context) {
	record := &logs.LogRecord{}
	if err := c.ShouldBindJSON(record); err != nil {
		c.Error(errors.NewError().
			WithCode(errors.RequestParameterInvalid).
			WithMessage("malformed log record").
			WithError(err))
		return
	}
	summary := h.process(c, []*logs.LogRecord{record})
	c.JSON(200, rest.SuccessResp(c, summary))
}

// process validates records in submission order: shape, size caps, service
// gate, rate limit, dedup. Survivors ship as one batch so a single worker
// preserves their order.
func (h *Handler) process(c *gin.Context, records []*logs.LogRecord) *BatchSummary {
	summary := &BatchSummary{
		ReceivedCount: len(records),
		RejectedCount: make(map[string]int),
		TaskId:        uuid.NewString(),
	}
	IncReceived(len(records))

	// Service lookups and rate grants are cached per batch.
	serviceState := make(map[string]string)
	rateGranted := make(map[string]int)
	ratePending := make(map[string]int)

	for _, record := range records {
		if reason := h.validateShape(record); reason != "" {
			h.reject(summary, reason, 1)
			continue
		}
		state, ok := serviceState[record.ServiceId]
		if !ok {
			state = h.serviceGate(c, record.ServiceId)
			serviceState[record.ServiceId] = state
		}
		if state != "" {
			h.reject(summary, state, 1)
			continue
		}
		ratePending[record.ServiceId]++
	}

	for serviceId, n := range ratePending {
		accepted, _ := h.limiter.Allow(serviceId, n)
		rateGranted[serviceId] = accepted
	}

	var accepted []*logs.NormalizedLog
	for _, record := range records {
		if h.validateShape(record) != "" || serviceState[record.ServiceId] != "" {
			continue
		}
		if rateGranted[record.ServiceId] <= 0 {
			h.reject(summary, ReasonRate, 1)
			continue
		}
		rateGranted[record.ServiceId]--

		normalized := toNormalized(record)
		if h.deduper.SeenRecently(normalized.ServiceId, dedup.ContentHash(normalized)) {
			h.reject(summary, ReasonDuplicate, 1)
			continue
		}
		accepted = append(accepted, normalized)
	}

	if len(accepted) > 0 {
		batch := &worker.Batch{
			TaskId:  summary.TaskId,
			Deduped: true,
			Records: accepted,
		}
		if err := h.pool.Enqueue(c.Request.Context(), batch); err != nil {
			// The summary still succeeds; the loss is visible per reason and
			// in the overflow counter.
			log.Warnf("ingest task %s: enqueue failed: %v", summary.TaskId, err)
			h.reject(summary, ReasonOverflow, len(accepted))
			accepted = nil
		}
	}

	summary.AcceptedCount = len(accepted)
	IncAccepted(len(accepted))
	h.statsMu.Lock()
	h.stats.Accepted += int64(len(accepted))
	h.statsMu.Unlock()
	return summary
}

func (h *Handler) validateShape(record *logs.LogRecord) string {
	if record.ServiceId == "" || record.Timestamp.IsZero() || record.Level == "" || record.Message == "" {
		return ReasonMissingFields
	}
	if len(record.Message) > maxMessageBytes || len(record.StackTrace) > maxStackTraceBytes {
		return ReasonOversize
	}
	return ""
}

// serviceGate returns the rejection reason for a service, empty when the
// service accepts logs.
func (h *Handler) serviceGate(c *gin.Context, serviceId string) string {
	service, err := h.facade.Service.GetService(c.Request.Context(), serviceId)
	if err != nil {
		log.GlobalLogger().WithContext(c).Errorf("service lookup %s failed: %v", serviceId, err)
		return ReasonUnknownService
	}
	if service == nil || !service.Active {
		return ReasonUnknownService
	}
	if !service.LogProcessingEnabled {
		return ReasonProcessingDisabled
	}
	return ""
}

func (h *Handler) reject(summary *BatchSummary, reason string, n int) {
	summary.RejectedCount[reason] += n
	IncRejected(reason, n)
	h.statsMu.Lock()
	h.stats.Rejected[reason] += int64(n)
	h.statsMu.Unlock()
}

func toNormalized(record *logs.LogRecord) *logs.NormalizedLog {
	return &logs.NormalizedLog{
		LogId:            uuid.NewString(),
		ServiceId:        record.ServiceId,
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
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, rest.SuccessResp(c, gin.H{"status": "ok"}))
}

// Metrics returns a JSON snapshot: accepted/rejected counters, queue depth
// and per-service rate budget. Prometheus scraping lives on the health
// server; this endpoint serves the ingest clients themselves.
func (h *Handler) Metrics(c *gin.Context) {
	h.statsMu.Lock()
	rejected := make(map[string]int64, len(h.stats.Rejected))
	for reason, n := range h.stats.Rejected {
		rejected[reason] = n
	}
	accepted := h.stats.Accepted
	h.statsMu.Unlock()

	remaining := make(map[string]int)
	for _, serviceId := range h.limiter.Services() {
		remaining[serviceId] = h.limiter.Remaining(serviceId)
	}

	c.JSON(200, rest.SuccessResp(c, gin.H{
		"accepted":       accepted,
		"rejected":       rejected,
		"queue_depth":    h.pool.QueueDepth(),
		"rate_remaining": remaining,
		"dedup_entries":  h.deduper.Len(),
	}))
}
