// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/cluster"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/config"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/database"
	dbmodel "github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/dedup"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/extract"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/rest"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/notify"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/ratelimit"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/router/middleware"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/worker"
)

const testToken = "test-ingest-token"

type ingestFixture struct {
	router  *gin.Engine
	handler *Handler
	pool    *worker.Pool
	limiter *ratelimit.Limiter
	db      *gorm.DB
}

func setupIngest(t *testing.T, conf *config.IngestConfig, workerConf *config.WorkerConfig) *ingestFixture {
	gin.SetMode(gin.TestMode)
	db := database.SetupTestDB(t)
	facade := &database.Facade{
		Service:   database.NewServiceFacade(),
		LogSource: database.NewLogSourceFacade(),
		Cluster:   database.NewClusterFacade(),
		Indexing:  database.NewIndexingFacade(),
	}

	require.NoError(t, db.Create(&dbmodel.Service{
		Id: "web-api", Name: "Web API", Active: true, LogProcessingEnabled: true,
	}).Error)
	require.NoError(t, db.Create(&dbmodel.Service{
		Id: "retired", Name: "Retired", Active: false, LogProcessingEnabled: true,
	}).Error)
	require.NoError(t, db.Create(&dbmodel.Service{
		Id: "muted", Name: "Muted", Active: true, LogProcessingEnabled: false,
	}).Error)

	if conf == nil {
		conf = &config.IngestConfig{}
	}
	conf.Token = testToken
	if workerConf == nil {
		workerConf = &config.WorkerConfig{PoolSize: 1, QueueCapacity: 64, EnqueueTimeoutMs: 20}
	}

	deduper := dedup.NewDeduper(10*time.Minute, 1000)
	limiter := ratelimit.NewLimiter(conf.GetRateLimitPerMin(), conf.GetRateLimitPerMin())
	clusterer := cluster.NewClusterer(facade)
	pool := worker.NewPool(workerConf, deduper, extract.NewExtractor(nil), clusterer, notify.NewNotifier(nil))

	handler := NewHandler(conf, facade, limiter, deduper, pool)

	router := gin.New()
	router.Use(middleware.HandleErrors())
	require.NoError(t, handler.RegisterRoutes(router.Group("")))

	return &ingestFixture{router: router, handler: handler, pool: pool, limiter: limiter, db: db}
}

func validRecord(message string) *logs.LogRecord {
	return &logs.LogRecord{
		ServiceId: "web-api",
		Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		Level:     logs.LevelError,
		Logger:    "app",
		Message:   message,
	}
}

func (f *ingestFixture) post(t *testing.T, path, token string, body interface{}) (*rest.Meta, *BatchSummary) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Meta rest.Meta     `json:"meta"`
		Data *BatchSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp.Meta, resp.Data
}

func TestIngestRejectsBadToken(t *testing.T) {
	f := setupIngest(t, nil, nil)

	meta, _ := f.post(t, "/ingest/logs", "wrong-token", BatchRequest{Logs: []*logs.LogRecord{validRecord("boom")}})
	assert.Equal(t, errors.AuthFailed, meta.Code)

	meta, _ = f.post(t, "/ingest/logs", "", BatchRequest{Logs: []*logs.LogRecord{validRecord("boom")}})
	assert.Equal(t, errors.AuthFailed, meta.Code)
}

func TestIngestBatchAccepted(t *testing.T) {
	f := setupIngest(t, nil, nil)

	meta, summary := f.post(t, "/ingest/logs", testToken, BatchRequest{Logs: []*logs.LogRecord{
		validRecord("connection refused by upstream"),
		validRecord("read timed out after 30s"),
	}})
	require.Equal(t, rest.CodeSuccess, meta.Code)
	assert.Equal(t, 2, summary.ReceivedCount)
	assert.Equal(t, 2, summary.AcceptedCount)
	assert.Empty(t, summary.RejectedCount)
	assert.NotEmpty(t, summary.TaskId)
	assert.Equal(t, 1, f.pool.QueueDepth())
}

func TestIngestBatchOverLimit(t *testing.T) {
	f := setupIngest(t, &config.IngestConfig{BatchLimit: 2}, nil)

	meta, _ := f.post(t, "/ingest/logs", testToken, BatchRequest{Logs: []*logs.LogRecord{
		validRecord("a"), validRecord("b"), validRecord("c"),
	}})
	assert.Equal(t, errors.RequestTooLarge, meta.Code)
}

func TestIngestMalformedBody(t *testing.T) {
	f := setupIngest(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/ingest/logs", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp rest.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.RequestParameterInvalid, resp.Meta.Code)
}

func TestIngestRecordValidation(t *testing.T) {
	f := setupIngest(t, nil, nil)

	missing := validRecord("boom")
	missing.ServiceId = ""
	oversize := validRecord(strings.Repeat("x", maxMessageBytes+1))
	unknown := validRecord("boom")
	unknown.ServiceId = "no-such-service"
	inactive := validRecord("boom")
	inactive.ServiceId = "retired"
	disabled := validRecord("boom")
	disabled.ServiceId = "muted"

	meta, summary := f.post(t, "/ingest/logs", testToken, BatchRequest{Logs: []*logs.LogRecord{
		missing, oversize, unknown, inactive, disabled, validRecord("boom"),
	}})
	require.Equal(t, rest.CodeSuccess, meta.Code)
	assert.Equal(t, 6, summary.ReceivedCount)
	assert.Equal(t, 1, summary.AcceptedCount)
	assert.Equal(t, 1, summary.RejectedCount[ReasonMissingFields])
	assert.Equal(t, 1, summary.RejectedCount[ReasonOversize])
	assert.Equal(t, 2, summary.RejectedCount[ReasonUnknownService])
	assert.Equal(t, 1, summary.RejectedCount[ReasonProcessingDisabled])
}

func TestIngestDuplicateInWindow(t *testing.T) {
	f := setupIngest(t, nil, nil)

	record := validRecord("database connection lost")
	meta, summary := f.post(t, "/ingest/logs", testToken, BatchRequest{Logs: []*logs.LogRecord{record, record}})
	require.Equal(t, rest.CodeSuccess, meta.Code)
	assert.Equal(t, 1, summary.AcceptedCount)
	assert.Equal(t, 1, summary.RejectedCount[ReasonDuplicate])

	// The duplicate window spans requests too.
	_, summary = f.post(t, "/ingest/logs", testToken, BatchRequest{Logs: []*logs.LogRecord{record}})
	assert.Equal(t, 0, summary.AcceptedCount)
	assert.Equal(t, 1, summary.RejectedCount[ReasonDuplicate])
}

func TestIngestSingle(t *testing.T) {
	f := setupIngest(t, nil, nil)

	meta, summary := f.post(t, "/ingest/logs/single", testToken, validRecord("boom"))
	require.Equal(t, rest.CodeSuccess, meta.Code)
	assert.Equal(t, 1, summary.ReceivedCount)
	assert.Equal(t, 1, summary.AcceptedCount)
}

func TestIngestRateLimitPartialAcceptance(t *testing.T) {
	f := setupIngest(t, &config.IngestConfig{RateLimitPerServicePerMin: 500}, nil)
	f.limiter.SetClock(func() time.Time { return time.Unix(1000, 0) })

	records := make([]*logs.LogRecord, 0, 600)
	for i := 0; i < 600; i++ {
		// Distinct seconds keep the records out of the dedup window.
		r := validRecord("request failed with unrecoverable error")
		r.Timestamp = r.Timestamp.Add(time.Duration(i) * time.Second)
		records = append(records, r)
	}

	meta, summary := f.post(t, "/ingest/logs", testToken, BatchRequest{Logs: records})
	require.Equal(t, rest.CodeSuccess, meta.Code)
	assert.Equal(t, 600, summary.ReceivedCount)
	assert.Equal(t, 500, summary.AcceptedCount)
	assert.Equal(t, 100, summary.RejectedCount[ReasonRate])
}

func TestIngestQueueOverflow(t *testing.T) {
	workerConf := &config.WorkerConfig{PoolSize: 1, QueueCapacity: 1, EnqueueTimeoutMs: 20}
	f := setupIngest(t, nil, workerConf)

	// Fill the only queue slot; no workers are draining it.
	require.NoError(t, f.pool.Enqueue(context.Background(), &worker.Batch{TaskId: "filler"}))

	meta, summary := f.post(t, "/ingest/logs", testToken, BatchRequest{Logs: []*logs.LogRecord{validRecord("boom")}})
	require.Equal(t, rest.CodeSuccess, meta.Code)
	assert.Equal(t, 0, summary.AcceptedCount)
	assert.Equal(t, 1, summary.RejectedCount[ReasonOverflow])
}

func TestIngestHealthAndMetrics(t *testing.T) {
	f := setupIngest(t, nil, nil)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ingest/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health rest.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, rest.CodeSuccess, health.Meta.Code)

	f.post(t, "/ingest/logs", testToken, BatchRequest{Logs: []*logs.LogRecord{validRecord("boom")}})

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ingest/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var metrics struct {
		Meta rest.Meta `json:"meta"`
		Data struct {
			Accepted      int64          `json:"accepted"`
			QueueDepth    int            `json:"queue_depth"`
			RateRemaining map[string]int `json:"rate_remaining"`
			DedupEntries  int            `json:"dedup_entries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, rest.CodeSuccess, metrics.Meta.Code)
	assert.Equal(t, int64(1), metrics.Data.Accepted)
	assert.Equal(t, 1, metrics.Data.QueueDepth)
	assert.Equal(t, 1, metrics.Data.DedupEntries)
}
