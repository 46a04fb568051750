// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import (
	"time"
)

// Log source type tags.
const (
	SourceTypeOpensearch    = "opensearch"
	SourceTypeElasticsearch = "elasticsearch"
	SourceTypeFile          = "file"
	SourceTypeCloudwatch    = "cloudwatch"
	SourceTypeHTTPPush      = "http-push"
)

// Cluster states.
const (
	ClusterStatusActive   = "active"
	ClusterStatusSkipped  = "skipped"
	ClusterStatusResolved = "resolved"
)

// Indexing run states.
const (
	IndexingStatusRunning   = "running"
	IndexingStatusSucceeded = "succeeded"
	IndexingStatusFailed    = "failed"
)

type Service struct {
	Id                      string     `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Name                    string     `gorm:"column:name;type:varchar(255)" json:"name"`
	Active                  bool       `gorm:"column:active;default:true;index" json:"active"`
	LogProcessingEnabled    bool       `gorm:"column:log_processing_enabled;default:true" json:"log_processing_enabled"`
	LogFetchIntervalSeconds int        `gorm:"column:log_fetch_interval_seconds;default:300" json:"log_fetch_interval_seconds"`
	CleanupIntervalSeconds  int        `gorm:"column:cleanup_interval_seconds;default:604800" json:"cleanup_interval_seconds"`
	NotificationTarget      string     `gorm:"column:notification_target;type:varchar(512)" json:"notification_target"`
	LastLogFetch            *time.Time `gorm:"column:last_log_fetch" json:"last_log_fetch"`
	LastCleanupAt           *time.Time `gorm:"column:last_cleanup_at" json:"last_cleanup_at"`
	LastIndexedCommit       string     `gorm:"column:last_indexed_commit;type:varchar(64)" json:"last_indexed_commit"`
	LastIndexedAt           *time.Time `gorm:"column:last_indexed_at" json:"last_indexed_at"`
	CreatedAt               time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Service) TableName() string {
	return "services"
}

func (s *Service) LogFetchInterval() time.Duration {
	if s.LogFetchIntervalSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(s.LogFetchIntervalSeconds) * time.Second
}

func (s *Service) CleanupInterval() time.Duration {
	if s.CleanupIntervalSeconds <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(s.CleanupIntervalSeconds) * time.Second
}

type LogSource struct {
	Id               string     `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ServiceId        string     `gorm:"column:service_id;type:varchar(64);index" json:"service_id"`
	Type             string     `gorm:"column:type;type:varchar(32)" json:"type"`
	Connection       ExtType    `gorm:"column:connection;type:jsonb" json:"connection"`
	IndexPattern     string     `gorm:"column:index_pattern;type:varchar(512)" json:"index_pattern"`
	QueryFilter      string     `gorm:"column:query_filter;type:text" json:"query_filter"`
	FetchEnabled     bool       `gorm:"column:fetch_enabled;default:true" json:"fetch_enabled"`
	LastFetchAt      *time.Time `gorm:"column:last_fetch_at" json:"last_fetch_at"`
	ConnectionStatus string     `gorm:"column:connection_status;type:varchar(32)" json:"connection_status"`
	LastError        string     `gorm:"column:last_error;type:text" json:"last_error"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (LogSource) TableName() string {
	return "log_sources"
}

type ExceptionCluster struct {
	Id          string `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ServiceId   string `gorm:"column:service_id;type:varchar(64);uniqueIndex:idx_cluster_service_fp,priority:1" json:"service_id"`
	LogSourceId string `gorm:"column:log_source_id;type:varchar(64)" json:"log_source_id"`

	FingerprintStatic   string `gorm:"column:fingerprint_static;type:varchar(16);uniqueIndex:idx_cluster_service_fp,priority:2" json:"fingerprint_static"`
	FingerprintExact    string `gorm:"column:fingerprint_exact;type:varchar(16)" json:"fingerprint_exact"`
	FingerprintTemplate string `gorm:"column:fingerprint_template;type:varchar(16)" json:"fingerprint_template"`
	FingerprintSemantic string `gorm:"column:fingerprint_semantic;type:varchar(16)" json:"fingerprint_semantic"`
	FingerprintCategory string `gorm:"column:fingerprint_category;type:varchar(16)" json:"fingerprint_category"`

	ExceptionType    string  `gorm:"column:exception_type;type:varchar(255)" json:"exception_type"`
	ExceptionMessage string  `gorm:"column:exception_message;type:text" json:"exception_message"`
	Logger           string  `gorm:"column:logger;type:varchar(512)" json:"logger"`
	ErrorCategory    string  `gorm:"column:error_category;type:varchar(32);index" json:"error_category"`
	HasStackTrace    bool    `gorm:"column:has_stack_trace" json:"has_stack_trace"`
	Representative   ExtType `gorm:"column:representative;type:jsonb" json:"representative"`

	Size       int64       `gorm:"column:size;default:1" json:"size"`
	Buckets    HourBuckets `gorm:"column:buckets;type:jsonb" json:"buckets"`
	BucketHour int64       `gorm:"column:bucket_hour" json:"bucket_hour"`

	FirstSeen time.Time `gorm:"column:first_seen;index" json:"first_seen"`
	LastSeen  time.Time `gorm:"column:last_seen;index" json:"last_seen"`

	Status          string     `gorm:"column:status;type:varchar(16);default:active;index" json:"status"`
	StatusUpdatedAt *time.Time `gorm:"column:status_updated_at" json:"status_updated_at"`
	StatusUpdatedBy string     `gorm:"column:status_updated_by;type:varchar(255)" json:"status_updated_by"`

	HasRca bool `gorm:"column:has_rca;default:false" json:"has_rca"`
	Cold   bool `gorm:"column:cold;default:false" json:"cold"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ExceptionCluster) TableName() string {
	return "exception_clusters"
}

// Frequency24h is the in-window hit count derived from the bucket ring.
func (c *ExceptionCluster) Frequency24h(now time.Time) int64 {
	return c.Buckets.SumSince(c.BucketHour, now.UTC().Unix()/3600)
}

type IndexingRun struct {
	Id         uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ServiceId  string     `gorm:"column:service_id;type:varchar(64);index" json:"service_id"`
	CommitHash string     `gorm:"column:commit_hash;type:varchar(64)" json:"commit_hash"`
	Reason     string     `gorm:"column:reason;type:varchar(64)" json:"reason"`
	Status     string     `gorm:"column:status;type:varchar(16)" json:"status"`
	Error      string     `gorm:"column:error;type:text" json:"error"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at"`
}

func (IndexingRun) TableName() string {
	return "indexing_runs"
}
