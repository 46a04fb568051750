// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
)

const (
	EnvConfigPath     = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

// Config is the single enumerated configuration for the service. Unknown keys
// in the yaml file are rejected at load time.
type Config struct {
	HttpPort     int                 `yaml:"http_port"`
	Log          *log.Config         `yaml:"log"`
	Ingest       IngestConfig        `yaml:"ingest"`
	Worker       WorkerConfig        `yaml:"worker"`
	Scheduler    SchedulerConfig     `yaml:"scheduler"`
	Extract      ExtractConfig       `yaml:"extract"`
	Indexing     IndexingConfig      `yaml:"indexing"`
	Notification NotificationConfig  `yaml:"notification"`
	Store        DatabaseConfig      `yaml:"store"`
}

type IngestConfig struct {
	Token                     string `yaml:"token"`
	BatchLimit                int    `yaml:"batch_limit"`
	RateLimitPerServicePerMin int    `yaml:"rate_limit_per_service_per_min"`
	DedupWindowSeconds        int    `yaml:"dedup_window_seconds"`
	DedupMaxEntries           int    `yaml:"dedup_max_entries"`
}

func (c *IngestConfig) GetBatchLimit() int {
	if c.BatchLimit <= 0 {
		return 1000
	}
	return c.BatchLimit
}

func (c *IngestConfig) GetRateLimitPerMin() int {
	if c.RateLimitPerServicePerMin <= 0 {
		return 10000
	}
	return c.RateLimitPerServicePerMin
}

func (c *IngestConfig) GetDedupWindow() time.Duration {
	if c.DedupWindowSeconds <= 0 {
		return 600 * time.Second
	}
	return time.Duration(c.DedupWindowSeconds) * time.Second
}

func (c *IngestConfig) GetDedupMaxEntries() int {
	if c.DedupMaxEntries <= 0 {
		return 100000
	}
	return c.DedupMaxEntries
}

type WorkerConfig struct {
	PoolSize            int `yaml:"pool_size"`
	QueueCapacity       int `yaml:"queue_capacity"`
	RecordDeadlineMs    int `yaml:"record_deadline_ms"`
	EnqueueTimeoutMs    int `yaml:"enqueue_timeout_ms"`
	ShutdownGraceSecond int `yaml:"shutdown_grace_seconds"`
}

func (c *WorkerConfig) GetPoolSize() int {
	if c.PoolSize <= 0 {
		return 8
	}
	return c.PoolSize
}

func (c *WorkerConfig) GetQueueCapacity() int {
	if c.QueueCapacity <= 0 {
		return 10000
	}
	return c.QueueCapacity
}

func (c *WorkerConfig) GetRecordDeadline() time.Duration {
	if c.RecordDeadlineMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.RecordDeadlineMs) * time.Millisecond
}

func (c *WorkerConfig) GetEnqueueTimeout() time.Duration {
	if c.EnqueueTimeoutMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.EnqueueTimeoutMs) * time.Millisecond
}

func (c *WorkerConfig) GetShutdownGrace() time.Duration {
	if c.ShutdownGraceSecond <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ShutdownGraceSecond) * time.Second
}

type SchedulerConfig struct {
	TickSeconds                    int `yaml:"tick_seconds"`
	CodeIndexingMinIntervalMinutes int `yaml:"code_indexing_min_interval_minutes"`
	CleanupIntervalDays            int `yaml:"cleanup_interval_days"`
	ColdAfterResolvedDays          int `yaml:"cold_after_resolved_days"`
}

func (c *SchedulerConfig) GetTick() time.Duration {
	if c.TickSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.TickSeconds) * time.Second
}

func (c *SchedulerConfig) GetCodeIndexingMinInterval() time.Duration {
	if c.CodeIndexingMinIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.CodeIndexingMinIntervalMinutes) * time.Minute
}

func (c *SchedulerConfig) GetCleanupInterval() time.Duration {
	if c.CleanupIntervalDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.CleanupIntervalDays) * 24 * time.Hour
}

func (c *SchedulerConfig) GetColdAfterResolved() time.Duration {
	if c.ColdAfterResolvedDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.ColdAfterResolvedDays) * 24 * time.Hour
}

type ExtractConfig struct {
	// Files starting with any of these prefixes are treated as vendor code.
	VendorPrefixes []string `yaml:"vendor_prefixes"`
}

func (c *ExtractConfig) GetVendorPrefixes() []string {
	if len(c.VendorPrefixes) == 0 {
		return []string{
			"java.", "javax.", "jdk.", "sun.",
			"org.springframework.", "org.apache.",
			"site-packages/", "dist-packages/",
			"node_modules/",
			"runtime/", "vendor/",
		}
	}
	return c.VendorPrefixes
}

type IndexingConfig struct {
	// Base URL of the code-indexing collaborator. Empty disables the
	// scheduled indexing trigger.
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c *IndexingConfig) GetTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type NotificationConfig struct {
	// Webhook receiving cluster-created / cluster-hit signals. Empty disables.
	WebhookURL     string `yaml:"webhook_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c *NotificationConfig) GetTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"db_name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
}

func (c *DatabaseConfig) GetSSLMode() string {
	if c.SSLMode == "" {
		return "disable"
	}
	return c.SSLMode
}

func (c *DatabaseConfig) GetMaxConns() int {
	if c.MaxConns <= 0 {
		return 40
	}
	return c.MaxConns
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.GetSSLMode())
}

var globalConfig *Config

func LoadConfig() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = defaultConfigPath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	cfg := &Config{}
	decoder := yaml.NewDecoder(f)
	// Unknown keys are a startup error, not a silent ignore.
	decoder.SetStrict(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if cfg.Log == nil {
		cfg.Log = log.DefaultConfig()
	}
	globalConfig = cfg
	return cfg, nil
}

func GetConfig() *Config {
	return globalConfig
}

func SetConfig(cfg *Config) {
	globalConfig = cfg
}
