// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package notify pushes cluster signals to the external webhook dispatcher.
// Delivery is fire-and-forget with a timeout; the pipeline never blocks on
// it.
package notify

import (
	"context"

	"github.com/go-resty/resty/v2"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/config"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
)

const (
	EventClusterCreated = "cluster_created"
	EventClusterHit     = "cluster_hit"
)

type Signal struct {
	Event             string `json:"event"`
	ServiceId         string `json:"service_id"`
	ClusterId         string `json:"cluster_id"`
	FingerprintStatic string `json:"fingerprint_static"`
	ExceptionType     string `json:"exception_type,omitempty"`
	ErrorCategory     string `json:"error_category,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, signal *Signal)
}

type webhookNotifier struct {
	client *resty.Client
	url    string
}

func NewNotifier(conf *config.NotificationConfig) Notifier {
	if conf == nil || conf.WebhookURL == "" {
		return &noopNotifier{}
	}
	client := resty.New().
		SetTimeout(conf.GetTimeout()).
		SetRetryCount(1)
	return &webhookNotifier{client: client, url: conf.WebhookURL}
}

func (n *webhookNotifier) Notify(ctx context.Context, signal *Signal) {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(signal).
		Post(n.url)
	if err != nil {
		log.Warnf("notify %s for cluster %s failed: %v", signal.Event, signal.ClusterId, err)
		return
	}
	if resp.IsError() {
		log.Warnf("notify %s for cluster %s: webhook returned %d", signal.Event, signal.ClusterId, resp.StatusCode())
	}
}

type noopNotifier struct{}

func (n *noopNotifier) Notify(ctx context.Context, signal *Signal) {}
