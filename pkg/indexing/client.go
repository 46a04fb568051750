// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package indexing talks to the external code-indexing collaborator. The
// core only asks for the current source commit and fires trigger requests;
// embedding and retrieval live entirely on the other side.
package indexing

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/config"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/rest"
)

const ReasonExceptionDetected = "exception_detected"

type Client interface {
	// CurrentCommit returns the collaborator's source-content hash for the
	// service's codebase.
	CurrentCommit(ctx context.Context, serviceId string) (string, error)
	// TriggerIndexing asks the collaborator to (re)index the service.
	TriggerIndexing(ctx context.Context, serviceId, commitHash, reason string) error
}

// NewClient returns nil when no endpoint is configured; callers treat a nil
// client as "scheduled indexing disabled".
func NewClient(conf *config.IndexingConfig) Client {
	if conf == nil || conf.Endpoint == "" {
		return nil
	}
	return &restClient{
		client: resty.New().SetTimeout(conf.GetTimeout()).SetBaseURL(conf.Endpoint),
	}
}

type restClient struct {
	client *resty.Client
}

type commitData struct {
	CommitHash string `json:"commit_hash"`
}

func (c *restClient) CurrentCommit(ctx context.Context, serviceId string) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/services/%s/commit", serviceId))
	if err != nil {
		return "", errors.NewError().
			WithCode(errors.CodeRemoteServiceError).
			WithMessagef("query commit for %s failed", serviceId).
			WithError(err)
	}
	data := &commitData{}
	if _, err := rest.ParseResponseBytes(resp.Body(), data); err != nil {
		return "", err
	}
	return data.CommitHash, nil
}

func (c *restClient) TriggerIndexing(ctx context.Context, serviceId, commitHash, reason string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"commit_hash": commitHash,
			"reason":      reason,
		}).
		Post(fmt.Sprintf("/services/%s/index", serviceId))
	if err != nil {
		return errors.NewError().
			WithCode(errors.CodeRemoteServiceError).
			WithMessagef("trigger indexing for %s failed", serviceId).
			WithError(err)
	}
	if _, err := rest.ParseResponseBytes(resp.Body(), nil); err != nil {
		return err
	}
	return nil
}
