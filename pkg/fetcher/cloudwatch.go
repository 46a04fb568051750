// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package fetcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
)

const cwMaxPages = 10

// CloudwatchAdapter pulls events with FilterLogEvents over the source's log
// group. Events that decode as structured records keep their fields; plain
// text events are wrapped as error-level messages since the sources are
// error log groups.
type CloudwatchAdapter struct {
	// newClient is swappable for tests.
	newClient func(ctx context.Context, region string) (cloudwatchFilterAPI, error)
}

type cloudwatchFilterAPI interface {
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput,
		optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

func (a *CloudwatchAdapter) Fetch(ctx context.Context, source *model.LogSource, window Window) ([]*logs.LogRecord, error) {
	region, _ := source.Connection["region"].(string)
	if region == "" {
		return nil, errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessagef("source %s has no region in connection descriptor", source.Id)
	}
	logGroup := source.IndexPattern
	if logGroup == "" {
		return nil, errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessagef("source %s has no log group pattern", source.Id)
	}

	build := a.newClient
	if build == nil {
		build = defaultCloudwatchClient
	}
	client, err := build(ctx, region)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CloudwatchError).
			WithMessage("create cloudwatch client failed").
			WithError(err)
	}

	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(logGroup),
		StartTime:    aws.Int64(window.From.UnixMilli()),
		EndTime:      aws.Int64(window.To.UnixMilli()),
	}
	if source.QueryFilter != "" {
		input.FilterPattern = aws.String(source.QueryFilter)
	}

	var out []*logs.LogRecord
	for page := 0; page < cwMaxPages; page++ {
		resp, err := client.FilterLogEvents(ctx, input)
		if err != nil {
			return nil, errors.NewError().
				WithCode(errors.CloudwatchError).
				WithMessagef("filter log events on %s failed", logGroup).
				WithError(err)
		}
		for _, event := range resp.Events {
			if event.Message == nil {
				continue
			}
			out = append(out, a.toRecord(source.ServiceId, *event.Message, event.Timestamp))
		}
		if resp.NextToken == nil {
			break
		}
		input.NextToken = resp.NextToken
	}
	return out, nil
}

func (a *CloudwatchAdapter) toRecord(serviceId, message string, eventMillis *int64) *logs.LogRecord {
	record := &logs.LogRecord{}
	if err := json.Unmarshal([]byte(message), record); err != nil || record.Message == "" {
		record = &logs.LogRecord{
			Level:   logs.LevelError,
			Message: message,
		}
	}
	if record.ServiceId == "" {
		record.ServiceId = serviceId
	}
	if record.Timestamp.IsZero() && eventMillis != nil {
		record.Timestamp = time.UnixMilli(*eventMillis).UTC()
	}
	return record
}

func defaultCloudwatchClient(ctx context.Context, region string) (cloudwatchFilterAPI, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return cloudwatchlogs.NewFromConfig(cfg), nil
}
