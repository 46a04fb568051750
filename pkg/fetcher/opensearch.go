// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package fetcher

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchapi"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
)

const (
	osPageSize = 1000
	osMaxPages = 10
)

// OpensearchAdapter serves both the opensearch and elasticsearch type tags;
// the query dialect is shared.
type OpensearchAdapter struct {
}

type osLogDoc struct {
	Timestamp     time.Time `json:"@timestamp"`
	Level         string    `json:"level"`
	Logger        string    `json:"logger"`
	Message       string    `json:"message"`
	ExceptionType string    `json:"exception_type"`
	StackTrace    string    `json:"stack_trace"`
	Hostname      string    `json:"hostname"`
	TraceId       string    `json:"trace_id"`
	RequestId     string    `json:"request_id"`
}

type osSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source osLogDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (a *OpensearchAdapter) Fetch(ctx context.Context, source *model.LogSource, window Window) ([]*logs.LogRecord, error) {
	client, err := a.newClient(source)
	if err != nil {
		return nil, err
	}

	var out []*logs.LogRecord
	for page := 0; page < osMaxPages; page++ {
		body, err := json.Marshal(a.buildQuery(source, window, page*osPageSize))
		if err != nil {
			return nil, err
		}

		req := opensearchapi.SearchRequest{
			Index: []string{source.IndexPattern},
			Body:  strings.NewReader(string(body)),
		}
		resp, err := req.Do(ctx, client)
		if err != nil {
			return nil, errors.NewError().
				WithCode(errors.OpensearchError).
				WithMessagef("search %s failed", source.IndexPattern).
				WithError(err)
		}

		parsed := &osSearchResponse{}
		decodeErr := json.NewDecoder(resp.Body).Decode(parsed)
		resp.Body.Close()
		if resp.IsError() {
			return nil, errors.NewError().
				WithCode(errors.OpensearchError).
				WithMessagef("search %s returned status %s", source.IndexPattern, resp.Status())
		}
		if decodeErr != nil {
			return nil, errors.NewError().
				WithCode(errors.OpensearchError).
				WithMessage("decode search response failed").
				WithError(decodeErr)
		}

		for _, hit := range parsed.Hits.Hits {
			doc := hit.Source
			out = append(out, &logs.LogRecord{
				ServiceId:     source.ServiceId,
				Timestamp:     doc.Timestamp,
				Level:         strings.ToUpper(doc.Level),
				Logger:        doc.Logger,
				Message:       doc.Message,
				ExceptionType: doc.ExceptionType,
				StackTrace:    doc.StackTrace,
				Hostname:      doc.Hostname,
				TraceId:       doc.TraceId,
				RequestId:     doc.RequestId,
			})
		}
		if len(parsed.Hits.Hits) < osPageSize {
			break
		}
	}
	return out, nil
}

// buildQuery assembles the bool query: time range plus error-level filter,
// with the source's optional query_string on top.
func (a *OpensearchAdapter) buildQuery(source *model.LogSource, window Window, from int) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{
			"range": map[string]interface{}{
				"@timestamp": map[string]interface{}{
					"gte": window.From.Format(time.RFC3339),
					"lte": window.To.Format(time.RFC3339),
				},
			},
		},
		map[string]interface{}{
			"terms": map[string]interface{}{
				"level": []string{
					logs.LevelError, logs.LevelFatal, logs.LevelCritical,
					// Stores differ on level casing.
					strings.ToLower(logs.LevelError),
					strings.ToLower(logs.LevelFatal),
					strings.ToLower(logs.LevelCritical),
				},
			},
		},
	}
	if source.QueryFilter != "" {
		filters = append(filters, map[string]interface{}{
			"query_string": map[string]interface{}{
				"query": source.QueryFilter,
			},
		})
	}

	return map[string]interface{}{
		"size": osPageSize,
		"from": from,
		"sort": []interface{}{
			map[string]interface{}{
				"@timestamp": map[string]interface{}{"order": "asc"},
			},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filters,
			},
		},
	}
}

func (a *OpensearchAdapter) newClient(source *model.LogSource) (*opensearch.Client, error) {
	conn := source.Connection
	host, _ := conn["host"].(string)
	if host == "" {
		return nil, errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessagef("source %s has no host in connection descriptor", source.Id)
	}
	scheme, _ := conn["scheme"].(string)
	if scheme == "" {
		scheme = "https"
	}
	port := 9200
	if p, ok := conn["port"].(float64); ok {
		port = int(p)
	}
	username, _ := conn["username"].(string)
	password, _ := conn["password"].(string)
	insecure, _ := conn["insecure_skip_verify"].(bool)

	cfg := opensearch.Config{
		Addresses: []string{fmt.Sprintf("%s://%s:%d", scheme, host, port)},
		Username:  username,
		Password:  password,
	}
	if insecure {
		cfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.OpensearchError).
			WithMessage("create opensearch client failed").
			WithError(err)
	}
	return client, nil
}
