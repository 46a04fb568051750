// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package fetcher

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
)

// FileAdapter reads JSON-lines log files matched by the source's path glob.
// Records outside the window are skipped; unparseable lines are counted and
// skipped, never fatal.
type FileAdapter struct {
}

// Long lines happen; stack traces inside one JSON line easily exceed the
// scanner default.
const fileScanBufferBytes = 1024 * 1024

func (a *FileAdapter) Fetch(ctx context.Context, source *model.LogSource, window Window) ([]*logs.LogRecord, error) {
	pattern := source.IndexPattern
	if pattern == "" {
		if p, ok := source.Connection["path"].(string); ok {
			pattern = p
		}
	}
	if pattern == "" {
		return nil, errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessagef("source %s has no path pattern", source.Id)
	}

	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.RequestParameterInvalid).
			WithMessagef("bad glob %q", pattern).
			WithError(err)
	}

	var out []*logs.LogRecord
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		records, err := a.readFile(path, source.ServiceId, window)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (a *FileAdapter) readFile(path, serviceId string, window Window) ([]*logs.LogRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []*logs.LogRecord
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), fileScanBufferBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		record := &logs.LogRecord{}
		if err := json.Unmarshal(line, record); err != nil {
			skipped++
			continue
		}
		if record.Timestamp.Before(window.From) || record.Timestamp.After(window.To) {
			continue
		}
		if record.ServiceId == "" {
			record.ServiceId = serviceId
		}
		out = append(out, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Warnf("file source %s: skipped %d unparseable lines", path, skipped)
	}
	return out, nil
}
