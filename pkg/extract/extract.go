// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package extract derives exception identity from normalized logs: stack
// frame parsing, fingerprinting and the cluster-key selection rule.
package extract

import (
	"strings"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/logs"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/normalize"
)

type Extractor struct {
	vendorPrefixes []string
	parsers        []stackParser
}

func NewExtractor(vendorPrefixes []string) *Extractor {
	return &Extractor{
		vendorPrefixes: vendorPrefixes,
		parsers: []stackParser{
			&pythonParser{},
			&javaParser{},
			&jsParser{},
		},
	}
}

// Extract turns a normalized log into an ExceptionRecord. ok is false when
// the level is outside the error set or the log carries nothing to cluster
// on (empty message, no trace, no exception type).
func (e *Extractor) Extract(record *logs.NormalizedLog) (*logs.ExceptionRecord, bool) {
	if !logs.IsErrorLevel(record.Level) {
		return nil, false
	}
	if record.Message == "" && record.StackTrace == "" && record.ExceptionType == "" {
		return nil, false
	}

	traceText := record.StackTrace
	if traceText == "" {
		traceText = record.Message
	}

	var frames []logs.StackFrame
	var headerType string
	for _, parser := range e.parsers {
		if !parser.detect(traceText) {
			continue
		}
		frames, headerType = parser.parse(traceText)
		if len(frames) > 0 {
			break
		}
	}
	for i := range frames {
		frames[i].Position = i
		frames[i].OwnCode = e.isOwnCode(&frames[i])
	}

	exceptionType := record.ExceptionType
	if exceptionType == "" {
		exceptionType = headerType
	}

	message := record.ExceptionMessage
	if message == "" {
		message = record.Message
	}

	normalized := normalize.Normalize(record.Message)
	fps := normalize.Fingerprints(record.Message, exceptionType, record.Logger)

	out := &logs.ExceptionRecord{
		ExceptionType:    exceptionType,
		ExceptionMessage: message,
		Frames:           frames,
		HasStackTrace:    len(frames) > 0,
		Logger:           record.Logger,
		ErrorCategory:    normalize.Category(record.Message),
		NormalizedMsg:    normalized,
		Fingerprints: logs.Fingerprints{
			Exact:    fps.Exact,
			Template: fps.Template,
			Semantic: fps.Semantic,
			Category: fps.Category,
		},
	}
	out.Fingerprints.Static = staticFingerprint(out)
	return out, true
}

// staticFingerprint selects the cluster key: structural identity for
// stack-traced errors, message template otherwise.
func staticFingerprint(record *logs.ExceptionRecord) string {
	if !record.HasStackTrace {
		return record.Fingerprints.Template
	}
	parts := []string{record.ExceptionType}
	for i, frame := range record.Frames {
		if i >= 3 {
			break
		}
		parts = append(parts, frame.File+":"+frame.Symbol)
	}
	return normalize.Hash(strings.Join(parts, "|"))
}

func (e *Extractor) isOwnCode(frame *logs.StackFrame) bool {
	for _, prefix := range e.vendorPrefixes {
		if strings.HasPrefix(frame.File, prefix) || strings.HasPrefix(frame.Symbol, prefix) {
			return false
		}
	}
	return true
}
