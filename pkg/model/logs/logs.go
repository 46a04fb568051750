// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package logs

import (
	"time"
)

// Levels that progress to exception extraction.
const (
	LevelError    = "ERROR"
	LevelFatal    = "FATAL"
	LevelCritical = "CRITICAL"
	LevelWarn     = "WARN"
	LevelInfo     = "INFO"
)

// IsErrorLevel reports whether a level belongs to the error set.
func IsErrorLevel(level string) bool {
	switch level {
	case LevelError, LevelFatal, LevelCritical:
		return true
	}
	return false
}

// LogRecord is the wire shape accepted by the push endpoint and produced by
// the pull adapters.
type LogRecord struct {
	ServiceId        string                 `json:"service_id"`
	Timestamp        time.Time              `json:"timestamp"`
	Level            string                 `json:"level"`
	Logger           string                 `json:"logger,omitempty"`
	Message          string                 `json:"message"`
	ExceptionType    string                 `json:"exception_type,omitempty"`
	ExceptionMessage string                 `json:"exception_message,omitempty"`
	StackTrace       string                 `json:"stack_trace,omitempty"`
	Hostname         string                 `json:"hostname,omitempty"`
	TraceId          string                 `json:"trace_id,omitempty"`
	RequestId        string                 `json:"request_id,omitempty"`
	Attributes       map[string]interface{} `json:"attributes,omitempty"`
}

// NormalizedLog is the internal record shape flowing through the pipeline.
type NormalizedLog struct {
	LogId            string
	ServiceId        string
	SourceId         string
	Timestamp        time.Time
	Level            string
	Logger           string
	Message          string
	ExceptionType    string
	ExceptionMessage string
	StackTrace       string
	Hostname         string
	TraceId          string
	RequestId        string
	Attributes       map[string]interface{}
}

// StackFrame languages.
const (
	LangJava    = "java"
	LangPython  = "python"
	LangJS      = "js"
	LangGo      = "go"
	LangUnknown = "unknown"
)

type StackFrame struct {
	File     string `json:"file"`
	Symbol   string `json:"symbol"`
	Line     int    `json:"line"`
	Language string `json:"language"`
	Position int    `json:"position"`
	OwnCode  bool   `json:"own_code"`
}

// Fingerprints is the four-level identity of an exception plus the static
// fingerprint chosen as the cluster key.
type Fingerprints struct {
	Exact    string `json:"exact"`
	Template string `json:"template"`
	Semantic string `json:"semantic"`
	Category string `json:"category"`
	Static   string `json:"static"`
}

type ExceptionRecord struct {
	ExceptionType    string       `json:"exception_type"`
	ExceptionMessage string       `json:"exception_message"`
	Frames           []StackFrame `json:"frames"`
	HasStackTrace    bool         `json:"has_stack_trace"`
	Fingerprints     Fingerprints `json:"fingerprints"`
	Logger           string       `json:"logger"`
	ErrorCategory    string       `json:"error_category"`
	NormalizedMsg    string       `json:"normalized_message"`
}
