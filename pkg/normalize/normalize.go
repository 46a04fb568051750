// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package normalize strips volatile tokens from log messages and derives the
// content fingerprints used for clustering.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Error categories, closed set.
const (
	CategoryConnection = "CONNECTION_ERROR"
	CategoryTimeout    = "TIMEOUT_ERROR"
	CategoryAuth       = "AUTH_ERROR"
	CategoryDatabase   = "DATABASE_ERROR"
	CategoryNetwork    = "NETWORK_ERROR"
	CategoryFilesystem = "FILESYSTEM_ERROR"
	CategoryMemory     = "MEMORY_ERROR"
	CategoryNull       = "NULL_ERROR"
	CategoryValidation = "VALIDATION_ERROR"
	CategoryRateLimit  = "RATE_LIMIT_ERROR"
	CategoryUnknown    = "UNKNOWN"
)

// Substitutions run in declaration order. Greedy patterns (URL) must precede
// their substrings (PATH, NUMBER).
var substitutions = []struct {
	re          *regexp.Regexp
	placeholder string
}{
	{regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`), "<UUID>"},
	{regexp.MustCompile(`https?://[^\s"']+`), "<URL>"},
	{regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), "<EMAIL>"},
	{regexp.MustCompile(`(?:\.{1,2})?/[\w.\-]+(?:/[\w.\-]+)+|[A-Za-z]:\\[\w.\-]+(?:\\[\w.\-]+)+|\\[\w.\-]+(?:\\[\w.\-]+)+`), "<PATH>"},
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+\-]\d{2}:?\d{2})?|\d{2}/\d{2}/\d{4}[ T]\d{2}:\d{2}:\d{2}`), "<TIMESTAMP>"},
	{regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b|\b(?:[0-9a-fA-F]{1,4}:){3,7}[0-9a-fA-F]{1,4}\b`), "<IP>"},
	{regexp.MustCompile(`\{[^{}]*\}|\[[^\[\]]*[,:"][^\[\]]*\]`), "<JSON>"},
	{regexp.MustCompile(`\b[0-9a-fA-F]{16,}\b|\b[iI][dD]-\d+\b|\buser_\d+\b`), "<ID>"},
	{regexp.MustCompile(`\b\d{3,}(?:\.\d+)?\b`), "<NUMBER>"},
}

var (
	placeholderRe = regexp.MustCompile(`<[A-Z]+>`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Normalize replaces volatile tokens with placeholders, lowercases the
// surrounding text and collapses whitespace. Idempotent: placeholders pass
// through untouched.
func Normalize(message string) string {
	out := message
	for _, sub := range substitutions {
		out = sub.re.ReplaceAllString(out, sub.placeholder)
	}

	// Lowercase only the text between placeholders so that <IP> stays <IP>.
	var b strings.Builder
	last := 0
	for _, loc := range placeholderRe.FindAllStringIndex(out, -1) {
		b.WriteString(strings.ToLower(out[last:loc[0]]))
		b.WriteString(out[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ToLower(out[last:]))

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
}

// Category patterns in declared order; first match wins.
var categoryPatterns = []struct {
	re       *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`(?i)\b(connection|connect|refused|econnrefused|broken pipe)\b`), CategoryConnection},
	{regexp.MustCompile(`(?i)\b(timeout|timed out|deadline exceeded)\b`), CategoryTimeout},
	{regexp.MustCompile(`(?i)\b(auth|unauthorized|unauthenticated|forbidden|permission denied|access denied)\b`), CategoryAuth},
	{regexp.MustCompile(`(?i)\b(database|sql|query failed|deadlock|constraint)\b`), CategoryDatabase},
	{regexp.MustCompile(`(?i)\b(network|socket|dns|unreachable|econnreset)\b`), CategoryNetwork},
	{regexp.MustCompile(`(?i)(no such file|file not found|disk full|i/o error|\bioexception\b|read-only file)`), CategoryFilesystem},
	{regexp.MustCompile(`(?i)(out of memory|\boom\b|heap space|memory limit)`), CategoryMemory},
	{regexp.MustCompile(`(?i)(null ?pointer|nil pointer|nonetype|undefined is not|\bnull\b)`), CategoryNull},
	{regexp.MustCompile(`(?i)\b(invalid|validation|malformed|bad request|unprocessable)\b`), CategoryValidation},
	{regexp.MustCompile(`(?i)(rate limit|too many requests|throttl)`), CategoryRateLimit},
}

// Category maps a message to its error category; UNKNOWN when nothing
// matches. Never fails.
func Category(message string) string {
	for _, p := range categoryPatterns {
		if p.re.MatchString(message) {
			return p.category
		}
	}
	return CategoryUnknown
}

// Hash returns the 16-hex-char truncation of sha256(input).
func Hash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}

// FingerprintSet carries the four content-derived identity levels.
type FingerprintSet struct {
	Exact    string
	Template string
	Semantic string
	Category string
}

// Fingerprints derives the four-level fingerprint set for a message.
func Fingerprints(message, exceptionType, logger string) FingerprintSet {
	normalized := Normalize(message)
	category := Category(message)

	head := normalized
	if len(head) > 100 {
		head = head[:100]
	}

	return FingerprintSet{
		Exact:    Hash(message),
		Template: Hash(normalized),
		Semantic: Hash(exceptionType + "|" + category + "|" + logger + "|" + head),
		Category: Hash(exceptionType + "|" + category),
	}
}
