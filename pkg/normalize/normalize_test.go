// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVolatileTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "ip port and timestamp",
			input:    "Connection failed to 10.0.0.1:5432 at 2025-01-01T00:00:00Z",
			expected: "connection failed to <IP>:<NUMBER> at <TIMESTAMP>",
		},
		{
			name:     "different ip same template",
			input:    "Connection failed to 10.0.0.2:5432 at 2025-01-01T00:01:00Z",
			expected: "connection failed to <IP>:<NUMBER> at <TIMESTAMP>",
		},
		{
			name:     "uuid",
			input:    "request 550e8400-e29b-41d4-a716-446655440000 rejected",
			expected: "request <UUID> rejected",
		},
		{
			name:     "url before path",
			input:    "GET https://api.example.com/v1/users failed",
			expected: "get <URL> failed",
		},
		{
			name:     "file path",
			input:    "cannot open /var/log/app/current.log",
			expected: "cannot open <PATH>",
		},
		{
			name:     "email",
			input:    "mail to ops@example.com bounced",
			expected: "mail to <EMAIL> bounced",
		},
		{
			name:     "json payload",
			input:    `bad payload {"user": 1} received`,
			expected: "bad payload <JSON> received",
		},
		{
			name:     "id shaped tokens",
			input:    "lookup for user_12345 and id-678 failed",
			expected: "lookup for <ID> and <ID> failed",
		},
		{
			name:     "small numbers survive",
			input:    "retry 3 of 5 failed with code 50012",
			expected: "retry 3 of 5 failed with code <NUMBER>",
		},
		{
			name:     "whitespace collapsed",
			input:    "too   many\t spaces",
			expected: "too many spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Connection failed to 10.0.0.1:5432 at 2025-01-01T00:00:00Z",
		"cannot open /var/log/app/current.log",
		"request 550e8400-e29b-41d4-a716-446655440000 rejected for user_99",
		"plain message with no volatile tokens",
	}
	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "input %q", input)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		message  string
		expected string
	}{
		{"Connection refused by upstream", CategoryConnection},
		{"read timed out after 30s", CategoryTimeout},
		{"401 unauthorized for token", CategoryAuth},
		{"deadlock detected in transaction", CategoryDatabase},
		{"no route to host, network unreachable", CategoryNetwork},
		{"no such file or directory", CategoryFilesystem},
		{"java.lang.OutOfMemoryError: Java heap space", CategoryMemory},
		{"NullPointerException in handler", CategoryNull},
		{"validation failed for field email", CategoryValidation},
		{"429 too many requests", CategoryRateLimit},
		{"something completely unremarkable", CategoryUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Category(tt.message), "message %q", tt.message)
	}
}

func TestCategoryFirstMatchWins(t *testing.T) {
	// Connection precedes timeout in the declared order.
	assert.Equal(t, CategoryConnection, Category("connection timed out"))
}

func TestHash(t *testing.T) {
	h := Hash("anything")
	assert.Len(t, h, 16)
	assert.Equal(t, h, Hash("anything"))
	assert.NotEqual(t, h, Hash("anything else"))
}

func TestFingerprintsTemplateLaw(t *testing.T) {
	x := "Connection failed to 10.0.0.1:5432 at 2025-01-01T00:00:00Z"
	y := "Connection failed to 10.0.0.2:5432 at 2025-01-01T00:01:00Z"
	assert.Equal(t, Normalize(x), Normalize(y))

	fx := Fingerprints(x, "", "db.pool")
	fy := Fingerprints(y, "", "db.pool")
	assert.Equal(t, fx.Template, fy.Template)
	assert.NotEqual(t, fx.Exact, fy.Exact)
	assert.Equal(t, fx.Semantic, fy.Semantic)
	assert.Equal(t, fx.Category, fy.Category)
}

func TestFingerprintsTypeSensitivity(t *testing.T) {
	a := Fingerprints("validation failed for field a", "ValueError", "api")
	b := Fingerprints("validation failed for field a", "TypeError", "api")
	assert.NotEqual(t, a.Semantic, b.Semantic)
	assert.NotEqual(t, a.Category, b.Category)
}
