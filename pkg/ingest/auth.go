// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package ingest

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/rest"
)

// BearerAuth checks the shared ingest token. Runs before any record-level
// validation so unauthenticated callers learn nothing about the batch.
func BearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(200, rest.ErrorResp(c, errors.AuthFailed, "invalid ingest token", nil))
			return
		}
		c.Next()
	}
}
