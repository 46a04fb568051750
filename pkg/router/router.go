// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/config"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/router/middleware"
)

var (
	groupRegisters []GroupRegister
)

func RegisterGroup(group GroupRegister) {
	groupRegisters = append(groupRegisters, group)
}

func InitRouter(engine *gin.Engine, cfg *config.Config) error {
	g := engine.Group("")
	g.Use(middleware.HandleMetrics())
	g.Use(middleware.HandleLogging())

	// Error handling middleware is always enabled
	g.Use(middleware.HandleErrors())

	// CORS middleware is always enabled
	g.Use(middleware.CorsMiddleware())

	for _, group := range groupRegisters {
		err := group(g)
		if err != nil {
			return err
		}
	}
	return nil
}

type GroupRegister func(group *gin.RouterGroup) error
