// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/common/bootstrap"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := bootstrap.Bootstrap(ctx)
	if err != nil {
		log.Fatalf("Failed to bootstrap loglens: %v", err)
	}
}
