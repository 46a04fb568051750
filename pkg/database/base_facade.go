// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"gorm.io/gorm"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/sql"
)

type BaseFacade struct {
}

func (f *BaseFacade) getDB() *gorm.DB {
	return sql.GetDefaultDB()
}
