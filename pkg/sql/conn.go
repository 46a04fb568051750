// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package sql

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/config"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/logger/log"
)

const DefaultDBKey = "default"

var (
	connPools = map[string]*gorm.DB{}
	poolMutex sync.RWMutex
)

func InitGormDB(key string, conf *config.DatabaseConfig) error {
	db, err := gorm.Open(postgres.Open(conf.DSN()), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return fmt.Errorf("open postgres %s:%d/%s: %w", conf.Host, conf.Port, conf.DBName, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(conf.GetMaxConns())
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	poolMutex.Lock()
	connPools[key] = db
	poolMutex.Unlock()

	log.Infof("database pool %q initialized (%s:%d/%s, max_conns=%d)",
		key, conf.Host, conf.Port, conf.DBName, conf.GetMaxConns())
	return nil
}

func GetDB(key string) *gorm.DB {
	poolMutex.RLock()
	defer poolMutex.RUnlock()
	return connPools[key]
}

func GetDefaultDB() *gorm.DB {
	return GetDB(DefaultDBKey)
}

// SetDefaultDB swaps the default pool; used by tests to install SQLite.
func SetDefaultDB(db *gorm.DB) {
	poolMutex.Lock()
	defer poolMutex.Unlock()
	connPools[DefaultDBKey] = db
}
