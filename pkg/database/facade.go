// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import "sync"

// Facade aggregates all entity facades behind one accessor.
type Facade struct {
	Service   ServiceFacadeInterface
	LogSource LogSourceFacadeInterface
	Cluster   ClusterFacadeInterface
	Indexing  IndexingFacadeInterface
}

var (
	globalFacade *Facade
	facadeOnce   sync.Once
)

func GetFacade() *Facade {
	facadeOnce.Do(func() {
		if globalFacade == nil {
			globalFacade = &Facade{
				Service:   NewServiceFacade(),
				LogSource: NewLogSourceFacade(),
				Cluster:   NewClusterFacade(),
				Indexing:  NewIndexingFacade(),
			}
		}
	})
	return globalFacade
}

// SetFacade installs a replacement aggregate; used by tests.
func SetFacade(f *Facade) {
	globalFacade = f
}
