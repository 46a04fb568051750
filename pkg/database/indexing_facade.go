// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
)

type IndexingFacadeInterface interface {
	CreateRun(ctx context.Context, run *model.IndexingRun) error
	FinishRun(ctx context.Context, id uint, status, errMsg string, now time.Time) error
	GetLatestRun(ctx context.Context, serviceId string) (*model.IndexingRun, error)
	HasRunningRun(ctx context.Context, serviceId string) (bool, error)
}

type IndexingFacade struct {
	BaseFacade
}

func NewIndexingFacade() *IndexingFacade {
	return &IndexingFacade{}
}

func (f *IndexingFacade) CreateRun(ctx context.Context, run *model.IndexingRun) error {
	return f.getDB().WithContext(ctx).Create(run).Error
}

func (f *IndexingFacade) FinishRun(ctx context.Context, id uint, status, errMsg string, now time.Time) error {
	return f.getDB().WithContext(ctx).
		Model(&model.IndexingRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"error":       errMsg,
			"finished_at": now,
		}).Error
}

func (f *IndexingFacade) GetLatestRun(ctx context.Context, serviceId string) (*model.IndexingRun, error) {
	run := &model.IndexingRun{}
	err := f.getDB().WithContext(ctx).
		Where("service_id = ?", serviceId).
		Order("created_at DESC").
		First(run).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return run, nil
}

func (f *IndexingFacade) HasRunningRun(ctx context.Context, serviceId string) (bool, error) {
	var count int64
	err := f.getDB().WithContext(ctx).
		Model(&model.IndexingRun{}).
		Where("service_id = ? AND status = ?", serviceId, model.IndexingStatusRunning).
		Count(&count).Error
	return count > 0, err
}
