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

type ServiceFacadeInterface interface {
	GetService(ctx context.Context, id string) (*model.Service, error)
	ListActiveServices(ctx context.Context) ([]*model.Service, error)
	AdvanceLastLogFetch(ctx context.Context, id string, now time.Time) error
	AdvanceLastCleanup(ctx context.Context, id string, now time.Time) error
	UpdateIndexedCommit(ctx context.Context, id, commitHash string, now time.Time) error
}

type ServiceFacade struct {
	BaseFacade
}

func NewServiceFacade() *ServiceFacade {
	return &ServiceFacade{}
}

func (f *ServiceFacade) GetService(ctx context.Context, id string) (*model.Service, error) {
	svc := &model.Service{}
	err := f.getDB().WithContext(ctx).Where("id = ?", id).First(svc).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return svc, nil
}

func (f *ServiceFacade) ListActiveServices(ctx context.Context) ([]*model.Service, error) {
	var services []*model.Service
	err := f.getDB().WithContext(ctx).
		Where("active = ?", true).
		Order("id").
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (f *ServiceFacade) AdvanceLastLogFetch(ctx context.Context, id string, now time.Time) error {
	return f.getDB().WithContext(ctx).
		Model(&model.Service{}).
		Where("id = ?", id).
		Update("last_log_fetch", now).Error
}

func (f *ServiceFacade) AdvanceLastCleanup(ctx context.Context, id string, now time.Time) error {
	return f.getDB().WithContext(ctx).
		Model(&model.Service{}).
		Where("id = ?", id).
		Update("last_cleanup_at", now).Error
}

func (f *ServiceFacade) UpdateIndexedCommit(ctx context.Context, id, commitHash string, now time.Time) error {
	return f.getDB().WithContext(ctx).
		Model(&model.Service{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_indexed_commit": commitHash,
			"last_indexed_at":     now,
		}).Error
}
