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

const (
	ConnectionStatusOK     = "ok"
	ConnectionStatusFailed = "failed"
)

type LogSourceFacadeInterface interface {
	GetLogSource(ctx context.Context, id string) (*model.LogSource, error)
	ListEnabledSources(ctx context.Context, serviceId string) ([]*model.LogSource, error)
	AdvanceSourceFetchedAt(ctx context.Context, id string, now time.Time) error
	MarkSourceError(ctx context.Context, id string, reason string) error
}

type LogSourceFacade struct {
	BaseFacade
}

func NewLogSourceFacade() *LogSourceFacade {
	return &LogSourceFacade{}
}

func (f *LogSourceFacade) GetLogSource(ctx context.Context, id string) (*model.LogSource, error) {
	source := &model.LogSource{}
	err := f.getDB().WithContext(ctx).Where("id = ?", id).First(source).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return source, nil
}

func (f *LogSourceFacade) ListEnabledSources(ctx context.Context, serviceId string) ([]*model.LogSource, error) {
	var sources []*model.LogSource
	err := f.getDB().WithContext(ctx).
		Where("service_id = ? AND fetch_enabled = ?", serviceId, true).
		Order("id").
		Find(&sources).Error
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// AdvanceSourceFetchedAt records a successful fetch: the cursor moves and the
// connection status clears.
func (f *LogSourceFacade) AdvanceSourceFetchedAt(ctx context.Context, id string, now time.Time) error {
	return f.getDB().WithContext(ctx).
		Model(&model.LogSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_fetch_at":     now,
			"connection_status": ConnectionStatusOK,
			"last_error":        "",
		}).Error
}

// MarkSourceError records a failed fetch without moving the cursor, so the
// next run retries the same window.
func (f *LogSourceFacade) MarkSourceError(ctx context.Context, id string, reason string) error {
	return f.getDB().WithContext(ctx).
		Model(&model.LogSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"connection_status": ConnectionStatusFailed,
			"last_error":        reason,
		}).Error
}
