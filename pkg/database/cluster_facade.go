// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
)

// ClusterFilter narrows cluster listings. Nil pointer fields mean "any".
type ClusterFilter struct {
	ServiceId *string
	Status    *string
	Since     *time.Time
	Limit     int
	Offset    int
}

type ClusterFacadeInterface interface {
	GetCluster(ctx context.Context, id string) (*model.ExceptionCluster, error)
	GetClusterByKey(ctx context.Context, serviceId, fingerprintStatic string) (*model.ExceptionCluster, error)
	ListClusters(ctx context.Context, filter *ClusterFilter) ([]*model.ExceptionCluster, int64, error)
	FindOrCreateCluster(ctx context.Context, cluster *model.ExceptionCluster) (*model.ExceptionCluster, bool, error)
	TouchCluster(ctx context.Context, id string, now time.Time) error
	SetClusterStatus(ctx context.Context, id, status, actor string, now time.Time) error
	CountClustersCreatedSince(ctx context.Context, serviceId string, since time.Time) (int64, error)
	MarkResolvedColdBefore(ctx context.Context, serviceId string, cutoff time.Time) (int64, error)
}

type ClusterFacade struct {
	BaseFacade
}

func NewClusterFacade() *ClusterFacade {
	return &ClusterFacade{}
}

func (f *ClusterFacade) GetCluster(ctx context.Context, id string) (*model.ExceptionCluster, error) {
	cluster := &model.ExceptionCluster{}
	err := f.getDB().WithContext(ctx).Where("id = ?", id).First(cluster).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cluster, nil
}

func (f *ClusterFacade) GetClusterByKey(ctx context.Context, serviceId, fingerprintStatic string) (*model.ExceptionCluster, error) {
	cluster := &model.ExceptionCluster{}
	err := f.getDB().WithContext(ctx).
		Where("service_id = ? AND fingerprint_static = ?", serviceId, fingerprintStatic).
		First(cluster).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cluster, nil
}

func (f *ClusterFacade) ListClusters(ctx context.Context, filter *ClusterFilter) ([]*model.ExceptionCluster, int64, error) {
	query := f.getDB().WithContext(ctx).Model(&model.ExceptionCluster{})
	if filter != nil {
		if filter.ServiceId != nil {
			query = query.Where("service_id = ?", *filter.ServiceId)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.Since != nil {
			query = query.Where("last_seen >= ?", *filter.Since)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("last_seen DESC")
	if filter != nil {
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			query = query.Offset(filter.Offset)
		}
	}

	var clusters []*model.ExceptionCluster
	if err := query.Find(&clusters).Error; err != nil {
		return nil, 0, err
	}
	return clusters, total, nil
}

// FindOrCreateCluster inserts the cluster under the unique key
// (service_id, fingerprint_static). Concurrent first-sight races resolve at
// the storage layer: the loser's insert is a no-op and it reads back the
// winner's row. Returns (cluster, created).
func (f *ClusterFacade) FindOrCreateCluster(ctx context.Context, cluster *model.ExceptionCluster) (*model.ExceptionCluster, bool, error) {
	db := f.getDB().WithContext(ctx)

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_id"}, {Name: "fingerprint_static"}},
		DoNothing: true,
	}).Create(cluster)
	if result.Error != nil {
		return nil, false, errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessage("create cluster failed").
			WithError(result.Error)
	}
	if result.RowsAffected > 0 {
		return cluster, true, nil
	}

	existing, err := f.GetClusterByKey(ctx, cluster.ServiceId, cluster.FingerprintStatic)
	if err != nil {
		return nil, false, errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessage("reread cluster after conflict failed").
			WithError(err)
	}
	if existing == nil {
		// Insert lost to a row that vanished before the re-read. Callers
		// retry the whole find-or-create.
		return nil, false, errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessagef("cluster %s/%s missing after conflict", cluster.ServiceId, cluster.FingerprintStatic)
	}
	return existing, false, nil
}

// TouchCluster bumps last_seen and size and rolls the 24h bucket ring, all in
// one transaction holding the row lock so concurrent hits serialize per
// cluster.
func (f *ClusterFacade) TouchCluster(ctx context.Context, id string, now time.Time) error {
	return f.getDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		cluster := &model.ExceptionCluster{}
		if err := query.Where("id = ?", id).First(cluster).Error; err != nil {
			return err
		}

		if cluster.Buckets == nil {
			cluster.Buckets = model.NewHourBuckets()
		}
		nowHour := now.UTC().Unix() / 3600
		bucketHour := cluster.Buckets.Touch(cluster.BucketHour, nowHour)

		updates := map[string]interface{}{
			"size":        gorm.Expr("size + 1"),
			"buckets":     cluster.Buckets,
			"bucket_hour": bucketHour,
		}
		if now.After(cluster.LastSeen) {
			updates["last_seen"] = now
		}
		return tx.Model(&model.ExceptionCluster{}).
			Where("id = ?", id).
			Updates(updates).Error
	})
}

// SetClusterStatus applies a user-driven status transition. Re-applying the
// current status only refreshes status_updated_at/by.
func (f *ClusterFacade) SetClusterStatus(ctx context.Context, id, status, actor string, now time.Time) error {
	switch status {
	case model.ClusterStatusActive, model.ClusterStatusSkipped, model.ClusterStatusResolved:
	default:
		return errors.NewError().
			WithCode(errors.RequestParameterInvalid).
			WithMessagef("unknown cluster status %q", status)
	}

	result := f.getDB().WithContext(ctx).
		Model(&model.ExceptionCluster{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":            status,
			"status_updated_at": now,
			"status_updated_by": actor,
		})
	if result.Error != nil {
		return errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessage("update cluster status failed").
			WithError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewError().
			WithCode(errors.RequestDataNotExisted).
			WithMessagef("cluster %s not found", id)
	}
	return nil
}

func (f *ClusterFacade) CountClustersCreatedSince(ctx context.Context, serviceId string, since time.Time) (int64, error) {
	var count int64
	err := f.getDB().WithContext(ctx).
		Model(&model.ExceptionCluster{}).
		Where("service_id = ? AND created_at > ?", serviceId, since).
		Count(&count).Error
	return count, err
}

// MarkResolvedColdBefore flags resolved clusters untouched since cutoff as
// cold. Cold clusters stay queryable but drop out of default listings.
func (f *ClusterFacade) MarkResolvedColdBefore(ctx context.Context, serviceId string, cutoff time.Time) (int64, error) {
	result := f.getDB().WithContext(ctx).
		Model(&model.ExceptionCluster{}).
		Where("service_id = ? AND status = ? AND cold = ? AND last_seen < ?",
			serviceId, model.ClusterStatusResolved, false, cutoff).
		Update("cold", true)
	return result.RowsAffected, result.Error
}
