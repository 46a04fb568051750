// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package clusterapi exposes the cluster query surface consumed by the UI
// and the RCA collaborator.
package clusterapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AMD-AGI/primus-lens/loglens/pkg/database"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/database/model"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/errors"
	"github.com/AMD-AGI/primus-lens/loglens/pkg/model/rest"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type Handler struct {
	facade *database.Facade
	now    func() time.Time
}

func NewHandler(facade *database.Facade) *Handler {
	return &Handler{facade: facade, now: time.Now}
}

func (h *Handler) RegisterRoutes(group *gin.RouterGroup) error {
	group.GET("/clusters", h.ListClusters)
	group.GET("/clusters/:id", h.GetCluster)
	group.POST("/clusters/:id/status", h.SetStatus)
	return nil
}

// ClusterSummary is the list row shape.
type ClusterSummary struct {
	Id                string     `json:"id"`
	ServiceId         string     `json:"service_id"`
	FingerprintStatic string     `json:"fingerprint_static"`
	ExceptionType     string     `json:"exception_type"`
	ErrorCategory     string     `json:"error_category"`
	Logger            string     `json:"logger"`
	HasStackTrace     bool       `json:"has_stack_trace"`
	Size              int64      `json:"size"`
	Frequency24h      int64      `json:"frequency_24h"`
	FirstSeen         time.Time  `json:"first_seen"`
	LastSeen          time.Time  `json:"last_seen"`
	Status            string     `json:"status"`
	StatusUpdatedAt   *time.Time `json:"status_updated_at,omitempty"`
	HasRca            bool       `json:"has_rca"`
}

// ClusterDetail adds the representative snapshot and the hourly timeline.
type ClusterDetail struct {
	ClusterSummary
	LogSourceId      string            `json:"log_source_id"`
	ExceptionMessage string            `json:"exception_message"`
	Representative   model.ExtType     `json:"representative"`
	Buckets          model.HourBuckets `json:"buckets"`
	BucketHour       int64             `json:"bucket_hour"`
	StatusUpdatedBy  string            `json:"status_updated_by,omitempty"`
	Cold             bool              `json:"cold"`
}

func (h *Handler) ListClusters(c *gin.Context) {
	filter := &database.ClusterFilter{Limit: defaultListLimit}

	if v := c.Query("service_id"); v != "" {
		filter.ServiceId = &v
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.Error(errors.NewError().
				WithCode(errors.RequestParameterInvalid).
				WithMessagef("bad since %q, want RFC3339", v))
			return
		}
		filter.Since = &since
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			c.Error(errors.NewError().
				WithCode(errors.RequestParameterInvalid).
				WithMessagef("bad limit %q", v))
			return
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filter.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			c.Error(errors.NewError().
				WithCode(errors.RequestParameterInvalid).
				WithMessagef("bad offset %q", v))
			return
		}
		filter.Offset = offset
	}

	clusters, total, err := h.facade.Cluster.ListClusters(c.Request.Context(), filter)
	if err != nil {
		c.Error(errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessage("list clusters failed").
			WithError(err))
		return
	}

	now := h.now().UTC()
	rows := make([]*ClusterSummary, 0, len(clusters))
	for _, cl := range clusters {
		rows = append(rows, h.toSummary(cl, now))
	}
	c.JSON(200, rest.SuccessResp(c, rest.NewListData(rows, int(total))))
}

func (h *Handler) GetCluster(c *gin.Context) {
	id := c.Param("id")
	cl, err := h.facade.Cluster.GetCluster(c.Request.Context(), id)
	if err != nil {
		c.Error(errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessage("get cluster failed").
			WithError(err))
		return
	}
	if cl == nil {
		c.Error(errors.NewError().
			WithCode(errors.RequestDataNotExisted).
			WithMessagef("cluster %s not found", id))
		return
	}

	detail := &ClusterDetail{
		ClusterSummary:   *h.toSummary(cl, h.now().UTC()),
		LogSourceId:      cl.LogSourceId,
		ExceptionMessage: cl.ExceptionMessage,
		Representative:   cl.Representative,
		Buckets:          cl.Buckets,
		BucketHour:       cl.BucketHour,
		StatusUpdatedBy:  cl.StatusUpdatedBy,
		Cold:             cl.Cold,
	}
	c.JSON(200, rest.SuccessResp(c, detail))
}

type statusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

func (h *Handler) SetStatus(c *gin.Context) {
	id := c.Param("id")
	req := &statusRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(errors.NewError().
			WithCode(errors.RequestParameterInvalid).
			WithMessage("malformed status body").
			WithError(err))
		return
	}
	if req.Status == "" {
		c.Error(errors.NewError().
			WithCode(errors.RequestParameterInvalid).
			WithMessage("status is required"))
		return
	}

	err := h.facade.Cluster.SetClusterStatus(c.Request.Context(), id, req.Status, req.Actor, h.now().UTC())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(200, rest.SuccessResp(c, gin.H{"id": id, "status": req.Status}))
}

func (h *Handler) toSummary(cl *model.ExceptionCluster, now time.Time) *ClusterSummary {
	return &ClusterSummary{
		Id:                cl.Id,
		ServiceId:         cl.ServiceId,
		FingerprintStatic: cl.FingerprintStatic,
		ExceptionType:     cl.ExceptionType,
		ErrorCategory:     cl.ErrorCategory,
		Logger:            cl.Logger,
		HasStackTrace:     cl.HasStackTrace,
		Size:              cl.Size,
		Frequency24h:      cl.Frequency24h(now),
		FirstSeen:         cl.FirstSeen,
		LastSeen:          cl.LastSeen,
		Status:            cl.Status,
		StatusUpdatedAt:   cl.StatusUpdatedAt,
		HasRca:            cl.HasRca,
	}
}
