package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/findoc_server/internal/database"
	"github.com/qs3c/findoc_server/internal/model/dto"
	"github.com/qs3c/findoc_server/internal/pkg/queue"
	"github.com/qs3c/findoc_server/internal/pkg/response"
	"github.com/qs3c/findoc_server/internal/pkg/ws"
)

const (
	serviceName    = "Financial Document Analyzer"
	serviceVersion = "1.0.0"
	pingTimeout    = 2 * time.Second
)

// HealthHandler 连通性检查，db / rdb / queue / hub 都可以为 nil
type HealthHandler struct {
	db    *gorm.DB
	rdb   *redis.Client
	queue *queue.Queue
	hub   *ws.Hub
	mode  string
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, q *queue.Queue, hub *ws.Hub, mode string) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, queue: q, hub: hub, mode: mode}
}

// Health 总是返回 200，只报告各依赖是否可用
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	resp := &dto.HealthResponse{
		Status:       "healthy",
		Database:     database.PingDB(ctx, h.db),
		Redis:        database.PingRedis(ctx, h.rdb),
		QueueEnabled: h.queue != nil,
	}
	if h.queue != nil && resp.Redis {
		if n, err := h.queue.Length(ctx); err == nil {
			resp.QueueLength = &n
		}
	}
	if h.hub != nil {
		resp.Connections = h.hub.ConnectionCount()
	}
	if !resp.Database || (resp.QueueEnabled && !resp.Redis) {
		resp.Status = "degraded"
	}

	response.Success(c, resp)
}

// Banner 服务信息
// GET /
func (h *HealthHandler) Banner(c *gin.Context) {
	response.Success(c, &dto.BannerResponse{
		Name:    serviceName,
		Version: serviceVersion,
		Mode:    h.mode,
	})
}
