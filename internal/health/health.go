package health

import (
	"context"
	"time"

	"hvac-backend/internal/cache"
	"hvac-backend/internal/models"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OutboxStatter reports notification backlog.
type OutboxStatter interface {
	Stats(ctx context.Context) (*models.OutboxStats, error)
}

type HealthChecker struct {
	db     Pinger
	cache  *cache.Store
	outbox OutboxStatter
}

type HealthStatus struct {
	Status   string              `json:"status"`
	Database ComponentHealth     `json:"database"`
	Redis    ComponentHealth     `json:"redis"`
	Outbox   *models.OutboxStats `json:"outbox,omitempty"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

func NewHealthChecker(db Pinger, store *cache.Store, outbox OutboxStatter) *HealthChecker {
	return &HealthChecker{db: db, cache: store, outbox: outbox}
}

// CheckBasic reports unhealthy only when the database is down. Redis is
// optional: without it the service runs uncached and reports "degraded".
func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Database: h.checkDatabase(ctx),
		Redis:    h.checkRedis(ctx),
	}

	switch {
	case status.Database.Status != "healthy":
		status.Status = "unhealthy"
	case status.Redis.Status != "healthy":
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}
	return status
}

// CheckDetailed adds the outbox backlog.
func (h *HealthChecker) CheckDetailed(ctx context.Context) HealthStatus {
	status := h.CheckBasic(ctx)
	if h.outbox != nil && status.Database.Status == "healthy" {
		if stats, err := h.outbox.Stats(ctx); err == nil {
			status.Outbox = stats
		}
	}
	return status
}

func (h *HealthChecker) checkDatabase(ctx context.Context) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}

func (h *HealthChecker) checkRedis(ctx context.Context) ComponentHealth {
	if h.cache.Client() == nil {
		return ComponentHealth{Status: "disabled"}
	}
	start := time.Now()
	ok := h.cache.IsHealthy(ctx)
	responseTime := time.Since(start).Milliseconds()
	if !ok {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}
