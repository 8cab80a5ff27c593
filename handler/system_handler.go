package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/bayramdkmn/notepad-intern/middleware"
	"github.com/bayramdkmn/notepad-intern/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	statusOK            = "ok"
	statusDegraded      = "degraded"
	statusUnavailable   = "unavailable"
	statusConfigured    = "configured"
	statusNotConfigured = "not configured"

	pingTimeout = 2 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReport is the detailed health view. Dependencies are reported, not
// enforced, so the endpoint itself answers 200.
type HealthReport struct {
	Status string           `json:"status"`
	DB     string           `json:"db"`
	Cache  string           `json:"cache"`
	Queue  string           `json:"queue"`
	Host   *utils.HostStats `json:"host,omitempty"`
}

type SystemHandler struct {
	db               Pinger
	cache            Pinger
	brokerConfigured bool
	metrics          *middleware.RequestMetrics
	hostStats        func(context.Context) (utils.HostStats, error)
	logger           *slog.Logger
}

// NewSystemHandler takes a nil cache when none is configured.
func NewSystemHandler(db, cache Pinger, brokerConfigured bool, metrics *middleware.RequestMetrics, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		db:               db,
		cache:            cache,
		brokerConfigured: brokerConfigured,
		metrics:          metrics,
		hostStats:        utils.GetHostStats,
		logger:           logger,
	}
}

func (h *SystemHandler) Healthy(c *gin.Context) {
	utils.Success(c, gin.H{"status": "healthy"})
}

func (h *SystemHandler) DetailedHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	report := HealthReport{
		Cache: statusNotConfigured,
		Queue: statusNotConfigured,
	}
	if h.brokerConfigured {
		report.Queue = statusConfigured
	}

	// each check writes only its own field
	var g errgroup.Group
	g.Go(func() error {
		report.DB = h.check(ctx, "db", h.db)
		return nil
	})
	if h.cache != nil {
		g.Go(func() error {
			report.Cache = h.check(ctx, "cache", h.cache)
			return nil
		})
	}
	if h.hostStats != nil {
		g.Go(func() error {
			stats, err := h.hostStats(ctx)
			if err != nil {
				h.logger.WarnContext(ctx, "host stats unavailable", "error", err)
				return nil
			}
			report.Host = &stats
			return nil
		})
	}
	_ = g.Wait()

	report.Status = statusOK
	if report.DB != statusOK || report.Cache == statusUnavailable {
		report.Status = statusDegraded
	}
	utils.Success(c, report)
}

func (h *SystemHandler) check(ctx context.Context, name string, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
		return statusUnavailable
	}
	return statusOK
}

func (h *SystemHandler) Metrics(c *gin.Context) {
	utils.Success(c, h.metrics.Snapshot())
}
