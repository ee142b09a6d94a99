package api

import (
	"context"
	"net/http"

	"pixmuse/internal/notifier"
	"pixmuse/internal/pkg/config"
	"pixmuse/internal/worker"

	"github.com/gin-gonic/gin"
)

// QueuePinger is the queue liveness probe as the health surface sees it.
type QueuePinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	queue QueuePinger
	pool  *worker.Pool
	hub   *notifier.Hub
	cfg   config.PipelineConfig
}

func NewHealthHandler(queue QueuePinger, pool *worker.Pool, hub *notifier.Hub, cfg config.PipelineConfig) *HealthHandler {
	return &HealthHandler{
		queue: queue,
		pool:  pool,
		hub:   hub,
		cfg:   cfg,
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

// @Summary Queue health
// @Description Probe the job queue for liveness
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health/queue [get]
func (h *HealthHandler) Queue(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.HealthProbeTimeout)
	defer cancel()

	if err := h.queue.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// @Summary Worker health
// @Description Per-worker heartbeat freshness and current job
// @Tags health
// @Produce json
// @Success 200 {array} worker.WorkerStatus
// @Failure 503 {array} worker.WorkerStatus
// @Router /health/workers [get]
func (h *HealthHandler) Workers(c *gin.Context) {
	status := http.StatusOK
	if !h.pool.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, h.pool.Status())
}

// @Summary Notifier health
// @Description Push connection and subscription counts
// @Tags health
// @Produce json
// @Success 200 {object} notifier.Stats
// @Router /health/notifier [get]
func (h *HealthHandler) Notifier(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Stats())
}
