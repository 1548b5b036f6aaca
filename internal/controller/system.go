package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskflow/internal/middleware"
)

// Health returns 200 if the process is alive. Used by load balancers.
func (ct *Controller) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 if DB and Redis are reachable. Used by K8s readiness probes.
func (ct *Controller) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if ct.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
		return
	}
	if err := ct.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database ping failed"})
		return
	}
	if err := ct.cache.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
		return
	}
	c.String(http.StatusOK, "OK")
}

// Root returns basic service info.
func (ct *Controller) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "taskflow",
		"status":  "running",
	})
}

// Stats returns the owner's activity counters aggregated by the worker.
// Counters are eventually consistent with the task event stream.
func (ct *Controller) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.Owner(c)

	activity, err := ct.cache.Activity(ctx, owner)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": owner, "activity": activity})
}
