package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menuwatch/menuwatch/models"
	"github.com/menuwatch/menuwatch/sched"
	"github.com/menuwatch/menuwatch/tracker"
)

// Health returns a handler for GET /api/v1/health.
func Health(tr *tracker.Tracker, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"uptime":      time.Since(startTime).Round(time.Second).String(),
			"active_jobs": len(tr.Active()),
			"version":     "0.1.0",
		})
	}
}

// SchedulerStatus returns a handler for GET /api/v1/scheduler/status. A
// nil scheduler means the sweep is disabled by configuration.
func SchedulerStatus(s *sched.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s == nil {
			c.JSON(http.StatusOK, models.SchedulerStatus{Running: false})
			return
		}
		c.JSON(http.StatusOK, s.Status())
	}
}
