// Package api assembles the HTTP surface: scrape triggering and polling,
// source management, menu and alert reads, and operational endpoints.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menuwatch/menuwatch/api/handler"
	"github.com/menuwatch/menuwatch/api/middleware"
	"github.com/menuwatch/menuwatch/config"
	"github.com/menuwatch/menuwatch/sched"
	"github.com/menuwatch/menuwatch/store"
	"github.com/menuwatch/menuwatch/tracker"
)

// Deps carries everything the routes need.
type Deps struct {
	Tracker   *tracker.Tracker
	Pool      handler.Enqueuer
	Sources   *store.SourceRegistry
	Menus     *store.MenuStore
	Scheduler *sched.Scheduler // nil when disabled
	Registry  *prometheus.Registry
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     RateLimit
//
// Health and metrics sit outside the rate limiter so monitoring probes
// always work.
func NewRouter(deps Deps, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(deps.Tracker, deps.StartTime))
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	limited := v1.Group("")
	limited.Use(middleware.RateLimit(cfg.RateLimit))

	// Scrape lifecycle
	limited.POST("/scrape/trigger", handler.Trigger(deps.Tracker, deps.Pool))
	limited.GET("/scrape/status/:job_id", handler.JobStatus(deps.Tracker))
	limited.GET("/scrape/source/:id/latest", handler.LatestJob(deps.Tracker))
	limited.GET("/scrape/active", handler.ActiveJobs(deps.Tracker))

	// Sources
	limited.POST("/sources", handler.CreateSource(deps.Sources))
	limited.GET("/sources", handler.ListSources(deps.Sources))
	limited.GET("/sources/:id", handler.GetSource(deps.Sources))
	limited.PATCH("/sources/:id", handler.UpdateSource(deps.Sources))
	limited.DELETE("/sources/:id", handler.DeleteSource(deps.Sources))

	// Menus and alerts
	limited.GET("/menus/:id/:platform", handler.Menu(deps.Menus))
	limited.GET("/menus/:id/:platform/history", handler.PriceHistory(deps.Menus))
	limited.GET("/alerts", handler.Alerts(deps.Menus))

	// Scheduler
	limited.GET("/scheduler/status", handler.SchedulerStatus(deps.Scheduler))

	return r
}
