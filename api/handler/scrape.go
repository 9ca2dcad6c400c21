package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuwatch/menuwatch/models"
	"github.com/menuwatch/menuwatch/tracker"
)

// Enqueuer hands job ids to the worker pool.
type Enqueuer interface {
	Enqueue(jobID string) error
}

// Trigger returns a handler for POST /api/v1/scrape/trigger.
//
// The scrape runs asynchronously: the response carries a job id the
// caller polls. A full queue is reported immediately instead of blocking
// the request.
func Trigger(tr *tracker.Tracker, pool Enqueuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TriggerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Normalize()
		if verr := req.Validate(); verr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.ToDetail()})
			return
		}

		job := tr.Create(req.SourceType, req.SourceID, req.Platform, req.URL)
		if err := pool.Enqueue(job.JobID); err != nil {
			tr.Complete(job.JobID, models.StateFailed, 0, "scrape queue is full")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": &models.ErrorDetail{
					Code:    models.CodeOf(err),
					Message: "scrape queue is full, try again later",
				},
			})
			return
		}

		c.JSON(http.StatusAccepted, models.TriggerResponse{
			JobID:   job.JobID,
			State:   job.State,
			Message: "scrape queued; poll /api/v1/scrape/status/" + job.JobID,
		})
	}
}

// JobStatus returns a handler for GET /api/v1/scrape/status/:job_id.
func JobStatus(tr *tracker.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := tr.Get(c.Param("job_id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.JobResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "job not found; it may have been evicted",
				},
			})
			return
		}
		c.JSON(http.StatusOK, models.JobResponse{Job: &snap})
	}
}

// LatestJob returns a handler for GET /api/v1/scrape/source/:id/latest.
func LatestJob(tr *tracker.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := tr.LatestForSource(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.JobResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "no jobs recorded for source",
				},
			})
			return
		}
		c.JSON(http.StatusOK, models.JobResponse{Job: &snap})
	}
}

// ActiveJobs returns a handler for GET /api/v1/scrape/active.
func ActiveJobs(tr *tracker.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs := tr.Active()
		if jobs == nil {
			jobs = []models.JobSnapshot{}
		}
		c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
	}
}
