package models

// TriggerResponse is returned immediately from the trigger endpoint;
// callers poll the job endpoint with the returned id.
type TriggerResponse struct {
	JobID   string `json:"job_id"`
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// JobResponse wraps a job snapshot for the polling endpoint.
type JobResponse struct {
	Job   *JobSnapshot `json:"job,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// SchedulerStatus is the snapshot exposed by GET /api/v1/scheduler/status.
type SchedulerStatus struct {
	Running      bool   `json:"is_running"`
	LastRun      string `json:"last_run,omitempty"`
	NextRun      string `json:"next_run,omitempty"`
	LastEnqueued int    `json:"last_enqueued"`
}
