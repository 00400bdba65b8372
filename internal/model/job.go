package model

import "time"

// JobStatus is the lifecycle state of an analysis job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether a job in this status will never advance again
// without an operator reset.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Error codes attached to failed jobs.
const (
	ErrCodeInsufficientData = "insufficient_data"
	ErrCodeStuckJob         = "stuck_job"
	ErrCodePipelineError    = "pipeline_error"
)

// AnalysisJob is the durable unit of work. Created by the submission API in
// pending; mutated exclusively by the orchestrator; terminal in completed or
// failed. UpdatedAt is the staleness signal for the recovery sweep, so every
// pipeline stage touches it on progress, not just on completion.
type AnalysisJob struct {
	ID           string    `json:"-"`
	AccessKey    string    `json:"accessKey"`
	ChannelID    string    `json:"channelId"`
	Owner        string    `json:"-"`
	Status       JobStatus `json:"status"`
	CurrentPhase string    `json:"currentPhase,omitempty"`
	Progress     int       `json:"progressPercentage"`
	RetryCount   int       `json:"retryCount"`
	ErrorCode    string    `json:"errorCode,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// JobStats is the aggregate view served by the stats endpoint.
type JobStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Stuck      int `json:"stuck"`
}
