package domain

import (
	"time"

	"github.com/google/uuid"
)

// StorageJobName is the queue subject/job name every storage job is published under.
const StorageJobName = "storage-upload"

// StorageJob is a durable work item: persist one completed upload to cloud storage.
// Created exactly once per completed session, consumed at-least-once by a worker.
type StorageJob struct {
	UploadID     uuid.UUID `json:"uploadId"`
	FileName     string    `json:"fileName"`
	FileSize     int64     `json:"fileSize"`
	ContentType  string    `json:"contentType"`
	FormID       string    `json:"formId"`
	SubmissionID string    `json:"submissionId"`
	FieldKey     string    `json:"fieldKey"`
	UserID       string    `json:"userId"`
	UploadedAt   time.Time `json:"uploadedAt"`
	// Checksum is the client-declared whole-file checksum, empty when the
	// client did not provide one.
	Checksum string `json:"checksum,omitempty"`
}

// BackoffType names a retry delay schedule.
type BackoffType string

// BackoffExponential doubles the delay between attempts.
const BackoffExponential BackoffType = "exponential"

// JobOptions controls queue retry and retention behavior for a job.
type JobOptions struct {
	Attempts         int
	Backoff          BackoffType
	BackoffDelay     time.Duration
	RemoveOnComplete bool
	RemoveOnFail     bool
}

// StorageJobOptions returns the fixed retry policy for storage jobs:
// 5 attempts, exponential backoff from 2s, successful jobs pruned,
// failed jobs retained for inspection.
func StorageJobOptions() JobOptions {
	return JobOptions{
		Attempts:         5,
		Backoff:          BackoffExponential,
		BackoffDelay:     2000 * time.Millisecond,
		RemoveOnComplete: true,
		RemoveOnFail:     false,
	}
}

// BackoffSchedule expands the options into the concrete waits between attempts.
func (o JobOptions) BackoffSchedule() []time.Duration {
	waits := make([]time.Duration, 0, o.Attempts)
	delay := o.BackoffDelay
	for i := 0; i < o.Attempts; i++ {
		waits = append(waits, delay)
		if o.Backoff == BackoffExponential {
			delay *= 2
		}
	}
	return waits
}

// StorageResult records where a completed upload landed.
type StorageResult struct {
	DestinationKey string
	URL            string
	ChunkCount     int
}
