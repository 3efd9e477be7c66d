package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadRecordStatus represents the status of a submission-file record
type UploadRecordStatus string

const (
	UploadRecordStatusPending UploadRecordStatus = "pending"
	UploadRecordStatusStored  UploadRecordStatus = "stored"
	UploadRecordStatusFailed  UploadRecordStatus = "failed"
)

// UploadRecord ties a completed upload to the form submission that owns it and,
// once the storage worker finishes, to its final location in cloud storage.
type UploadRecord struct {
	UploadID     uuid.UUID
	FileName     string
	FileSize     int64
	ContentType  string
	FormID       string
	SubmissionID string
	FieldKey     string
	UserID       string
	Status       UploadRecordStatus
	StorageKey   string
	StorageURL   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
