package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadSessionStatus represents the status of an upload session
type UploadSessionStatus string

const (
	UploadSessionStatusCreated    UploadSessionStatus = "created"
	UploadSessionStatusUploading  UploadSessionStatus = "uploading"
	UploadSessionStatusComplete   UploadSessionStatus = "complete"
	UploadSessionStatusTerminated UploadSessionStatus = "terminated"
)

// Metadata keys the protocol layer and completion hook agree on.
const (
	MetaFilename     = "filename"
	MetaContentType  = "filetype"
	MetaFormID       = "formId"
	MetaSubmissionID = "submissionId"
	MetaFieldKey     = "fieldKey"
	MetaUserID       = "userId"
	MetaChecksum     = "checksum"
)

// UploadSession represents a resumable upload in flight. Offset only moves
// forward, and only through a successful check-and-set append.
type UploadSession struct {
	ID          uuid.UUID
	TotalLength int64
	Offset      int64
	Metadata    map[string]string
	Status      UploadSessionStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
	ExpiresAt   time.Time
}

// IsComplete reports whether every declared byte has been accepted.
func (s *UploadSession) IsComplete() bool {
	return s.Offset == s.TotalLength
}

// Filename returns the caller-declared filename, if any.
func (s *UploadSession) Filename() string {
	return s.Metadata[MetaFilename]
}

// ContentType returns the caller-declared content type, if any.
func (s *UploadSession) ContentType() string {
	return s.Metadata[MetaContentType]
}
