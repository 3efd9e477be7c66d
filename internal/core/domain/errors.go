package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLength is an error thrown when a declared upload length is not positive
var ErrInvalidLength = errors.New("invalid upload length")

// ErrSessionNotFound is an error thrown when an upload session is not found
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionCompleted is an error thrown when terminating a session whose
// upload already completed
var ErrSessionCompleted = errors.New("session already completed")

// ErrOffsetConflict is an error thrown when a chunk is sent at the wrong offset
var ErrOffsetConflict = errors.New("offset conflict")

// ErrContentTypeMismatch is an error thrown when a chunk does not carry the
// raw-byte protocol content type
var ErrContentTypeMismatch = errors.New("content type mismatch")

// ErrMissingMetadata is an error thrown when a completed upload lacks required
// correlation metadata
var ErrMissingMetadata = errors.New("missing required metadata")

// ErrRateLimitExceeded is an error thrown when a client exhausted its window budget
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// ErrInvalidFileType is an error thrown when a MIME type is not allow-listed
var ErrInvalidFileType = errors.New("invalid file type")

// ErrDangerousExtension is an error thrown when a filename carries a deny-listed extension
var ErrDangerousExtension = errors.New("dangerous file extension")

// ErrMismatchChecksum is an error thrown when checksums mismatch
var ErrMismatchChecksum = errors.New("mismatched checksum")

// ErrSizeMismatch is an error thrown when staged size and declared size mismatch
var ErrSizeMismatch = errors.New("size mismatch")

// ErrFileSizeTooBig is an error thrown when a declared length exceeds the maximum
var ErrFileSizeTooBig = errors.New("file size too big")

// ErrStorageTransient is an error thrown on retryable storage failures
var ErrStorageTransient = errors.New("transient storage failure")

// ErrStorageTerminal is an error thrown on storage failures that must not be retried
var ErrStorageTerminal = errors.New("terminal storage failure")

// ErrRecordNotFound is an error thrown when an upload record is not found
var ErrRecordNotFound = errors.New("upload record not found")

// OffsetConflictError carries both sides of a failed offset check-and-set so the
// client can self-correct. Unwraps to ErrOffsetConflict.
type OffsetConflictError struct {
	Expected int64
	Received int64
}

func (e *OffsetConflictError) Error() string {
	return fmt.Sprintf("offset conflict: expected %d, received %d", e.Expected, e.Received)
}

func (e *OffsetConflictError) Unwrap() error {
	return ErrOffsetConflict
}

// MissingMetadataError names the correlation fields a completed upload lacks.
// Unwraps to ErrMissingMetadata.
type MissingMetadataError struct {
	Fields []string
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("missing required metadata: %s", strings.Join(e.Fields, ", "))
}

func (e *MissingMetadataError) Unwrap() error {
	return ErrMissingMetadata
}
