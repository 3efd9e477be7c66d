package domain

import "time"

// ChecksumResult is the outcome of one streaming checksum computation.
// Computed once, never mutated.
type ChecksumResult struct {
	Checksum       string
	Size           int64
	ProcessingTime time.Duration
	Valid          bool
	Err            error
}
