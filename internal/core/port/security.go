package port

// SecurityValidator runs the pre-upload checks: rate limiting, file type
// allow-listing and filename sanitization.
type SecurityValidator interface {
	// Allow consumes budget for one request from clientID; returns
	// domain.ErrRateLimitExceeded when the window budget is exhausted.
	Allow(clientID string) error
	// ValidateFile rejects deny-listed extensions and non-allow-listed MIME types.
	ValidateFile(filename, contentType string) error
	// Sanitize is total: it always returns some safe filename.
	Sanitize(filename string) string
}
