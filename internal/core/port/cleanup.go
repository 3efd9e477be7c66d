package port

import (
	"context"
	"time"
)

// CleanupService is service that evicts expired upload sessions
type CleanupService interface {
	CleanupExpiredSessions(ctx context.Context, now time.Time) error
}
