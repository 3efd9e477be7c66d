package cleanup

import (
	"context"
	"time"
)

// CleanupExpiredSessions deletes every incomplete session past its deadline,
// along with its staged bytes. One failing session does not stop the sweep.
func (c *cleanupService) CleanupExpiredSessions(ctx context.Context, now time.Time) error {

	sessions, err := c.store.FindAllExpired(ctx, now)
	if err != nil {
		return err
	}

	for _, session := range sessions {
		if deleteErr := c.store.Delete(ctx, session.ID); deleteErr != nil {
			c.logger.Error("failed to evict expired session", "session_id", session.ID, "err", deleteErr)
			continue
		}
		c.logger.Info("evicted expired session",
			"session_id", session.ID,
			"offset", session.Offset,
			"total_length", session.TotalLength,
			"expired_at", session.ExpiresAt,
		)
	}
	return nil
}
