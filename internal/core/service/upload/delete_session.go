package upload

import (
	"context"

	"github.com/google/uuid"
)

// DeleteSession terminates the session synchronously. Deleting an unknown or
// already-deleted id reports ErrSessionNotFound; callers treat both as "gone".
func (u *uploadService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := u.store.Delete(ctx, id); err != nil {
		return err
	}
	u.logger.Info("upload session terminated", "session_id", id)
	return nil
}
