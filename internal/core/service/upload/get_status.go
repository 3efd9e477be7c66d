package upload

import (
	"context"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/google/uuid"
)

// GetStatus returns a snapshot of the session's offset bookkeeping. Side-effect-free.
func (u *uploadService) GetStatus(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	return u.store.Get(ctx, id)
}
