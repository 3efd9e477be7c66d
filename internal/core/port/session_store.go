package port

import (
	"context"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/google/uuid"
)

// SessionStore holds in-flight resumable upload sessions. Append is the only
// mutation of offset and must be atomic per session id: the claimed offset is
// compared and the chunk applied under the same per-session critical section.
type SessionStore interface {
	Create(ctx context.Context, session domain.UploadSession) error
	Get(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error)
	Append(ctx context.Context, id uuid.UUID, claimedOffset int64, chunk []byte) (*domain.UploadSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindAllExpired(ctx context.Context, now time.Time) ([]domain.UploadSession, error)
}
