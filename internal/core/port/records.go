package port

import (
	"context"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/google/uuid"
)

// UploadRecordRepository persists submission-file records.
type UploadRecordRepository interface {
	Create(ctx context.Context, record domain.UploadRecord) error
	MarkStored(ctx context.Context, uploadID uuid.UUID, storageKey, storageURL string) error
	MarkFailed(ctx context.Context, uploadID uuid.UUID) error
	FindByUploadID(ctx context.Context, uploadID uuid.UUID) (*domain.UploadRecord, error)
}
