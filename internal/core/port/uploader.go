package port

import (
	"context"
	"io"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
)

// UploadObject describes the destination of one storage transfer.
type UploadObject struct {
	Key         string
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// Uploader is a pluggable storage backend. Implementations must be idempotent
// per key: re-uploading the same key overwrites rather than duplicating.
type Uploader interface {
	UploadFile(ctx context.Context, r io.Reader, obj UploadObject) (*domain.StorageResult, error)
	UploadMultipart(ctx context.Context, r io.Reader, obj UploadObject, chunkSize int64) (*domain.StorageResult, error)
	GetSignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)
	DeleteFile(ctx context.Context, key string) error
}
