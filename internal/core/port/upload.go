package port

import (
	"context"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/google/uuid"
)

// ServerCapabilities is the static protocol surface advertised to clients.
type ServerCapabilities struct {
	Version            string
	Extensions         []string
	MaxSize            int64
	ChecksumAlgorithms []string
}

// ChunkRequest carries one AppendChunk invocation.
type ChunkRequest struct {
	ID            uuid.UUID
	ClaimedOffset int64
	Body          []byte
	ContentType   string
	// Checksum is the optional per-chunk integrity header, empty when absent.
	ChecksumAlgorithm string
	Checksum          string
}

// UploadService implements the resumable upload protocol state machine.
type UploadService interface {
	CreateSession(ctx context.Context, clientID string, totalLength int64, metadata map[string]string) (*domain.UploadSession, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error)
	AppendChunk(ctx context.Context, req ChunkRequest) (*domain.UploadSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	Capabilities() ServerCapabilities
}

// CompletionHook fires synchronously when a session reaches complete, before
// the triggering append returns to its caller.
type CompletionHook interface {
	OnComplete(ctx context.Context, session *domain.UploadSession) error
}
