package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/google/uuid"
)

// CreateSession runs the pre-upload security checks, then registers a fresh
// session at offset 0.
func (u *uploadService) CreateSession(ctx context.Context, clientID string, totalLength int64, metadata map[string]string) (*domain.UploadSession, error) {

	if err := u.validator.Allow(clientID); err != nil {
		return nil, err
	}

	if totalLength <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidLength, totalLength)
	}
	if totalLength > u.cfg.MaxUploadSize {
		return nil, fmt.Errorf("%w: %d exceeds maximum %d", domain.ErrFileSizeTooBig, totalLength, u.cfg.MaxUploadSize)
	}

	if metadata == nil {
		metadata = make(map[string]string)
	}
	if filename := metadata[domain.MetaFilename]; filename != "" {
		if err := u.validator.ValidateFile(filename, metadata[domain.MetaContentType]); err != nil {
			return nil, err
		}
		metadata[domain.MetaFilename] = u.validator.Sanitize(filename)
	}

	now := time.Now()
	session := domain.UploadSession{
		ID:          uuid.New(),
		TotalLength: totalLength,
		Metadata:    metadata,
		Status:      domain.UploadSessionStatusCreated,
		CreatedAt:   now,
		ExpiresAt:   now.Add(u.cfg.SessionTTL),
	}

	if err := u.store.Create(ctx, session); err != nil {
		return nil, err
	}

	u.logger.Info("upload session created",
		"session_id", session.ID,
		"total_length", totalLength,
		"filename", metadata[domain.MetaFilename],
	)

	return &session, nil
}
