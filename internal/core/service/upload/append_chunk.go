package upload

import (
	"context"
	"fmt"
	"strings"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/checksum"
)

// AppendChunk applies one chunk at the claimed offset. When the final byte
// lands, the completion hook runs synchronously before this returns: a hook
// failure is surfaced to the caller together with the completed session, so
// the client learns that the bytes were accepted but processing was not queued.
func (u *uploadService) AppendChunk(ctx context.Context, req port.ChunkRequest) (*domain.UploadSession, error) {

	if req.ContentType != ContentTypeOffsetStream {
		return nil, fmt.Errorf("%w: got %q, want %q", domain.ErrContentTypeMismatch, req.ContentType, ContentTypeOffsetStream)
	}

	if req.Checksum != "" {
		if !strings.EqualFold(req.ChecksumAlgorithm, checksum.Algorithm) {
			return nil, fmt.Errorf("%w: unsupported checksum algorithm %q", domain.ErrMismatchChecksum, req.ChecksumAlgorithm)
		}
		if got := u.checksummer.SumBytes(req.Body); !strings.EqualFold(got, req.Checksum) {
			return nil, fmt.Errorf("%w: expected %s, got %s", domain.ErrMismatchChecksum, req.Checksum, got)
		}
	}

	session, err := u.store.Append(ctx, req.ID, req.ClaimedOffset, req.Body)
	if err != nil {
		return nil, err
	}

	// Only the append that landed the final byte fires the hook: an empty
	// completion probe returns the complete snapshot without re-triggering,
	// and the offset check-and-set guarantees a single winning final chunk.
	if session.Status == domain.UploadSessionStatusComplete && len(req.Body) > 0 {
		u.logger.Info("upload complete",
			"session_id", session.ID,
			"total_length", session.TotalLength,
		)
		if hookErr := u.hook.OnComplete(ctx, session); hookErr != nil {
			// Bytes are durably staged and the session is marked complete;
			// only the handoff failed.
			return session, hookErr
		}
	}

	return session, nil
}
