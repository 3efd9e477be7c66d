package storagejob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"
)

// DestinationKey derives the deterministic storage key for a job. Every retry
// of the same upload writes the same key, so at-least-once delivery cannot
// create duplicate objects.
func DestinationKey(job domain.StorageJob) string {
	return fmt.Sprintf("forms/%s/%s", job.FormID, job.UploadID)
}

// HandleMessage processes one storage job. Errors wrapping
// domain.ErrStorageTerminal stop redelivery; anything else is retried under
// the queue's backoff policy.
func (s *storageJobService) HandleMessage(ctx context.Context, data []byte) error {
	var job domain.StorageJob
	if err := json.Unmarshal(data, &job); err != nil {
		// A malformed payload never heals, no matter how often it is redelivered.
		return fmt.Errorf("%w: could not unmarshal storage job: %v", domain.ErrStorageTerminal, err)
	}

	err := s.process(ctx, job)
	if err != nil && errors.Is(err, domain.ErrStorageTerminal) {
		s.logger.Error("storage job failed terminally", "upload_id", job.UploadID, "error", err)
		if markErr := s.records.MarkFailed(ctx, job.UploadID); markErr != nil {
			s.logger.Error("failed to mark upload record failed", "upload_id", job.UploadID, "error", markErr)
		}
	}
	return err
}

func (s *storageJobService) process(ctx context.Context, job domain.StorageJob) error {
	uploadID := job.UploadID.String()

	size, err := s.stage.Size(uploadID)
	if err != nil {
		return fmt.Errorf("%w: staged bytes missing for upload %s: %v", domain.ErrStorageTerminal, uploadID, err)
	}
	if size != job.FileSize {
		return fmt.Errorf("%w: staged %d bytes, job declares %d", domain.ErrStorageTerminal, size, job.FileSize)
	}

	if s.cfg.VerifyChecksum && job.Checksum != "" {
		result := s.checksummer.Validate(ctx, s.stage.Path(uploadID), job.Checksum)
		if result.Err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageTerminal, result.Err)
		}
	}

	r, err := s.stage.Open(uploadID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageTerminal, err)
	}
	defer r.Close()

	obj := port.UploadObject{
		Key:         DestinationKey(job),
		ContentType: contentTypeOrDefault(job.ContentType),
		Size:        size,
		Metadata: map[string]string{
			"upload-id":     uploadID,
			"form-id":       job.FormID,
			"submission-id": job.SubmissionID,
			"field-key":     job.FieldKey,
		},
	}

	var result *domain.StorageResult
	if size > s.cfg.MultipartThreshold {
		result, err = s.uploader.UploadMultipart(ctx, r, obj, s.cfg.MultipartChunkSize)
	} else {
		result, err = s.uploader.UploadFile(ctx, r, obj)
	}
	if err != nil {
		return s.classify(err)
	}

	// The record carries a signed download URL so the form server can hand it
	// out without its own storage credentials.
	signedURL, err := s.uploader.GetSignedURL(ctx, result.DestinationKey, s.cfg.SignedURLTTL)
	if err != nil {
		return s.classify(err)
	}

	if err := s.records.MarkStored(ctx, job.UploadID, result.DestinationKey, signedURL); err != nil {
		// The object is stored; let the retry re-run the idempotent upload and
		// record update rather than losing the URL.
		return fmt.Errorf("%w: failed to update upload record: %v", domain.ErrStorageTransient, err)
	}

	if err := s.stage.Remove(uploadID); err != nil {
		s.logger.Warn("failed to remove staged file", "upload_id", uploadID, "error", err)
	}

	s.logger.Info("upload persisted",
		"upload_id", uploadID,
		"key", result.DestinationKey,
		"url", signedURL,
		"size", size,
		"chunks", result.ChunkCount,
	)
	return nil
}

// classify decides whether a storage failure is worth retrying. Adapters tag
// their errors; anything untagged is treated as transient so the attempt
// counter, not a guess, decides its fate.
func (s *storageJobService) classify(err error) error {
	if errors.Is(err, domain.ErrStorageTerminal) {
		return err
	}
	if errors.Is(err, domain.ErrStorageTransient) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
}

func contentTypeOrDefault(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
