package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"
)

var requiredMetadata = []string{domain.MetaFormID, domain.MetaFieldKey}

type completionService struct {
	queue   port.JobQueue
	records port.UploadRecordRepository
	logger  *slog.Logger
}

// NewCompletionHook creates the hook that hands completed uploads to the
// storage pipeline. It runs synchronously inside the final AppendChunk, so any
// error it returns reaches the uploading client.
func NewCompletionHook(queue port.JobQueue, records port.UploadRecordRepository, logger *slog.Logger) port.CompletionHook {
	return &completionService{queue: queue, records: records, logger: logger}
}

// OnComplete validates required correlation metadata, records the submission
// file as pending, and enqueues exactly one storage job. Acceptance of the job
// is synchronous; the storage upload itself is not.
func (c *completionService) OnComplete(ctx context.Context, session *domain.UploadSession) error {

	var missing []string
	for _, key := range requiredMetadata {
		if session.Metadata[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &domain.MissingMetadataError{Fields: missing}
	}

	uploadedAt := time.Now()
	if session.CompletedAt != nil {
		uploadedAt = *session.CompletedAt
	}

	job := domain.StorageJob{
		UploadID:     session.ID,
		FileName:     session.Filename(),
		FileSize:     session.TotalLength,
		ContentType:  session.ContentType(),
		FormID:       session.Metadata[domain.MetaFormID],
		SubmissionID: session.Metadata[domain.MetaSubmissionID],
		FieldKey:     session.Metadata[domain.MetaFieldKey],
		UserID:       session.Metadata[domain.MetaUserID],
		UploadedAt:   uploadedAt,
		Checksum:     session.Metadata[domain.MetaChecksum],
	}

	record := domain.UploadRecord{
		UploadID:     job.UploadID,
		FileName:     job.FileName,
		FileSize:     job.FileSize,
		ContentType:  job.ContentType,
		FormID:       job.FormID,
		SubmissionID: job.SubmissionID,
		FieldKey:     job.FieldKey,
		UserID:       job.UserID,
		Status:       domain.UploadRecordStatusPending,
	}
	if err := c.records.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to record completed upload: %w", err)
	}

	if err := c.queue.Enqueue(ctx, job, domain.StorageJobOptions()); err != nil {
		return fmt.Errorf("failed to enqueue storage job: %w", err)
	}

	c.logger.Info("storage job enqueued",
		"upload_id", job.UploadID,
		"form_id", job.FormID,
		"field_key", job.FieldKey,
		"file_size", job.FileSize,
	)
	return nil
}
