package completion_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/queue"
	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/repository"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/completion"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completedSession() *domain.UploadSession {
	completedAt := time.Now()
	return &domain.UploadSession{
		ID:          uuid.New(),
		TotalLength: 2048,
		Offset:      2048,
		Status:      domain.UploadSessionStatusComplete,
		CompletedAt: &completedAt,
		Metadata: map[string]string{
			domain.MetaFilename:     "scan.pdf",
			domain.MetaContentType:  "application/pdf",
			domain.MetaFormID:       "form-42",
			domain.MetaSubmissionID: "sub-7",
			domain.MetaFieldKey:     "attachment",
			domain.MetaUserID:       "user-9",
		},
	}
}

func TestOnComplete_EnqueuesJobWithFixedOptions(t *testing.T) {
	ctx := context.Background()
	mockQueue := queue.NewMockJobQueue()
	mockRecords := repository.NewMockUploadRecordRepository()
	hook := completion.NewCompletionHook(mockQueue, mockRecords, discardLogger())

	session := completedSession()

	mockRecords.On("Create", ctx, mock.MatchedBy(func(r domain.UploadRecord) bool {
		return r.UploadID == session.ID && r.Status == domain.UploadRecordStatusPending
	})).Return(nil)

	mockQueue.On("Enqueue", ctx, mock.MatchedBy(func(job domain.StorageJob) bool {
		return job.UploadID == session.ID &&
			job.FileName == "scan.pdf" &&
			job.FileSize == 2048 &&
			job.FormID == "form-42" &&
			job.SubmissionID == "sub-7" &&
			job.FieldKey == "attachment" &&
			job.UserID == "user-9"
	}), domain.JobOptions{
		Attempts:         5,
		Backoff:          domain.BackoffExponential,
		BackoffDelay:     2000 * time.Millisecond,
		RemoveOnComplete: true,
		RemoveOnFail:     false,
	}).Return(nil)

	err := hook.OnComplete(ctx, session)

	require.NoError(t, err)
	mockQueue.AssertExpectations(t)
	mockRecords.AssertExpectations(t)
}

func TestOnComplete_MissingMetadata(t *testing.T) {
	ctx := context.Background()
	mockQueue := queue.NewMockJobQueue()
	mockRecords := repository.NewMockUploadRecordRepository()
	hook := completion.NewCompletionHook(mockQueue, mockRecords, discardLogger())

	session := completedSession()
	delete(session.Metadata, domain.MetaFieldKey)

	err := hook.OnComplete(ctx, session)

	var missing *domain.MissingMetadataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{domain.MetaFieldKey}, missing.Fields)
	assert.Contains(t, err.Error(), "missing required metadata: fieldKey")
	mockQueue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
	mockRecords.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOnComplete_AllCorrelationFieldsMissing(t *testing.T) {
	ctx := context.Background()
	mockQueue := queue.NewMockJobQueue()
	mockRecords := repository.NewMockUploadRecordRepository()
	hook := completion.NewCompletionHook(mockQueue, mockRecords, discardLogger())

	session := completedSession()
	session.Metadata = map[string]string{}

	err := hook.OnComplete(ctx, session)

	var missing *domain.MissingMetadataError
	require.ErrorAs(t, err, &missing)
	assert.ElementsMatch(t, []string{domain.MetaFormID, domain.MetaFieldKey}, missing.Fields)
}

func TestOnComplete_EnqueueFailurePropagates(t *testing.T) {
	ctx := context.Background()
	mockQueue := queue.NewMockJobQueue()
	mockRecords := repository.NewMockUploadRecordRepository()
	hook := completion.NewCompletionHook(mockQueue, mockRecords, discardLogger())

	mockRecords.On("Create", ctx, mock.Anything).Return(nil)
	backendDown := errors.New("nats: no responders")
	mockQueue.On("Enqueue", ctx, mock.Anything, mock.Anything).Return(backendDown)

	err := hook.OnComplete(ctx, completedSession())

	assert.ErrorIs(t, err, backendDown)
}

func TestOnComplete_RecordFailurePropagates(t *testing.T) {
	ctx := context.Background()
	mockQueue := queue.NewMockJobQueue()
	mockRecords := repository.NewMockUploadRecordRepository()
	hook := completion.NewCompletionHook(mockQueue, mockRecords, discardLogger())

	dbDown := errors.New("connection refused")
	mockRecords.On("Create", ctx, mock.Anything).Return(dbDown)

	err := hook.OnComplete(ctx, completedSession())

	assert.ErrorIs(t, err, dbDown)
	mockQueue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
}
