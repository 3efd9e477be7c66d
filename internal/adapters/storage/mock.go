package storage

import (
	"context"
	"io"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"

	"github.com/stretchr/testify/mock"
)

// MockUploader is a mock implementation of Uploader
type MockUploader struct {
	mock.Mock
}

// NewMockUploader creates a new MockUploader
func NewMockUploader() *MockUploader {
	return &MockUploader{}
}

func (m *MockUploader) UploadFile(ctx context.Context, r io.Reader, obj port.UploadObject) (*domain.StorageResult, error) {
	args := m.Called(ctx, r, obj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StorageResult), args.Error(1)
}

func (m *MockUploader) UploadMultipart(ctx context.Context, r io.Reader, obj port.UploadObject, chunkSize int64) (*domain.StorageResult, error) {
	args := m.Called(ctx, r, obj, chunkSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StorageResult), args.Error(1)
}

func (m *MockUploader) GetSignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Error(1)
}

func (m *MockUploader) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
