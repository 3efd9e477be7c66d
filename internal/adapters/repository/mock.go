package repository

import (
	"context"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUploadRecordRepository is a mock implementation of UploadRecordRepository
type MockUploadRecordRepository struct {
	mock.Mock
}

// NewMockUploadRecordRepository creates a new MockUploadRecordRepository
func NewMockUploadRecordRepository() *MockUploadRecordRepository {
	return &MockUploadRecordRepository{}
}

func (m *MockUploadRecordRepository) Create(ctx context.Context, record domain.UploadRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUploadRecordRepository) MarkStored(ctx context.Context, uploadID uuid.UUID, storageKey, storageURL string) error {
	args := m.Called(ctx, uploadID, storageKey, storageURL)
	return args.Error(0)
}

func (m *MockUploadRecordRepository) MarkFailed(ctx context.Context, uploadID uuid.UUID) error {
	args := m.Called(ctx, uploadID)
	return args.Error(0)
}

func (m *MockUploadRecordRepository) FindByUploadID(ctx context.Context, uploadID uuid.UUID) (*domain.UploadRecord, error) {
	args := m.Called(ctx, uploadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadRecord), args.Error(1)
}
