package queue

import (
	"context"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

// MockJobQueue is a mock implementation of JobQueue
type MockJobQueue struct {
	mock.Mock
}

// NewMockJobQueue creates a new MockJobQueue
func NewMockJobQueue() *MockJobQueue {
	return &MockJobQueue{}
}

func (m *MockJobQueue) Enqueue(ctx context.Context, job domain.StorageJob, opts domain.JobOptions) error {
	args := m.Called(ctx, job, opts)
	return args.Error(0)
}
