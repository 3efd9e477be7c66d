package completion

import (
	"context"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

// MockCompletionHook is a mock implementation of CompletionHook
type MockCompletionHook struct {
	mock.Mock
}

// NewMockCompletionHook creates a new MockCompletionHook
func NewMockCompletionHook() *MockCompletionHook {
	return &MockCompletionHook{}
}

func (m *MockCompletionHook) OnComplete(ctx context.Context, session *domain.UploadSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
