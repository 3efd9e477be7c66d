package cleanup

import (
	"log/slog"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"
)

type cleanupService struct {
	store  port.SessionStore
	logger *slog.Logger
}

// NewCleanupService creates the sweeper that evicts expired upload sessions.
func NewCleanupService(store port.SessionStore, logger *slog.Logger) port.CleanupService {
	return &cleanupService{
		store:  store,
		logger: logger,
	}
}
