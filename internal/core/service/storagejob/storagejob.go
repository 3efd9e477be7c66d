package storagejob

import (
	"log/slog"

	"github.com/QriusGlobal/formio-server-sub004/internal/config"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"
)

type storageJobService struct {
	uploader    port.Uploader
	stage       port.ChunkStage
	records     port.UploadRecordRepository
	checksummer port.Checksummer
	cfg         config.WorkerConfig
	logger      *slog.Logger
}

// NewStorageJobService creates the worker-side handler that persists completed
// uploads to cloud storage.
func NewStorageJobService(
	uploader port.Uploader,
	stage port.ChunkStage,
	records port.UploadRecordRepository,
	checksummer port.Checksummer,
	cfg config.WorkerConfig,
	logger *slog.Logger,
) port.MessageService {
	return &storageJobService{
		uploader:    uploader,
		stage:       stage,
		records:     records,
		checksummer: checksummer,
		cfg:         cfg,
		logger:      logger,
	}
}
