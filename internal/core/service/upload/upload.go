package upload

import (
	"log/slog"

	"github.com/QriusGlobal/formio-server-sub004/internal/config"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/checksum"
)

// ProtocolVersion is the tus protocol version this server speaks.
const ProtocolVersion = "1.0.0"

// ContentTypeOffsetStream is the only content type chunks may be sent with.
const ContentTypeOffsetStream = "application/offset+octet-stream"

var extensions = []string{"creation", "termination", "checksum"}

type uploadService struct {
	store       port.SessionStore
	validator   port.SecurityValidator
	hook        port.CompletionHook
	checksummer port.Checksummer
	cfg         config.UploadConfig
	logger      *slog.Logger
}

// NewUploadService creates the resumable upload protocol service.
func NewUploadService(
	store port.SessionStore,
	validator port.SecurityValidator,
	hook port.CompletionHook,
	checksummer port.Checksummer,
	cfg config.UploadConfig,
	logger *slog.Logger,
) port.UploadService {
	return &uploadService{
		store:       store,
		validator:   validator,
		hook:        hook,
		checksummer: checksummer,
		cfg:         cfg,
		logger:      logger,
	}
}

// Capabilities is pure/static: the protocol surface advertised on OPTIONS.
func (u *uploadService) Capabilities() port.ServerCapabilities {
	return port.ServerCapabilities{
		Version:            ProtocolVersion,
		Extensions:         extensions,
		MaxSize:            u.cfg.MaxUploadSize,
		ChecksumAlgorithms: []string{checksum.Algorithm},
	}
}
