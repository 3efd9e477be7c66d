package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/config"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"
)

// Adapter stores completed uploads on the local filesystem. Meant for
// development and single-node deployments without an object store.
type Adapter struct {
	config config.LocalStorageConfig
	logger *slog.Logger
}

// NewAdapter creates the storage root if needed.
func NewAdapter(cfg config.LocalStorageConfig, logger *slog.Logger) (*Adapter, error) {
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", cfg.Dir, err)
	}
	return &Adapter{config: cfg, logger: logger}, nil
}

var _ port.Uploader = (*Adapter)(nil)

func (a *Adapter) resolve(key string) (string, error) {
	cleaned := filepath.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: invalid storage key %q", domain.ErrStorageTerminal, key)
	}
	return filepath.Join(a.config.Dir, cleaned), nil
}

// UploadFile writes r to disk under key. The write goes to a temp file first so
// a crash never leaves a half-written object at the final path.
func (a *Adapter) UploadFile(ctx context.Context, r io.Reader, obj port.UploadObject) (*domain.StorageResult, error) {
	path, err := a.resolve(obj.Key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}

	if obj.Size > 0 && written != obj.Size {
		return nil, fmt.Errorf("%w: wrote %d bytes, expected %d", domain.ErrStorageTerminal, written, obj.Size)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}

	a.logger.Info("object stored locally",
		slog.String("key", obj.Key),
		slog.Int64("size", written))

	return &domain.StorageResult{
		DestinationKey: obj.Key,
		URL:            a.objectURL(obj.Key),
		ChunkCount:     1,
	}, nil
}

// UploadMultipart is a plain copy on a local filesystem; chunking buys nothing.
func (a *Adapter) UploadMultipart(ctx context.Context, r io.Reader, obj port.UploadObject, chunkSize int64) (*domain.StorageResult, error) {
	result, err := a.UploadFile(ctx, r, obj)
	if err != nil {
		return nil, err
	}
	if chunkSize > 0 && obj.Size > 0 {
		result.ChunkCount = int((obj.Size + chunkSize - 1) / chunkSize)
	}
	return result, nil
}

// GetSignedURL returns a static URL; local storage has no signing.
func (a *Adapter) GetSignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if _, err := a.resolve(key); err != nil {
		return "", err
	}
	return a.objectURL(key), nil
}

// DeleteFile removes the stored object. Deleting an absent key is not an error.
func (a *Adapter) DeleteFile(ctx context.Context, key string) error {
	path, err := a.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	return nil
}

func (a *Adapter) objectURL(key string) string {
	return strings.TrimSuffix(a.config.BaseURL, "/") + "/" + key
}
