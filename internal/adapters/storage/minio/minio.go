package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/config"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Adapter persists completed uploads to a MinIO/S3 bucket.
type Adapter struct {
	client *minio.Client
	core   *minio.Core
	config config.MinioConfig
	logger *slog.Logger
}

// NewAdapter connects to MinIO and ensures the bucket exists.
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	core := minio.Core{Client: client}
	return &Adapter{client: client, config: cfg, core: &core, logger: logger}, nil
}

var _ port.Uploader = (*Adapter)(nil)

// UploadFile streams r into the bucket as a single object.
func (a *Adapter) UploadFile(ctx context.Context, r io.Reader, obj port.UploadObject) (*domain.StorageResult, error) {
	opts := minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: obj.Metadata,
	}

	info, err := a.client.PutObject(ctx, a.config.BucketName, obj.Key, r, obj.Size, opts)
	if err != nil {
		return nil, a.classify(fmt.Errorf("failed to put object %s: %w", obj.Key, err))
	}

	a.logger.Info("object uploaded",
		slog.String("key", info.Key),
		slog.Int64("size", info.Size))

	return &domain.StorageResult{
		DestinationKey: info.Key,
		URL:            a.objectURL(info.Key),
		ChunkCount:     1,
	}, nil
}

// UploadMultipart streams r into the bucket in parts of chunkSize bytes. The
// multipart session is aborted on any part failure so no orphaned parts
// accumulate between retries.
func (a *Adapter) UploadMultipart(ctx context.Context, r io.Reader, obj port.UploadObject, chunkSize int64) (*domain.StorageResult, error) {
	opts := minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: obj.Metadata,
	}

	uploadID, err := a.core.NewMultipartUpload(ctx, a.config.BucketName, obj.Key, opts)
	if err != nil {
		return nil, a.classify(fmt.Errorf("failed to init multipart upload: %w", err))
	}

	parts, uploadErr := a.uploadParts(ctx, r, obj.Key, uploadID, chunkSize)
	if uploadErr != nil {
		if abortErr := a.core.AbortMultipartUpload(ctx, a.config.BucketName, obj.Key, uploadID); abortErr != nil {
			a.logger.Error("failed to abort multipart upload", "key", obj.Key, "error", abortErr)
		}
		return nil, a.classify(uploadErr)
	}

	_, err = a.core.CompleteMultipartUpload(ctx, a.config.BucketName, obj.Key, uploadID, parts, minio.PutObjectOptions{})
	if err != nil {
		return nil, a.classify(fmt.Errorf("failed to complete multipart upload: %w", err))
	}

	a.logger.Info("multipart object uploaded",
		slog.String("key", obj.Key),
		slog.Int("parts", len(parts)))

	return &domain.StorageResult{
		DestinationKey: obj.Key,
		URL:            a.objectURL(obj.Key),
		ChunkCount:     len(parts),
	}, nil
}

func (a *Adapter) uploadParts(ctx context.Context, r io.Reader, key, uploadID string, chunkSize int64) ([]minio.CompletePart, error) {
	var parts []minio.CompletePart
	buf := make([]byte, chunkSize)
	partNumber := 1

	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			part, putErr := a.core.PutObjectPart(ctx, a.config.BucketName, key, uploadID, partNumber,
				bytes.NewReader(buf[:n]), int64(n), minio.PutObjectPartOptions{})
			if putErr != nil {
				return nil, fmt.Errorf("failed to upload part %d: %w", partNumber, putErr)
			}
			parts = append(parts, minio.CompletePart{
				PartNumber: part.PartNumber,
				ETag:       part.ETag,
			})
			partNumber++
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			return parts, nil
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read part %d: %w", partNumber, readErr)
		}
	}
}

// GetSignedURL returns a presigned download URL for the stored object.
func (a *Adapter) GetSignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	presignedURL, err := a.client.PresignedGetObject(ctx, a.config.BucketName, key, expiresIn, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return presignedURL.String(), nil
}

// DeleteFile removes the object. Deleting an absent key is not an error.
func (a *Adapter) DeleteFile(ctx context.Context, key string) error {
	err := a.client.RemoveObject(ctx, a.config.BucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return a.classify(fmt.Errorf("failed to delete object: %w", err))
	}

	a.logger.Info("object deleted",
		slog.String("key", key),
		slog.String("bucket", a.config.BucketName))
	return nil
}

func (a *Adapter) objectURL(key string) string {
	scheme := "http"
	if a.config.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, a.config.Endpoint, a.config.BucketName, key)
}

// classify tags errors for the retry policy. Client-side mistakes (bad key,
// access denied, entity too large) get ErrStorageTerminal; timeouts, throttling
// and server faults get ErrStorageTransient.
func (a *Adapter) classify(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == 0 {
		// Not an S3 API error, likely a network failure.
		return fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %v", domain.ErrStorageTerminal, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
}
