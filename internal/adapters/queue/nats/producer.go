package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/QriusGlobal/formio-server-sub004/internal/config"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Producer publishes storage jobs to a JetStream work-queue stream. Publish is
// synchronous: once Enqueue returns nil the job is replicated in the stream.
type Producer struct {
	logger *slog.Logger
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
}

// NewProducer connects to NATS and ensures the storage job stream exists.
func NewProducer(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*Producer, error) {
	conn, js, err := connect(cfg, "storage-job-producer", logger)
	if err != nil {
		return nil, err
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{cfg.Subject},
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}

	return &Producer{
		conn:   conn,
		js:     js,
		config: cfg,
		logger: logger,
	}, nil
}

// Enqueue publishes one storage job. The upload id doubles as the message id,
// so a retried publish of the same completion cannot create a second job.
func (p *Producer) Enqueue(ctx context.Context, job domain.StorageJob, opts domain.JobOptions) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal storage job: %w", err)
	}

	_, err = p.js.Publish(ctx, p.config.Subject, data, jetstream.WithMsgID(job.UploadID.String()))
	if err != nil {
		return fmt.Errorf("failed to publish storage job: %w", err)
	}

	p.logger.Info("storage job published", "upload_id", job.UploadID, "subject", p.config.Subject)
	return nil
}

// Close releases the NATS connection.
func (p *Producer) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
