package port

import (
	"context"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
)

// JobQueue accepts storage jobs for asynchronous processing. Enqueue returning
// nil means the job durably exists; an error means the caller must not assume
// the upload will ever be persisted.
type JobQueue interface {
	Enqueue(ctx context.Context, job domain.StorageJob, opts domain.JobOptions) error
}

// JobConsumer is an interface to define a queue consumer (nats, kafka, ...)
type JobConsumer interface {
	Subscribe(ctx context.Context, handler MessageService) error
	Close() error
}

// MessageService is an interface to define message handling. Returning an error
// wrapping domain.ErrStorageTerminal stops redelivery of the message; any other
// error requeues it under the consumer's backoff policy.
type MessageService interface {
	HandleMessage(ctx context.Context, data []byte) error
}
