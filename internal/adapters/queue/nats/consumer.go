package nats

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/config"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// receiveRetryWait spaces out receive attempts after an iterator error.
const receiveRetryWait = 2 * time.Second

// Consumer pulls storage jobs from JetStream and dispatches them to a handler.
// Terminal handler errors terminate the message; anything else naks it back
// onto the retry schedule.
type Consumer struct {
	logger *slog.Logger
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
	iter   jetstream.MessagesContext
	wg     sync.WaitGroup
}

// NewConsumer creates a new storage job consumer.
func NewConsumer(cfg config.NATSConfig, logger *slog.Logger) (*Consumer, error) {
	conn, js, err := connect(cfg, cfg.ConsumerName, logger)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		conn:   conn,
		js:     js,
		config: cfg,
		logger: logger,
	}, nil
}

// Subscribe binds a durable consumer to the stream and handles messages until
// ctx is cancelled or Close is called. The retry policy mirrors the fixed
// storage job options, with the queue enforcing the attempt cap and backoff.
func (n *Consumer) Subscribe(ctx context.Context, handler port.MessageService) error {
	opts := domain.StorageJobOptions()

	consumerCfg := jetstream.ConsumerConfig{
		Durable:       n.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: n.config.Subject,
		AckWait:       5 * time.Minute,
		MaxDeliver:    opts.Attempts,
		BackOff:       opts.BackoffSchedule(),
	}

	cons, err := n.js.CreateOrUpdateConsumer(ctx, n.config.StreamName, consumerCfg)
	if err != nil {
		return err
	}

	iter, err := cons.Messages()
	if err != nil {
		return err
	}
	n.iter = iter

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.logger.Info("storage job subscription started", "stream", n.config.StreamName, "consumer", n.config.ConsumerName)
		for {
			select {
			case <-ctx.Done():
				n.logger.Info("storage job subscription stopped")
				return
			default:
				msg, err := iter.Next()
				if err != nil {
					if stopReceiving(ctx, err) {
						n.logger.Info("storage job subscription stopped")
						return
					}
					// Iterator hiccups (missed heartbeats during a server
					// reconnect) must not kill the worker's subscription.
					n.logger.Error("failed to receive message, retrying", "error", err)
					select {
					case <-ctx.Done():
						n.logger.Info("storage job subscription stopped")
						return
					case <-time.After(receiveRetryWait):
					}
					continue
				}

				n.dispatch(ctx, handler, msg)
			}
		}
	}()
	return nil
}

// stopReceiving reports whether an iterator error ends the subscription:
// only cancellation or a stopped iterator does, anything else is retried.
func stopReceiving(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, jetstream.ErrMsgIteratorClosed)
}

func (n *Consumer) dispatch(ctx context.Context, handler port.MessageService, msg jetstream.Msg) {
	handleErr := handler.HandleMessage(ctx, msg.Data())
	if handleErr == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			n.logger.Error("failed to ack message", "error", ackErr)
		}
		return
	}

	if errors.Is(handleErr, domain.ErrStorageTerminal) {
		// Redelivery cannot fix this job. Stop retrying; the failure survives
		// in the upload record for inspection.
		n.logger.Error("storage job terminated", "error", handleErr)
		if termErr := msg.Term(); termErr != nil {
			n.logger.Error("failed to term message", "error", termErr)
		}
		return
	}

	n.logger.Warn("storage job failed, will retry", "error", handleErr)
	if nakErr := msg.Nak(); nakErr != nil {
		n.logger.Error("failed to nak message", "error", nakErr)
	}
}

// Close graceful shutdown
func (n *Consumer) Close() error {
	if n.iter != nil {
		n.iter.Stop()
	}

	n.wg.Wait()

	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
