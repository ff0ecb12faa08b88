// Package messaging dispatches committed wallet transactions to the event
// producer without blocking the request path.
package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/digital-wallet-ledger/internal/domain/transaction"
	"github.com/digital-wallet-ledger/internal/platform/messaging/producers"
)

const publishTimeout = 5 * time.Second

// EventNotifier hands committed transactions to a worker pool that publishes
// them via the producer. Publishing is best-effort: a full pool or a broker
// failure drops the event with a log line, never an error to the caller.
type EventNotifier struct {
	producer producers.MessagePublisher
	pool     *ants.Pool
	logger   *slog.Logger
}

// NewEventNotifier creates a notifier backed by a worker pool of the given size.
func NewEventNotifier(producer producers.MessagePublisher, poolSize int, logger *slog.Logger) (*EventNotifier, error) {
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &EventNotifier{
		producer: producer,
		pool:     pool,
		logger:   logger,
	}, nil
}

// TransactionCompleted enqueues the transaction for publishing. Called after
// the storage transaction commits.
func (n *EventNotifier) TransactionCompleted(t *transaction.Transaction) {
	event := *t
	err := n.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := n.producer.Publish(ctx, event.ID.String(), &event); err != nil {
			n.logger.Error("Failed to publish transaction event",
				"transaction_id", event.ID,
				"type", event.Type,
				"error", err,
			)
		}
	})
	if err != nil {
		n.logger.Warn("Dropping transaction event, dispatch pool unavailable",
			"transaction_id", t.ID,
			"error", err,
		)
	}
}

// Shutdown releases the worker pool and closes the producer.
func (n *EventNotifier) Shutdown() {
	n.logger.Info("Shutting down event notifier", "running_workers", n.pool.Running())
	n.pool.Release()
	if err := n.producer.Close(); err != nil {
		n.logger.Error("Failed to close event producer", "error", err)
	}
}
