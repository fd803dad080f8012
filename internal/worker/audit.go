// Package worker contains the audit worker, a standalone consumer that turns
// the transaction change feed into a durable audit trail.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlite/internal/amqp"
	"spendlite/internal/log"
)

// AuditSink is where processed change events land.
type AuditSink interface {
	AppendAudit(ctx context.Context, op, transactionID string, occurredAt time.Time) error
	CountAudit(ctx context.Context) (int64, error)
}

// ConsumeFunc feeds change messages to a handler until the context ends.
type ConsumeFunc func(ctx context.Context, handler func(context.Context, *amqp.ChangeMessage) error) error

// AuditWorker records every change message and periodically reports the size
// of the audit trail.
type AuditWorker struct {
	sink           AuditSink
	logger         *log.Logger
	reportInterval time.Duration
}

func NewAuditWorker(sink AuditSink, logger *log.Logger) *AuditWorker {
	return &AuditWorker{
		sink:           sink,
		logger:         logger.WithComponent(log.ComponentWorker),
		reportInterval: time.Minute,
	}
}

// HandleChange appends one change event to the audit trail. Returning an
// error makes the broker redeliver the message.
func (w *AuditWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	occurredAt := msg.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	if err := w.sink.AppendAudit(ctx, msg.Op, msg.TransactionID, occurredAt); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	w.logger.InfoContext(ctx, "Recorded change event",
		log.FieldOperation, msg.Op,
		log.FieldTransactionID, msg.TransactionID)
	return nil
}

// Run consumes the change feed and reports in parallel until ctx is
// cancelled or either task fails.
func (w *AuditWorker) Run(ctx context.Context, consume ConsumeFunc) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consume(ctx, w.HandleChange)
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.reportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				w.report(ctx)
			}
		}
	})

	return g.Wait()
}

func (w *AuditWorker) report(ctx context.Context) {
	count, err := w.sink.CountAudit(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to count audit entries", log.FieldError, err)
		return
	}
	w.logger.InfoContext(ctx, "Audit trail size", log.FieldCount, count)
}
