package worker

import (
	"context"
	"errors"
	"fmt"

	"spese-insights/internal/amqp"
	"spese-insights/internal/core"
	"spese-insights/internal/log"
)

// SourceRecorder stores an expense at most once per source reference.
type SourceRecorder interface {
	RecordWithSource(ctx context.Context, e core.Expense, sourceRef string) (string, error)
}

// Consumer delivers expense messages to a handler until ctx is done.
type Consumer interface {
	ConsumeExpenseRecorded(ctx context.Context, handler amqp.ExpenseHandler) error
}

// IngestWorker records expenses announced on the message queue so that the
// insights service can query them.
type IngestWorker struct {
	recorder SourceRecorder
	logger   *log.Logger
}

func NewIngestWorker(recorder SourceRecorder, logger *log.Logger) *IngestWorker {
	return &IngestWorker{
		recorder: recorder,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes until ctx is cancelled. Cancellation is not reported as an error.
func (w *IngestWorker) Run(ctx context.Context, consumer Consumer) error {
	err := consumer.ConsumeExpenseRecorded(ctx, w.HandleExpenseRecorded)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleExpenseRecorded stores one expense. Validation failures are reported
// as amqp.ErrInvalidMessage so the delivery is not retried.
func (w *IngestWorker) HandleExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage, e core.Expense) error {
	id, err := w.recorder.RecordWithSource(ctx, e, msg.ID)
	if err != nil {
		if isValidationError(err) {
			return fmt.Errorf("%w: %v", amqp.ErrInvalidMessage, err)
		}
		return fmt.Errorf("record expense: %w", err)
	}

	w.logger.InfoContext(ctx, "Ingested expense",
		"id", id,
		log.FieldSourceRef, msg.ID,
		log.FieldOwnerID, e.OwnerID,
		log.FieldAmountCents, e.Amount.Cents,
		log.FieldCategory, e.Category)
	return nil
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrEmptyOwner,
		core.ErrInvalidAmount,
		core.ErrEmptyDescription,
		core.ErrEmptyCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
