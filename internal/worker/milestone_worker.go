// Package worker turns payoff progress events into stored milestones.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payoff/internal/amqp"
	"payoff/internal/log"
	"payoff/internal/storage"
)

// MilestoneRecorder is the storage side of the worker.
type MilestoneRecorder interface {
	RecordMilestone(ctx context.Context, m storage.Milestone) (bool, error)
}

// EventSource delivers progress events until ctx ends.
type EventSource interface {
	ConsumeWithReconnect(ctx context.Context, handler func(context.Context, *amqp.ProgressEvent) error) error
}

type MilestoneWorker struct {
	store  MilestoneRecorder
	logger *log.Logger
}

func NewMilestoneWorker(store MilestoneRecorder, logger *log.Logger) *MilestoneWorker {
	return &MilestoneWorker{
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleProgressEvent records one event. Duplicates are acknowledged
// without a second row.
func (w *MilestoneWorker) HandleProgressEvent(ctx context.Context, msg *amqp.ProgressEvent) error {
	kind, err := milestoneKind(msg.Type)
	if err != nil {
		return err
	}

	inserted, err := w.store.RecordMilestone(ctx, storage.Milestone{
		EventID:    msg.EventID,
		UserID:     msg.UserID,
		DebtID:     msg.DebtID,
		Kind:       kind,
		OccurredAt: msg.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("record milestone: %w", err)
	}

	if !inserted {
		w.logger.InfoContext(ctx, "Duplicate progress event ignored",
			log.FieldOperation, log.OpConsume, log.FieldEventID, msg.EventID)
		return nil
	}
	w.logger.InfoContext(ctx, "Milestone recorded",
		log.FieldOperation, log.OpConsume,
		log.FieldEventID, msg.EventID,
		log.FieldUser, msg.UserID,
		log.FieldDebtID, msg.DebtID,
		log.FieldEventType, msg.Type,
		"lag", time.Since(msg.OccurredAt).Round(time.Millisecond).String())
	return nil
}

// Run consumes from src until ctx is cancelled.
func (w *MilestoneWorker) Run(ctx context.Context, src EventSource) error {
	w.logger.InfoContext(ctx, "Milestone worker started", log.FieldOperation, log.OpStartup)
	err := src.ConsumeWithReconnect(ctx, w.HandleProgressEvent)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Milestone worker stopped", log.FieldOperation, log.OpShutdown)
		return nil
	}
	return err
}

func milestoneKind(eventType string) (string, error) {
	switch eventType {
	case amqp.EventMarkedPaidOff:
		return storage.MilestoneMarked, nil
	case amqp.EventUnmarked:
		return storage.MilestoneUnmarked, nil
	default:
		return "", fmt.Errorf("unknown event type %q", eventType)
	}
}
