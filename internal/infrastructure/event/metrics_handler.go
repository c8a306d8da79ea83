package event

import (
	"context"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/infrastructure/telemetry"
)

// ConferenceRecorder receives conference activity counts
type ConferenceRecorder interface {
	RecordInvoicesStaged(ctx context.Context, accepted, duplicates, failed int)
	RecordBatchStarted(ctx context.Context)
	RecordScan(ctx context.Context)
	RecordSubmitted(ctx context.Context, divergentItems int)
	RecordApproved(ctx context.Context, automatic bool)
	RecordRejected(ctx context.Context)
	RecordQueueOperation(ctx context.Context, operation string)
}

// ConferenceMetricsHandler turns conference events into metrics
type ConferenceMetricsHandler struct {
	recorder ConferenceRecorder
}

// NewConferenceMetricsHandler creates a new metrics handler
func NewConferenceMetricsHandler(recorder ConferenceRecorder) *ConferenceMetricsHandler {
	return &ConferenceMetricsHandler{recorder: recorder}
}

// EventTypes lists the conference events
func (h *ConferenceMetricsHandler) EventTypes() []string {
	return []string{
		conference.EventTypeInvoicesStaged,
		conference.EventTypeBatchStarted,
		conference.EventTypeItemScanned,
		conference.EventTypeBatchSubmitted,
		conference.EventTypeBatchApproved,
		conference.EventTypeBatchRejected,
		conference.EventTypeBatchPaused,
		conference.EventTypeBatchResumed,
		conference.EventTypeBatchDiscarded,
		conference.EventTypePausedDeleted,
	}
}

// Handle records one event
func (h *ConferenceMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *conference.InvoicesStagedEvent:
		h.recorder.RecordInvoicesStaged(ctx, len(e.Accepted), len(e.Duplicates), e.Failed)
	case *conference.BatchStartedEvent:
		h.recorder.RecordBatchStarted(ctx)
	case *conference.ItemScannedEvent:
		h.recorder.RecordScan(ctx)
	case *conference.BatchSubmittedEvent:
		h.recorder.RecordSubmitted(ctx, e.DivergentItems)
	case *conference.BatchApprovedEvent:
		h.recorder.RecordApproved(ctx, e.Automatic)
	case *conference.BatchRejectedEvent:
		h.recorder.RecordRejected(ctx)
	case *conference.BatchQueueEvent:
		if op, ok := queueOperations[e.EventType()]; ok {
			h.recorder.RecordQueueOperation(ctx, op)
		}
	}
	return nil
}

var queueOperations = map[string]string{
	conference.EventTypeBatchPaused:    telemetry.QueueOperationPause,
	conference.EventTypeBatchResumed:   telemetry.QueueOperationResume,
	conference.EventTypeBatchDiscarded: telemetry.QueueOperationDiscard,
	conference.EventTypePausedDeleted:  telemetry.QueueOperationDelete,
}

var (
	_ shared.EventHandler = (*ConferenceMetricsHandler)(nil)
	_ ConferenceRecorder  = (*telemetry.ConferenceMetrics)(nil)
)
