package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Queue operations recorded by RecordQueueOperation
const (
	QueueOperationPause   = "pause"
	QueueOperationResume  = "resume"
	QueueOperationDiscard = "discard"
	QueueOperationDelete  = "delete"
)

// ConferenceMetrics counts what happens on the receiving floor
type ConferenceMetrics struct {
	invoicesStaged  metric.Int64Counter
	batchesStarted  metric.Int64Counter
	scans           metric.Int64Counter
	finalizations   metric.Int64Counter
	divergentItems  metric.Int64Counter
	approvals       metric.Int64Counter
	rejections      metric.Int64Counter
	queueOperations metric.Int64Counter
}

// NewConferenceMetrics registers the conference instruments on meter
func NewConferenceMetrics(meter metric.Meter) (*ConferenceMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &ConferenceMetrics{}
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&m.invoicesStaged, "checkmaster_invoices_staged_total", "Invoice documents received, by outcome", "{invoices}"},
		{&m.batchesStarted, "checkmaster_batches_started_total", "Conference batches started", "{batches}"},
		{&m.scans, "checkmaster_scans_total", "Successful item scans", "{scans}"},
		{&m.finalizations, "checkmaster_finalizations_total", "Batches finalized, by outcome", "{batches}"},
		{&m.divergentItems, "checkmaster_divergent_items_total", "Divergent items in batches sent to a supervisor", "{items}"},
		{&m.approvals, "checkmaster_approvals_total", "Batches approved, by mode", "{batches}"},
		{&m.rejections, "checkmaster_rejections_total", "Batches sent back to counting", "{batches}"},
		{&m.queueOperations, "checkmaster_queue_operations_total", "Pause queue operations", "{operations}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.target = counter
	}
	return m, nil
}

// RecordInvoicesStaged counts one import round
func (m *ConferenceMetrics) RecordInvoicesStaged(ctx context.Context, accepted, duplicates, failed int) {
	add := func(n int, outcome string) {
		if n > 0 {
			m.invoicesStaged.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
		}
	}
	add(accepted, "accepted")
	add(duplicates, "duplicate")
	add(failed, "failed")
}

// RecordBatchStarted counts a new batch
func (m *ConferenceMetrics) RecordBatchStarted(ctx context.Context) {
	m.batchesStarted.Add(ctx, 1)
}

// RecordScan counts a successful scan
func (m *ConferenceMetrics) RecordScan(ctx context.Context) {
	m.scans.Add(ctx, 1)
}

// RecordSubmitted counts a batch routed to a supervisor and its divergent items
func (m *ConferenceMetrics) RecordSubmitted(ctx context.Context, divergentItems int) {
	m.finalizations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "pending_supervisor")))
	if divergentItems > 0 {
		m.divergentItems.Add(ctx, int64(divergentItems))
	}
}

// RecordApproved counts an approval. Automatic approvals are also finalizations.
func (m *ConferenceMetrics) RecordApproved(ctx context.Context, automatic bool) {
	mode := "supervisor"
	if automatic {
		mode = "automatic"
		m.finalizations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "approved")))
	}
	m.approvals.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordRejected counts a supervisor rejection
func (m *ConferenceMetrics) RecordRejected(ctx context.Context) {
	m.rejections.Add(ctx, 1)
}

// RecordQueueOperation counts a pause, resume, discard or delete
func (m *ConferenceMetrics) RecordQueueOperation(ctx context.Context, operation string) {
	m.queueOperations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
