package conference

import (
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AggregateTypeBatch is the aggregate type of conference batches
const AggregateTypeBatch = "ConferenceBatch"

// AggregateTypeWorkspace is the aggregate type of workspace level events
const AggregateTypeWorkspace = "ConferenceWorkspace"

// Batch event type constants
const (
	EventTypeBatchStarted   = "ConferenceBatchStarted"
	EventTypeItemScanned    = "ConferenceItemScanned"
	EventTypeBatchSubmitted = "ConferenceBatchSubmittedForApproval"
	EventTypeBatchApproved  = "ConferenceBatchApproved"
	EventTypeBatchRejected  = "ConferenceBatchApprovalRejected"
	EventTypeBatchPaused    = "ConferenceBatchPaused"
	EventTypeBatchResumed   = "ConferenceBatchResumed"
	EventTypeBatchDiscarded = "ConferenceBatchDiscarded"
	EventTypePausedDeleted  = "ConferencePausedBatchDeleted"
	EventTypeInvoicesStaged = "ConferenceInvoicesStaged"
)

// BatchStartedEvent is raised when a batch is created from staged invoices
type BatchStartedEvent struct {
	shared.BaseDomainEvent
	BatchID        uuid.UUID `json:"batch_id"`
	InvoiceNumbers []string  `json:"invoice_numbers"`
	ItemCount      int       `json:"item_count"`
	ConferenteID   uuid.UUID `json:"conferente_id"`
	ConferenteName string    `json:"conferente_name"`
}

// NewBatchStartedEvent creates a new BatchStartedEvent
func NewBatchStartedEvent(b *Batch) *BatchStartedEvent {
	return &BatchStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchStarted, AggregateTypeBatch, b.ID),
		BatchID:         b.ID,
		InvoiceNumbers:  b.InvoiceNumbers(),
		ItemCount:       len(b.Items),
		ConferenteID:    b.ConferenteID,
		ConferenteName:  b.ConferenteName,
	}
}

// ItemScannedEvent is raised for every successful scan
type ItemScannedEvent struct {
	shared.BaseDomainEvent
	BatchID         uuid.UUID            `json:"batch_id"`
	ItemID          uuid.UUID            `json:"item_id"`
	Code            string               `json:"code"`
	Quantity        valueobject.Quantity `json:"quantity"`
	QuantityChecked valueobject.Quantity `json:"quantity_checked"`
}

// NewItemScannedEvent creates a new ItemScannedEvent
func NewItemScannedEvent(b *Batch, item LineItem, quantity valueobject.Quantity) *ItemScannedEvent {
	return &ItemScannedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemScanned, AggregateTypeBatch, b.ID),
		BatchID:         b.ID,
		ItemID:          item.ID,
		Code:            item.Code,
		Quantity:        quantity,
		QuantityChecked: item.QuantityChecked,
	}
}

// BatchSubmittedEvent is raised when a divergent batch is routed to a supervisor
type BatchSubmittedEvent struct {
	shared.BaseDomainEvent
	BatchID        uuid.UUID `json:"batch_id"`
	DivergentItems int       `json:"divergent_items"`
}

// NewBatchSubmittedEvent creates a new BatchSubmittedEvent
func NewBatchSubmittedEvent(b *Batch) *BatchSubmittedEvent {
	return &BatchSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchSubmitted, AggregateTypeBatch, b.ID),
		BatchID:         b.ID,
		DivergentItems:  len(b.Divergences()),
	}
}

// BatchApprovedEvent is raised when a batch reaches APPROVED
type BatchApprovedEvent struct {
	shared.BaseDomainEvent
	BatchID        uuid.UUID  `json:"batch_id"`
	Automatic      bool       `json:"automatic"`
	DivergentItems int        `json:"divergent_items"`
	ConferenteName string     `json:"conferente_name"`
	SupervisorID   *uuid.UUID `json:"supervisor_id,omitempty"`
	SupervisorName string     `json:"supervisor_name,omitempty"`
}

// NewBatchApprovedEvent creates a new BatchApprovedEvent
func NewBatchApprovedEvent(b *Batch, automatic bool) *BatchApprovedEvent {
	return &BatchApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchApproved, AggregateTypeBatch, b.ID),
		BatchID:         b.ID,
		Automatic:       automatic,
		DivergentItems:  len(b.Divergences()),
		ConferenteName:  b.ConferenteName,
		SupervisorID:    b.SupervisorID,
		SupervisorName:  b.SupervisorName,
	}
}

// BatchRejectedEvent is raised when a supervisor sends a batch back to counting
type BatchRejectedEvent struct {
	shared.BaseDomainEvent
	BatchID uuid.UUID `json:"batch_id"`
}

// NewBatchRejectedEvent creates a new BatchRejectedEvent
func NewBatchRejectedEvent(b *Batch) *BatchRejectedEvent {
	return &BatchRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchRejected, AggregateTypeBatch, b.ID),
		BatchID:         b.ID,
	}
}

// BatchQueueEvent is raised when a batch moves in or out of the paused queue, or is dropped
type BatchQueueEvent struct {
	shared.BaseDomainEvent
	BatchID  uuid.UUID `json:"batch_id"`
	Progress int       `json:"progress"`
}

func newBatchQueueEvent(eventType string, b *Batch) *BatchQueueEvent {
	return &BatchQueueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeBatch, b.ID),
		BatchID:         b.ID,
		Progress:        b.Progress().Percent,
	}
}

// NewBatchPausedEvent creates a paused event
func NewBatchPausedEvent(b *Batch) *BatchQueueEvent {
	return newBatchQueueEvent(EventTypeBatchPaused, b)
}

// NewBatchResumedEvent creates a resumed event
func NewBatchResumedEvent(b *Batch) *BatchQueueEvent {
	return newBatchQueueEvent(EventTypeBatchResumed, b)
}

// NewBatchDiscardedEvent creates a discarded event
func NewBatchDiscardedEvent(b *Batch) *BatchQueueEvent {
	return newBatchQueueEvent(EventTypeBatchDiscarded, b)
}

// NewPausedBatchDeletedEvent creates a deleted event
func NewPausedBatchDeletedEvent(b *Batch) *BatchQueueEvent {
	return newBatchQueueEvent(EventTypePausedDeleted, b)
}

// InvoicesStagedEvent is raised after an import round
type InvoicesStagedEvent struct {
	shared.BaseDomainEvent
	Accepted   []string `json:"accepted"`
	Duplicates []string `json:"duplicates"`
	Failed     int      `json:"failed"`
}

// NewInvoicesStagedEvent creates a new InvoicesStagedEvent
func NewInvoicesStagedEvent(accepted []StagedInvoice, rejections []Rejection) *InvoicesStagedEvent {
	e := &InvoicesStagedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicesStaged, AggregateTypeWorkspace, uuid.Nil),
		Accepted:        make([]string, 0, len(accepted)),
		Duplicates:      make([]string, 0),
	}
	for _, s := range accepted {
		e.Accepted = append(e.Accepted, s.Header.Number)
	}
	for _, r := range rejections {
		if r.Code == shared.CodeDuplicateInvoice {
			e.Duplicates = append(e.Duplicates, r.InvoiceNumber)
		} else {
			e.Failed++
		}
	}
	return e
}
