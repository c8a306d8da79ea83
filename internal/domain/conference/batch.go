package conference

import (
	"fmt"
	"strings"
	"time"

	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operator identifies the person acting on a batch
type Operator struct {
	ID   uuid.UUID
	Name string
}

// Progress summarizes how much of a batch has been counted
type Progress struct {
	TotalExpected valueobject.Quantity
	TotalChecked  valueobject.Quantity
	Percent       int
}

// Batch is one receiving conference covering one or more invoices.
// It is the aggregate root of the reconciliation workflow.
type Batch struct {
	shared.BaseAggregateRoot
	Invoices       []InvoiceHeader
	Items          []LineItem
	StartTime      time.Time
	EndTime        *time.Time
	Status         BatchStatus
	ConferenteID   uuid.UUID
	ConferenteName string
	SupervisorID   *uuid.UUID
	SupervisorName string
	Justification  string
}

// NewBatch consolidates the items of the given invoices into a new OPEN batch
func NewBatch(invoices []ParsedInvoice, conferente Operator, now time.Time) (*Batch, error) {
	if len(invoices) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "A conference needs at least one invoice")
	}
	if conferente.ID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Conferente ID cannot be empty")
	}

	headers := make([]InvoiceHeader, 0, len(invoices))
	seen := make(map[string]struct{}, len(invoices))
	for _, inv := range invoices {
		if err := inv.Header.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[inv.Header.AccessKey]; dup {
			return nil, shared.NewDomainError(shared.CodeDuplicateInvoice,
				fmt.Sprintf("Invoice %s appears more than once", inv.Header.Number))
		}
		seen[inv.Header.AccessKey] = struct{}{}
		headers = append(headers, inv.Header)
	}

	b := &Batch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Invoices:          headers,
		Items:             ConsolidateInvoices(invoices),
		StartTime:         now,
		Status:            BatchStatusOpen,
		ConferenteID:      conferente.ID,
		ConferenteName:    conferente.Name,
	}

	b.AddDomainEvent(NewBatchStartedEvent(b))

	return b, nil
}

// ApplyScan adds quantity to the item whose barcode or code matches identifier (case-insensitive)
func (b *Batch) ApplyScan(identifier string, quantity valueobject.Quantity) (LineItem, error) {
	if b.Status != BatchStatusOpen {
		return LineItem{}, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot scan items while the conference is %s", b.Status))
	}
	if !quantity.IsPositive() {
		return LineItem{}, shared.NewDomainError(shared.CodeInvalidQuantity, "Scan quantity must be greater than zero")
	}

	term := NormalizeIdentifier(identifier)
	if term == "" {
		return LineItem{}, shared.NewDomainError(shared.CodeInvalidInput, "Scan identifier cannot be empty")
	}

	for i := range b.Items {
		if !b.Items[i].Matches(term) {
			continue
		}
		b.Items[i].QuantityChecked = b.Items[i].QuantityChecked.Add(quantity)
		b.touch()
		b.AddDomainEvent(NewItemScannedEvent(b, b.Items[i], quantity))
		return b.Items[i], nil
	}

	return LineItem{}, shared.NewDomainError(shared.CodeItemNotFound,
		fmt.Sprintf("No item matches %q", strings.TrimSpace(identifier)))
}

// ResetItem sets the checked quantity of one item back to zero
func (b *Batch) ResetItem(itemID uuid.UUID) (LineItem, error) {
	if b.Status != BatchStatusOpen {
		return LineItem{}, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot reset items while the conference is %s", b.Status))
	}

	for i := range b.Items {
		if b.Items[i].ID != itemID {
			continue
		}
		b.Items[i].QuantityChecked = valueobject.ZeroQuantity()
		b.touch()
		return b.Items[i], nil
	}

	return LineItem{}, shared.NewDomainError(shared.CodeItemNotFound, "Item not found in conference")
}

// Progress computes totals and the completion percentage, capped at 100
func (b *Batch) Progress() Progress {
	expected := valueobject.ZeroQuantity()
	checked := valueobject.ZeroQuantity()
	for _, item := range b.Items {
		expected = expected.Add(item.QuantityExpected)
		checked = checked.Add(item.QuantityChecked)
	}

	percent := 100
	if !expected.IsZero() {
		ratio := checked.Amount().Mul(decimal.NewFromInt(100)).Div(expected.Amount()).Round(0)
		if ratio.LessThan(decimal.NewFromInt(100)) {
			percent = int(ratio.IntPart())
		}
	}

	return Progress{TotalExpected: expected, TotalChecked: checked, Percent: percent}
}

// HasDivergence reports whether any item's checked quantity differs from the invoiced one
func (b *Batch) HasDivergence() bool {
	for _, item := range b.Items {
		if item.IsDivergent() {
			return true
		}
	}
	return false
}

// Divergences returns the items whose checked quantity differs from the invoiced one
func (b *Batch) Divergences() []LineItem {
	result := make([]LineItem, 0)
	for _, item := range b.Items {
		if item.IsDivergent() {
			result = append(result, item)
		}
	}
	return result
}

// Finalize closes counting. Without divergence the batch is approved right away,
// otherwise it waits for a supervisor.
func (b *Batch) Finalize(now time.Time) error {
	if !b.Status.CanTransitionTo(BatchStatusPendingSupervisor) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot finalize a conference in %s", b.Status))
	}

	if b.HasDivergence() {
		b.Status = BatchStatusPendingSupervisor
		b.touch()
		b.AddDomainEvent(NewBatchSubmittedEvent(b))
		return nil
	}

	b.Status = BatchStatusApproved
	b.EndTime = &now
	b.touch()
	b.AddDomainEvent(NewBatchApprovedEvent(b, true))
	return nil
}

// Approve accepts a divergent batch on a supervisor's justified decision
func (b *Batch) Approve(supervisor Operator, justification string, now time.Time) error {
	if b.Status != BatchStatusPendingSupervisor {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot transition from %s to APPROVED", b.Status))
	}
	if supervisor.ID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Supervisor ID cannot be empty")
	}
	if strings.TrimSpace(justification) == "" {
		return shared.ErrJustificationRequired
	}

	supervisorID := supervisor.ID
	b.Status = BatchStatusApproved
	b.EndTime = &now
	b.SupervisorID = &supervisorID
	b.SupervisorName = supervisor.Name
	b.Justification = justification
	b.touch()
	b.AddDomainEvent(NewBatchApprovedEvent(b, false))
	return nil
}

// Reject sends a pending batch back to counting, dropping any supervisor context
func (b *Batch) Reject() error {
	if !b.Status.CanTransitionTo(BatchStatusOpen) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot reject a conference in %s", b.Status))
	}

	b.Status = BatchStatusOpen
	b.SupervisorID = nil
	b.SupervisorName = ""
	b.Justification = ""
	b.EndTime = nil
	b.touch()
	b.AddDomainEvent(NewBatchRejectedEvent(b))
	return nil
}

// InvoiceNumbers lists the numbers of the batch's invoices in import order
func (b *Batch) InvoiceNumbers() []string {
	numbers := make([]string, len(b.Invoices))
	for i, inv := range b.Invoices {
		numbers[i] = inv.Number
	}
	return numbers
}

// HasInvoice reports whether the batch covers the invoice with the given access key
func (b *Batch) HasInvoice(accessKey string) bool {
	for _, inv := range b.Invoices {
		if inv.AccessKey == accessKey {
			return true
		}
	}
	return false
}

// FindItem returns the item with the given id
func (b *Batch) FindItem(itemID uuid.UUID) (LineItem, bool) {
	for _, item := range b.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return LineItem{}, false
}

// Clone returns a deep copy of the batch without pending events
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	c := *b
	c.ClearDomainEvents()
	c.Invoices = append([]InvoiceHeader(nil), b.Invoices...)
	c.Items = append([]LineItem(nil), b.Items...)
	if b.EndTime != nil {
		end := *b.EndTime
		c.EndTime = &end
	}
	if b.SupervisorID != nil {
		id := *b.SupervisorID
		c.SupervisorID = &id
	}
	return &c
}

// markPaused records that the batch left the active slot
func (b *Batch) markPaused() {
	b.touch()
	b.AddDomainEvent(NewBatchPausedEvent(b))
}

// markResumed records that the batch re-entered the active slot
func (b *Batch) markResumed() {
	b.touch()
	b.AddDomainEvent(NewBatchResumedEvent(b))
}

func (b *Batch) touch() {
	b.IncrementVersion()
}
