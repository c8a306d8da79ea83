package conference

import (
	"time"

	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// RecentScanLimit caps the recent scan history
const RecentScanLimit = 5

// ScanRecord is one entry of the recent scan history
type ScanRecord struct {
	ItemID          uuid.UUID
	Code            string
	Barcode         string
	Description     string
	Quantity        valueobject.Quantity
	QuantityChecked valueobject.Quantity
	ScannedAt       time.Time
}

// Workspace holds the operator's live state: at most one active batch, the paused queue
// (most recently paused first), the staging area and the recent scans of the active batch.
// Batches move to history only through approval, so a batch id is never in two places.
type Workspace struct {
	Active      *Batch
	Paused      []*Batch
	Staging     []StagedInvoice
	RecentScans []ScanRecord
}

// NewWorkspace creates an empty workspace
func NewWorkspace() *Workspace {
	return &Workspace{
		Paused:      make([]*Batch, 0),
		Staging:     make([]StagedInvoice, 0),
		RecentScans: make([]ScanRecord, 0),
	}
}

// Clone returns a deep copy, so a failed operation can be dropped without touching the original
func (w *Workspace) Clone() *Workspace {
	c := &Workspace{
		Active:      w.Active.Clone(),
		Paused:      make([]*Batch, len(w.Paused)),
		Staging:     make([]StagedInvoice, len(w.Staging)),
		RecentScans: append(make([]ScanRecord, 0, len(w.RecentScans)), w.RecentScans...),
	}
	for i, b := range w.Paused {
		c.Paused[i] = b.Clone()
	}
	for i, inv := range w.Staging {
		inv.Items = append([]LineItem(nil), inv.Items...)
		c.Staging[i] = inv
	}
	return c
}

// RequireActive returns the active batch or NO_ACTIVE_BATCH
func (w *Workspace) RequireActive() (*Batch, error) {
	if w.Active == nil {
		return nil, shared.ErrNoActiveBatch
	}
	return w.Active, nil
}

// Start makes b the active batch. A batch that was active is pushed to the front of the paused
// queue and returned.
func (w *Workspace) Start(b *Batch) (*Batch, error) {
	if b == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Batch cannot be empty")
	}
	if w.Contains(b.ID) {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Batch is already in the workspace")
	}

	previous := w.Active
	if previous != nil {
		if err := w.pushActiveToPaused(); err != nil {
			return nil, err
		}
	}

	w.Active = b
	w.RecentScans = make([]ScanRecord, 0)
	return previous, nil
}

// StartFromStaging consolidates every staged invoice into a new batch, activates it and
// clears the staging area
func (w *Workspace) StartFromStaging(conferente Operator, now time.Time) (started *Batch, paused *Batch, err error) {
	if len(w.Staging) == 0 {
		return nil, nil, shared.NewDomainError(shared.CodeInvalidState, "No invoices are staged")
	}

	b, err := NewBatch(w.StagedParsed(), conferente, now)
	if err != nil {
		return nil, nil, err
	}

	paused, err = w.Start(b)
	if err != nil {
		return nil, nil, err
	}

	w.Staging = make([]StagedInvoice, 0)
	return b, paused, nil
}

// Pause moves the active batch to the front of the paused queue
func (w *Workspace) Pause() (*Batch, error) {
	active, err := w.RequireActive()
	if err != nil {
		return nil, err
	}
	if err := w.pushActiveToPaused(); err != nil {
		return nil, err
	}
	return active, nil
}

// Resume activates a paused batch. When another batch is active the caller must confirm;
// the active batch is then paused in its place.
func (w *Workspace) Resume(batchID uuid.UUID, confirm bool) (resumed *Batch, paused *Batch, err error) {
	idx, target := w.FindPaused(batchID)
	if target == nil {
		return nil, nil, shared.NewDomainError(shared.CodeNotFound, "Paused conference not found")
	}

	remaining := make([]*Batch, 0, len(w.Paused))
	remaining = append(remaining, w.Paused[:idx]...)
	remaining = append(remaining, w.Paused[idx+1:]...)

	if w.Active != nil {
		if !confirm {
			return nil, nil, shared.ErrConfirmationRequired
		}
		if w.Active.Status != BatchStatusOpen {
			return nil, nil, shared.NewDomainError(shared.CodeInvalidState,
				"The active conference is waiting for supervisor approval")
		}
		paused = w.Active
		paused.markPaused()
		remaining = append([]*Batch{paused}, remaining...)
	}

	w.Paused = remaining
	w.Active = target
	w.RecentScans = make([]ScanRecord, 0)
	target.markResumed()
	return target, paused, nil
}

// DeletePaused permanently removes a paused batch
func (w *Workspace) DeletePaused(batchID uuid.UUID) (*Batch, error) {
	idx, target := w.FindPaused(batchID)
	if target == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Paused conference not found")
	}
	w.Paused = append(w.Paused[:idx:idx], w.Paused[idx+1:]...)
	target.AddDomainEvent(NewPausedBatchDeletedEvent(target))
	return target, nil
}

// Discard drops the active batch without keeping any record of it
func (w *Workspace) Discard() (*Batch, error) {
	active, err := w.RequireActive()
	if err != nil {
		return nil, err
	}
	w.Active = nil
	w.RecentScans = make([]ScanRecord, 0)
	active.AddDomainEvent(NewBatchDiscardedEvent(active))
	return active, nil
}

// ReleaseApproved clears the active slot once the active batch has been approved
func (w *Workspace) ReleaseApproved() (*Batch, error) {
	active, err := w.RequireActive()
	if err != nil {
		return nil, err
	}
	if active.Status != BatchStatusApproved {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Active conference is not approved")
	}
	w.Active = nil
	w.RecentScans = make([]ScanRecord, 0)
	return active, nil
}

// RecordScan prepends a scan to the recent history, keeping at most RecentScanLimit entries
func (w *Workspace) RecordScan(item LineItem, quantity valueobject.Quantity, at time.Time) {
	record := ScanRecord{
		ItemID:          item.ID,
		Code:            item.Code,
		Barcode:         item.Barcode,
		Description:     item.Description,
		Quantity:        quantity,
		QuantityChecked: item.QuantityChecked,
		ScannedAt:       at,
	}
	scans := append([]ScanRecord{record}, w.RecentScans...)
	if len(scans) > RecentScanLimit {
		scans = scans[:RecentScanLimit]
	}
	w.RecentScans = scans
}

// FindPaused returns the index and batch of a paused batch, or -1 and nil
func (w *Workspace) FindPaused(batchID uuid.UUID) (int, *Batch) {
	for i, b := range w.Paused {
		if b.ID == batchID {
			return i, b
		}
	}
	return -1, nil
}

// Contains reports whether the id is the active batch or a paused one
func (w *Workspace) Contains(batchID uuid.UUID) bool {
	if w.Active != nil && w.Active.ID == batchID {
		return true
	}
	_, b := w.FindPaused(batchID)
	return b != nil
}

// Batches returns the active batch (if any) followed by the paused ones
func (w *Workspace) Batches() []*Batch {
	result := make([]*Batch, 0, len(w.Paused)+1)
	if w.Active != nil {
		result = append(result, w.Active)
	}
	return append(result, w.Paused...)
}

// PullEvents collects and clears pending events of the given batches
func PullEvents(batches ...*Batch) []shared.DomainEvent {
	var events []shared.DomainEvent
	seen := make(map[uuid.UUID]struct{}, len(batches))
	for _, b := range batches {
		if b == nil {
			continue
		}
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		events = append(events, b.PullDomainEvents()...)
	}
	return events
}

func (w *Workspace) pushActiveToPaused() error {
	if w.Active.Status != BatchStatusOpen {
		return shared.NewDomainError(shared.CodeInvalidState,
			"The active conference is waiting for supervisor approval")
	}
	w.Active.markPaused()
	w.Paused = append([]*Batch{w.Active}, w.Paused...)
	w.Active = nil
	w.RecentScans = make([]ScanRecord, 0)
	return nil
}
