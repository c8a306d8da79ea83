package conference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceParser turns one invoice XML document into a parsed invoice
type InvoiceParser interface {
	Parse(ctx context.Context, document []byte) (*conference.ParsedInvoice, error)
}

// InvoiceArchive keeps the raw document of every staged invoice
type InvoiceArchive interface {
	Store(ctx context.Context, accessKey string, document []byte) error
}

// SupervisorAuthorizer validates supervisor credentials
type SupervisorAuthorizer interface {
	AuthorizeSupervisor(ctx context.Context, username, password string) (*identity.User, error)
}

// WorkspaceService owns the operator workspace. It is the only writer of the workspace state:
// every mutation runs under one lock on a copy of the state, and the copy replaces the state
// only after it was persisted.
type WorkspaceService struct {
	store       conference.WorkspaceStore
	history     conference.HistoryRepository
	branches    identity.BranchRepository
	parser      InvoiceParser
	archive     InvoiceArchive
	supervisors SupervisorAuthorizer
	eventBus    shared.EventPublisher
	logger      *zap.Logger
	clock       func() time.Time

	mu sync.Mutex
	ws *conference.Workspace
}

// WorkspaceServiceDeps groups the collaborators of the workspace service
type WorkspaceServiceDeps struct {
	Store       conference.WorkspaceStore
	History     conference.HistoryRepository
	Branches    identity.BranchRepository
	Parser      InvoiceParser
	Archive     InvoiceArchive // Optional
	Supervisors SupervisorAuthorizer
	EventBus    shared.EventPublisher // Optional
	Logger      *zap.Logger
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(deps WorkspaceServiceDeps) *WorkspaceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceService{
		store:       deps.Store,
		history:     deps.History,
		branches:    deps.Branches,
		parser:      deps.Parser,
		archive:     deps.Archive,
		supervisors: deps.Supervisors,
		eventBus:    deps.EventBus,
		logger:      logger,
		clock:       time.Now,
	}
}

// SetClock replaces the time source
func (s *WorkspaceService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// GetWorkspace returns the complete workspace
func (s *WorkspaceService) GetWorkspace(ctx context.Context) (*WorkspaceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	response := ToWorkspaceResponse(ws)
	return &response, nil
}

// StageInvoices parses the uploaded documents and adds the unique ones to the staging area.
// Unparseable and duplicate documents are reported without failing the others.
func (s *WorkspaceService) StageInvoices(ctx context.Context, docs []UploadedDocument) (*StageResult, error) {
	if len(docs) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "At least one invoice document is required")
	}

	// Parsing runs outside the lock
	rejections := make([]conference.Rejection, 0)
	incoming := make([]conference.StagedInvoice, 0, len(docs))
	raw := make(map[string][]byte, len(docs))
	now := s.clock()

	branches, err := s.branches.FindAll(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load branches: %w", err)
	}

	for _, doc := range docs {
		parsed, err := s.parser.Parse(ctx, doc.Content)
		if err != nil {
			s.logger.Warn("Invoice document rejected",
				zap.String("document", doc.Name),
				zap.Error(err))
			rejections = append(rejections, conference.NewParseRejection(doc.Name, err))
			continue
		}
		incoming = append(incoming, conference.StagedInvoice{
			ParsedInvoice: *parsed,
			Document:      doc.Name,
			OriginName:    identity.ResolveOriginName(branches, parsed.Header.VendorTaxID, parsed.Header.VendorName),
			StagedAt:      now,
		})
		// The first document of an access key is the one kept
		if _, seen := raw[parsed.Header.AccessKey]; !seen {
			raw[parsed.Header.AccessKey] = doc.Content
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return nil, err
	}

	// History is consulted under the lock: an approval moves keys from the workspace to history
	known := make(map[string]bool, len(incoming))
	for _, inv := range incoming {
		key := inv.Header.AccessKey
		if _, checked := known[key]; checked || key == "" {
			continue
		}
		exists, err := s.history.HasInvoice(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to check invoice history: %w", err)
		}
		known[key] = exists
	}

	accepted, dupes := ws.Stage(incoming, func(key string) bool { return known[key] })
	rejections = append(rejections, dupes...)

	if len(accepted) > 0 {
		if err := s.commit(ctx, ws, nil); err != nil {
			return nil, err
		}
		s.archiveDocuments(ctx, accepted, raw)
	}

	s.publish(ctx, []shared.DomainEvent{conference.NewInvoicesStagedEvent(accepted, rejections)})

	result := &StageResult{
		Accepted:   ToStagedInvoiceResponses(accepted),
		Duplicates: make([]string, 0),
		Rejections: make([]RejectionResponse, 0, len(rejections)),
	}
	for _, r := range rejections {
		if r.Code == shared.CodeDuplicateInvoice {
			result.Duplicates = append(result.Duplicates, r.InvoiceNumber)
		}
		result.Rejections = append(result.Rejections, ToRejectionResponse(r))
	}

	s.logger.Info("Invoices staged",
		zap.Int("accepted", len(result.Accepted)),
		zap.Int("duplicates", len(result.Duplicates)),
		zap.Int("rejected", len(result.Rejections)))

	return result, nil
}

// RemoveStaged removes an invoice from the staging area
func (s *WorkspaceService) RemoveStaged(ctx context.Context, accessKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return err
	}
	if _, err := ws.Unstage(accessKey); err != nil {
		return err
	}
	return s.commit(ctx, ws, nil)
}

// StartConference consolidates the staged invoices into a new active conference.
// A conference that was active is moved to the paused queue.
func (s *WorkspaceService) StartConference(ctx context.Context, conferente conference.Operator) (*BatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return nil, err
	}

	started, paused, err := ws.StartFromStaging(conferente, s.clock())
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx, ws, nil); err != nil {
		return nil, err
	}
	s.publishBatches(ctx, started, paused)

	s.logger.Info("Conference started",
		zap.String("batch_id", started.ID.String()),
		zap.Strings("invoices", started.InvoiceNumbers()),
		zap.Int("items", len(started.Items)),
		zap.String("conferente", conferente.Name))

	response := ToBatchResponse(started)
	return &response, nil
}

// GetActive returns the active conference
func (s *WorkspaceService) GetActive(ctx context.Context) (*BatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	active, err := ws.RequireActive()
	if err != nil {
		return nil, err
	}
	response := ToBatchResponse(active)
	return &response, nil
}

// Progress returns the counting progress of the active conference
func (s *WorkspaceService) Progress(ctx context.Context) (*ProgressResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	active, err := ws.RequireActive()
	if err != nil {
		return nil, err
	}
	response := ToProgressResponse(active.Progress())
	return &response, nil
}

// Scan applies one scan to the active conference. The quantity defaults to 1.
func (s *WorkspaceService) Scan(ctx context.Context, req ScanRequest) (*ScanResponse, error) {
	quantity := valueobject.MustQuantity("1")
	if req.Quantity != nil {
		q, err := valueobject.NewQuantity(*req.Quantity)
		if err != nil {
			return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be greater than zero")
		}
		quantity = q
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return nil, err
	}
	active, err := ws.RequireActive()
	if err != nil {
		return nil, err
	}

	item, err := active.ApplyScan(req.Identifier, quantity)
	if err != nil {
		return nil, err
	}
	ws.RecordScan(item, quantity, s.clock())

	if err := s.commit(ctx, ws, nil); err != nil {
		return nil, err
	}
	s.publishBatches(ctx, active)

	return &ScanResponse{
		Item:     ToLineItemResponse(item),
		Progress: ToProgressResponse(active.Progress()),
	}, nil
}

// ResetItem sets the checked quantity of an item of the active conference back to zero
func (s *WorkspaceService) ResetItem(ctx context.Context, itemID uuid.UUID) (*ScanResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return nil, err
	}
	active, err := ws.RequireActive()
	if err != nil {
		return nil, err
	}

	item, err := active.ResetItem(itemID)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx, ws, nil); err != nil {
		return nil, err
	}

	return &ScanResponse{
		Item:     ToLineItemResponse(item),
		Progress: ToProgressResponse(active.Progress()),
	}, nil
}

// Finalize closes the count of the active conference. A conference without divergence is
// approved and moved to history; otherwise it waits for a supervisor.
func (s *WorkspaceService) Finalize(ctx context.Context) (*FinalizeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return nil, err
	}
	active, err := ws.RequireActive()
	if err != nil {
		return nil, err
	}

	if err := active.Finalize(s.clock()); err != nil {
		return nil, err
	}

	var approved *conference.Batch
	if active.Status == conference.BatchStatusApproved {
		if approved, err = ws.ReleaseApproved(); err != nil {
			return nil, err
		}
	}

	if err := s.commit(ctx, ws, approved); err != nil {
		return nil, err
	}
	s.publishBatches(ctx, active)

	s.logger.Info("Conference finalized",
		zap.String("batch_id", active.ID.String()),
		zap.String("status", active.Status.String()))

	return &FinalizeResponse{
		Batch:       ToBatchResponse(active),
		Approved:    approved != nil,
		Divergences: ToLineItemResponses(active.Divergences()),
	}, nil
}

// Approve validates the supervisor's credentials and approves the divergent active conference
func (s *WorkspaceService) Approve(ctx context.Context, req ApproveRequest) (*BatchResponse, error) {
	// Credential checks run outside the lock
	supervisor, err := s.supervisors.AuthorizeSupervisor(ctx, req.SupervisorUsername, req.SupervisorPassword)
	if err != nil {
		return nil, err
	}
	if err := identity.Evaluate(supervisor, identity.ActionApproveDivergence, identity.Target{}).Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return nil, err
	}
	active, err := ws.RequireActive()
	if err != nil {
		return nil, err
	}

	operator := conference.Operator{ID: supervisor.ID, Name: supervisor.Name}
	if err := active.Approve(operator, req.Justification, s.clock()); err != nil {
		return nil, err
	}
	if _, err := ws.ReleaseApproved(); err != nil {
		return nil, err
	}

	if err := s.commit(ctx, ws, active); err != nil {
		return nil, err
	}
	s.publishBatches(ctx, active)

	s.logger.Info("Divergent conference approved",
		zap.String("batch_id", active.ID.String()),
		zap.String("supervisor", supervisor.Username))

	response := ToBatchResponse(active)
	return &response, nil
}

// Reject returns the pending active conference to counting
func (s *WorkspaceService) Reject(ctx context.Context) (*BatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return nil, err
	}
	active, err := ws.RequireActive()
	if err != nil {
		return nil, err
	}

	if err := active.Reject(); err != nil {
		return nil, err
	}

	if err := s.commit(ctx, ws, nil); err != nil {
		return nil, err
	}
	s.publishBatches(ctx, active)

	response := ToBatchResponse(active)
	return &response, nil
}

// Pause moves the active conference to the front of the paused queue
func (s *WorkspaceService) Pause(ctx context.Context) (*BatchSummaryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return nil, err
	}

	paused, err := ws.Pause()
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx, ws, nil); err != nil {
		return nil, err
	}
	s.publishBatches(ctx, paused)

	response := ToBatchSummaryResponse(paused)
	return &response, nil
}

// Resume activates a paused conference. If another conference is active, confirm must be
// set and that conference is paused in its place.
func (s *WorkspaceService) Resume(ctx context.Context, batchID uuid.UUID, confirm bool) (*BatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return nil, err
	}

	resumed, paused, err := ws.Resume(batchID, confirm)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx, ws, nil); err != nil {
		return nil, err
	}
	s.publishBatches(ctx, resumed, paused)

	response := ToBatchResponse(resumed)
	return &response, nil
}

// ListPaused returns the paused queue, most recently paused first
func (s *WorkspaceService) ListPaused(ctx context.Context) ([]BatchSummaryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return ToBatchSummaryResponses(ws.Paused), nil
}

// DeletePaused permanently removes a paused conference
func (s *WorkspaceService) DeletePaused(ctx context.Context, batchID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return err
	}

	deleted, err := ws.DeletePaused(batchID)
	if err != nil {
		return err
	}

	if err := s.commit(ctx, ws, nil); err != nil {
		return err
	}
	s.publishBatches(ctx, deleted)
	return nil
}

// Discard drops the active conference without saving it
func (s *WorkspaceService) Discard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.draft(ctx)
	if err != nil {
		return err
	}

	discarded, err := ws.Discard()
	if err != nil {
		return err
	}

	if err := s.commit(ctx, ws, nil); err != nil {
		return err
	}
	s.publishBatches(ctx, discarded)
	return nil
}

// current returns the live workspace, loading it on first use. Callers hold the lock.
func (s *WorkspaceService) current(ctx context.Context) (*conference.Workspace, error) {
	if s.ws != nil {
		return s.ws, nil
	}
	ws, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	if ws == nil {
		ws = conference.NewWorkspace()
	}
	s.ws = ws
	return ws, nil
}

// draft returns a copy of the live workspace to mutate. Callers hold the lock.
func (s *WorkspaceService) draft(ctx context.Context) (*conference.Workspace, error) {
	ws, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return ws.Clone(), nil
}

// commit persists the draft and makes it the live workspace. Callers hold the lock.
func (s *WorkspaceService) commit(ctx context.Context, ws *conference.Workspace, approved *conference.Batch) error {
	var err error
	if approved != nil {
		err = s.store.SaveWithApproved(ctx, ws, approved)
	} else {
		err = s.store.Save(ctx, ws)
	}
	if err != nil {
		s.logger.Error("Failed to persist workspace", zap.Error(err))
		return fmt.Errorf("failed to persist workspace: %w", err)
	}
	s.ws = ws
	return nil
}

func (s *WorkspaceService) archiveDocuments(ctx context.Context, accepted []conference.StagedInvoice, raw map[string][]byte) {
	if s.archive == nil {
		return
	}
	for _, inv := range accepted {
		key := inv.Header.AccessKey
		if err := s.archive.Store(ctx, key, raw[key]); err != nil {
			s.logger.Warn("Failed to archive invoice document",
				zap.String("access_key", key),
				zap.Error(err))
		}
	}
}

func (s *WorkspaceService) publishBatches(ctx context.Context, batches ...*conference.Batch) {
	s.publish(ctx, conference.PullEvents(batches...))
}

func (s *WorkspaceService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}
