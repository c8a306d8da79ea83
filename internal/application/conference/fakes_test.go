package conference

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("store unavailable")

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		events: make([]shared.DomainEvent, 0),
	}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEvents() []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, len(m.events))
	copy(result, m.events)
	return result
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

func (m *MockEventPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make([]shared.DomainEvent, 0)
}

// memoryStore keeps the workspace snapshot and the history in memory
type memoryStore struct {
	mu       sync.Mutex
	snapshot *conference.Workspace
	history  []*conference.Batch
	fail     bool
	saves    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (m *memoryStore) Load(ctx context.Context) (*conference.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return conference.NewWorkspace(), nil
	}
	return m.snapshot.Clone(), nil
}

func (m *memoryStore) Save(ctx context.Context, ws *conference.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	m.snapshot = ws.Clone()
	m.saves++
	return nil
}

func (m *memoryStore) SaveWithApproved(ctx context.Context, ws *conference.Workspace, approved *conference.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	m.snapshot = ws.Clone()
	m.history = append(m.history, approved.Clone())
	m.saves++
	return nil
}

func (m *memoryStore) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *memoryStore) FindByID(ctx context.Context, id uuid.UUID) (*conference.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.history {
		if b.ID == id {
			return b.Clone(), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryStore) List(ctx context.Context, filter shared.Filter) ([]*conference.Batch, int64, error) {
	all, err := m.FindFinishedBetween(ctx, filter.From, filter.To)
	if err != nil {
		return nil, 0, err
	}
	start := filter.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *memoryStore) FindFinishedBetween(ctx context.Context, from, to *time.Time) ([]*conference.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*conference.Batch, 0)
	for _, b := range m.history {
		if from != nil && b.EndTime.Before(*from) {
			continue
		}
		if to != nil && b.EndTime.After(*to) {
			continue
		}
		result = append(result, b.Clone())
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].EndTime.After(*result[j].EndTime)
	})
	return result, nil
}

func (m *memoryStore) HasInvoice(ctx context.Context, accessKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.history {
		if b.HasInvoice(accessKey) {
			return true, nil
		}
	}
	return false, nil
}

// hookedHistory runs onLookup inside every HasInvoice call
type hookedHistory struct {
	*memoryStore
	onLookup func()
}

func (h *hookedHistory) HasInvoice(ctx context.Context, accessKey string) (bool, error) {
	if h.onLookup != nil {
		h.onLookup()
	}
	return h.memoryStore.HasInvoice(ctx, accessKey)
}

func (m *memoryStore) historyLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// memoryBranches is an in-memory identity.BranchRepository
type memoryBranches struct {
	branches []*identity.Branch
	findErr  error
}

func (m *memoryBranches) Create(ctx context.Context, branch *identity.Branch) error {
	m.branches = append(m.branches, branch)
	return nil
}

func (m *memoryBranches) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (m *memoryBranches) FindByID(ctx context.Context, id uuid.UUID) (*identity.Branch, error) {
	for _, b := range m.branches {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryBranches) FindByCNPJ(ctx context.Context, cnpj string) (*identity.Branch, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, b := range m.branches {
		if b.CNPJ == cnpj {
			return b, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryBranches) FindAll(ctx context.Context, search string) ([]*identity.Branch, error) {
	return m.branches, nil
}

func (m *memoryBranches) Count(ctx context.Context) (int64, error) {
	return int64(len(m.branches)), nil
}

func newTestBranch(t *testing.T, cnpj, name string) *identity.Branch {
	t.Helper()
	b, err := identity.NewBranch(cnpj, name)
	require.NoError(t, err)
	return b
}

// stubParser returns the invoice registered for a document's content
type stubParser struct {
	invoices map[string]conference.ParsedInvoice
}

func (p *stubParser) Parse(ctx context.Context, document []byte) (*conference.ParsedInvoice, error) {
	inv, ok := p.invoices[string(document)]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeParseError, "Document is not a valid NF-e")
	}
	inv.Items = append([]conference.LineItem(nil), inv.Items...)
	return &inv, nil
}

// stubSupervisors accepts a fixed set of accounts
type stubSupervisors struct {
	users     map[string]*identity.User
	passwords map[string]string
}

func (s *stubSupervisors) AuthorizeSupervisor(ctx context.Context, username, password string) (*identity.User, error) {
	u, ok := s.users[username]
	if !ok || s.passwords[username] != password || !u.Role.CanSupervise() {
		return nil, shared.ErrUnauthorized
	}
	return u, nil
}

type stubArchive struct {
	stored map[string][]byte
}

func (a *stubArchive) Store(ctx context.Context, accessKey string, document []byte) error {
	a.stored[accessKey] = document
	return nil
}

const (
	keyA = "35240309267050000104550010000012341000012345"
	keyB = "35240309267050000104550010000056781000056789"
)

var testConferente = conference.Operator{ID: uuid.MustParse("0e6d3f7c-29a4-4d8b-9f1e-6a1b2c3d4e5f"), Name: "Joao"}

type fixture struct {
	svc         *WorkspaceService
	history     *HistoryService
	store       *memoryStore
	branches    *memoryBranches
	events      *MockEventPublisher
	archive     *stubArchive
	supervisors *stubSupervisors
	parser      *stubParser
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	item := func(code, barcode, qty string) conference.LineItem {
		li, err := conference.NewLineItem(code, barcode, "Produto "+code, valueobject.MustQuantity(qty))
		require.NoError(t, err)
		return *li
	}
	header := func(key, number string) conference.InvoiceHeader {
		return conference.InvoiceHeader{
			Number:       number,
			AccessKey:    key,
			VendorTaxID:  "09.267.050/0001-04",
			VendorName:   "Fornecedor Teste",
			EmissionDate: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		}
	}

	parser := &stubParser{invoices: map[string]conference.ParsedInvoice{
		"nfe-a": {
			Header: header(keyA, "1234"),
			Items: []conference.LineItem{
				item("A1", "7891000100103", "2"),
				item("B2", conference.NoBarcode, "1.5"),
			},
		},
		"nfe-b": {
			Header: header(keyB, "5678"),
			Items: []conference.LineItem{
				item("A1", "7891000100103", "3"),
			},
		},
	}}

	supervisor, err := identity.NewUser("Maria", "maria", identity.RoleSupervisor, "123")
	require.NoError(t, err)
	conferente, err := identity.NewUser("Joao", "joao", identity.RoleConferente, "123")
	require.NoError(t, err)

	f := &fixture{
		store:    newMemoryStore(),
		branches: &memoryBranches{},
		events:   NewMockEventPublisher(),
		archive:  &stubArchive{stored: make(map[string][]byte)},
		parser:   parser,
		supervisors: &stubSupervisors{
			users:     map[string]*identity.User{"maria": supervisor, "joao": conferente},
			passwords: map[string]string{"maria": "123", "joao": "123"},
		},
	}
	f.svc = NewWorkspaceService(WorkspaceServiceDeps{
		Store:       f.store,
		History:     f.store,
		Branches:    f.branches,
		Parser:      f.parser,
		Archive:     f.archive,
		Supervisors: f.supervisors,
		EventBus:    f.events,
		Logger:      zap.NewNop(),
	})
	f.history = NewHistoryService(f.store, f.branches, zap.NewNop())
	return f
}

func (f *fixture) stageAndStart(t *testing.T, docs ...string) *BatchResponse {
	t.Helper()
	uploads := make([]UploadedDocument, len(docs))
	for i, d := range docs {
		uploads[i] = UploadedDocument{Name: d + ".xml", Content: []byte(d)}
	}
	_, err := f.svc.StageInvoices(context.Background(), uploads)
	require.NoError(t, err)
	batch, err := f.svc.StartConference(context.Background(), testConferente)
	require.NoError(t, err)
	return batch
}

func (f *fixture) scan(t *testing.T, identifier, qty string) *ScanResponse {
	t.Helper()
	q := valueobject.MustQuantity(qty).Amount()
	resp, err := f.svc.Scan(context.Background(), ScanRequest{Identifier: identifier, Quantity: &q})
	require.NoError(t, err)
	return resp
}
