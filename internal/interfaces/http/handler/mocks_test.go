package handler

import (
	"context"
	"time"

	"github.com/checkmaster/backend/internal/application/conference"
	"github.com/checkmaster/backend/internal/application/identity"
	domainconf "github.com/checkmaster/backend/internal/domain/conference"
	domainid "github.com/checkmaster/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockWorkspace is a mock implementation of WorkspaceAPI
type MockWorkspace struct {
	mock.Mock
}

func (m *MockWorkspace) GetWorkspace(ctx context.Context) (*conference.WorkspaceResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conference.WorkspaceResponse), args.Error(1)
}

func (m *MockWorkspace) StageInvoices(ctx context.Context, docs []conference.UploadedDocument) (*conference.StageResult, error) {
	args := m.Called(ctx, docs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conference.StageResult), args.Error(1)
}

func (m *MockWorkspace) RemoveStaged(ctx context.Context, accessKey string) error {
	return m.Called(ctx, accessKey).Error(0)
}

func (m *MockWorkspace) StartConference(ctx context.Context, conferente domainconf.Operator) (*conference.BatchResponse, error) {
	args := m.Called(ctx, conferente)
	return batchResult(args)
}

func (m *MockWorkspace) GetActive(ctx context.Context) (*conference.BatchResponse, error) {
	return batchResult(m.Called(ctx))
}

func (m *MockWorkspace) Progress(ctx context.Context) (*conference.ProgressResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conference.ProgressResponse), args.Error(1)
}

func (m *MockWorkspace) Scan(ctx context.Context, req conference.ScanRequest) (*conference.ScanResponse, error) {
	return scanResult(m.Called(ctx, req))
}

func (m *MockWorkspace) ResetItem(ctx context.Context, itemID uuid.UUID) (*conference.ScanResponse, error) {
	return scanResult(m.Called(ctx, itemID))
}

func (m *MockWorkspace) Finalize(ctx context.Context) (*conference.FinalizeResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conference.FinalizeResponse), args.Error(1)
}

func (m *MockWorkspace) Approve(ctx context.Context, req conference.ApproveRequest) (*conference.BatchResponse, error) {
	return batchResult(m.Called(ctx, req))
}

func (m *MockWorkspace) Reject(ctx context.Context) (*conference.BatchResponse, error) {
	return batchResult(m.Called(ctx))
}

func (m *MockWorkspace) Pause(ctx context.Context) (*conference.BatchSummaryResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conference.BatchSummaryResponse), args.Error(1)
}

func (m *MockWorkspace) Resume(ctx context.Context, batchID uuid.UUID, confirm bool) (*conference.BatchResponse, error) {
	return batchResult(m.Called(ctx, batchID, confirm))
}

func (m *MockWorkspace) ListPaused(ctx context.Context) ([]conference.BatchSummaryResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]conference.BatchSummaryResponse), args.Error(1)
}

func (m *MockWorkspace) DeletePaused(ctx context.Context, batchID uuid.UUID) error {
	return m.Called(ctx, batchID).Error(0)
}

func (m *MockWorkspace) Discard(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func batchResult(args mock.Arguments) (*conference.BatchResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conference.BatchResponse), args.Error(1)
}

func scanResult(args mock.Arguments) (*conference.ScanResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conference.ScanResponse), args.Error(1)
}

// MockHistory is a mock implementation of HistoryAPI
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) List(ctx context.Context, filter conference.HistoryFilter) ([]conference.BatchSummaryResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]conference.BatchSummaryResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockHistory) GetByID(ctx context.Context, id uuid.UUID) (*conference.BatchResponse, error) {
	return batchResult(m.Called(ctx, id))
}

func (m *MockHistory) Report(ctx context.Context, id uuid.UUID) (*conference.ReportResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conference.ReportResponse), args.Error(1)
}

func (m *MockHistory) DashboardStats(ctx context.Context, from, to *time.Time) (*conference.DashboardStatsResponse, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conference.DashboardStatsResponse), args.Error(1)
}

// MockAuth is a mock implementation of AuthAPI
type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) Login(ctx context.Context, req identity.LoginRequest) (*identity.LoginResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.LoginResult), args.Error(1)
}

func (m *MockAuth) Logout(ctx context.Context, input identity.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockAuth) Me(ctx context.Context, userID uuid.UUID) (*identity.UserDTO, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserDTO), args.Error(1)
}

// MockUsers is a mock implementation of UserAPI
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) List(ctx context.Context, actor *domainid.User) ([]identity.UserDTO, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.UserDTO), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, actor *domainid.User, req identity.CreateUserRequest) (*identity.UserDTO, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserDTO), args.Error(1)
}

func (m *MockUsers) ResetPassword(ctx context.Context, actor *domainid.User, id uuid.UUID, req identity.ResetPasswordRequest) error {
	return m.Called(ctx, actor, id, req).Error(0)
}

func (m *MockUsers) Delete(ctx context.Context, actor *domainid.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockBranches is a mock implementation of BranchAPI
type MockBranches struct {
	mock.Mock
}

func (m *MockBranches) List(ctx context.Context, search string) ([]identity.BranchDTO, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]identity.BranchDTO), args.Error(1)
}

func (m *MockBranches) Create(ctx context.Context, actor *domainid.User, req identity.CreateBranchRequest) (*identity.BranchDTO, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.BranchDTO), args.Error(1)
}

func (m *MockBranches) Delete(ctx context.Context, actor *domainid.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockBranches) ResolveOrigin(ctx context.Context, q identity.OriginQuery) (*identity.OriginDTO, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.OriginDTO), args.Error(1)
}
