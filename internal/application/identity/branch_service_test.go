package identity

import (
	"context"
	"testing"

	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBranchService_Create(t *testing.T) {
	ctx := context.Background()
	admin := newTestUser(t, "admin", identity.RoleAdmin)

	t.Run("stores digits only", func(t *testing.T) {
		repo := new(MockBranchRepository)
		repo.On("FindByCNPJ", ctx, "09267050000104").Return(nil, shared.ErrNotFound)
		repo.On("Create", ctx, mock.AnythingOfType("*identity.Branch")).Return(nil)
		svc := NewBranchService(repo, zap.NewNop())

		dto, err := svc.Create(ctx, admin, CreateBranchRequest{CNPJ: "09.267.050/0001-04", Name: "Filial AS"})
		require.NoError(t, err)
		assert.Equal(t, "09267050000104", dto.CNPJ)
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate CNPJ", func(t *testing.T) {
		existing, err := identity.NewBranch("09267050000104", "Filial AS")
		require.NoError(t, err)
		repo := new(MockBranchRepository)
		repo.On("FindByCNPJ", ctx, "09267050000104").Return(existing, nil)
		svc := NewBranchService(repo, zap.NewNop())

		_, err = svc.Create(ctx, admin, CreateBranchRequest{CNPJ: "09267050000104", Name: "Outra"})
		assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))
	})

	t.Run("rejects short CNPJ", func(t *testing.T) {
		svc := NewBranchService(new(MockBranchRepository), zap.NewNop())
		_, err := svc.Create(ctx, admin, CreateBranchRequest{CNPJ: "1234", Name: "Filial"})
		assert.Equal(t, "INVALID_CNPJ", shared.ErrorCode(err))
	})

	t.Run("conferentes cannot manage branches", func(t *testing.T) {
		svc := NewBranchService(new(MockBranchRepository), zap.NewNop())
		joao := newTestUser(t, "joao", identity.RoleConferente)
		_, err := svc.Create(ctx, joao, CreateBranchRequest{CNPJ: "09267050000104", Name: "Filial"})
		assert.Equal(t, shared.CodeInsufficientPermission, shared.ErrorCode(err))
	})
}

func TestBranchService_Delete(t *testing.T) {
	ctx := context.Background()
	admin := newTestUser(t, "admin", identity.RoleAdmin)
	branch, err := identity.NewBranch("09267050000376", "Filial BM")
	require.NoError(t, err)

	repo := new(MockBranchRepository)
	repo.On("FindByID", ctx, branch.ID).Return(branch, nil)
	repo.On("Delete", ctx, branch.ID).Return(nil)
	missing := shared.NewID()
	repo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)
	svc := NewBranchService(repo, zap.NewNop())

	require.NoError(t, svc.Delete(ctx, admin, branch.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, missing), shared.ErrNotFound)
}

func TestBranchService_ResolveOrigin(t *testing.T) {
	ctx := context.Background()
	branch, err := identity.NewBranch("09267050000104", "Filial AS")
	require.NoError(t, err)

	repo := new(MockBranchRepository)
	repo.On("FindByCNPJ", ctx, "09267050000104").Return(branch, nil)
	repo.On("FindByCNPJ", ctx, "11222333000181").Return(nil, shared.ErrNotFound)
	svc := NewBranchService(repo, zap.NewNop())

	t.Run("names the branch of an internal transfer", func(t *testing.T) {
		origin, err := svc.ResolveOrigin(ctx, OriginQuery{CNPJ: "09.267.050/0001-04", VendorName: "ACME"})
		require.NoError(t, err)
		assert.Equal(t, "Filial AS", origin.Name)
		assert.True(t, origin.Internal)
	})

	t.Run("falls back to the vendor name", func(t *testing.T) {
		origin, err := svc.ResolveOrigin(ctx, OriginQuery{CNPJ: "11222333000181", VendorName: "ACME"})
		require.NoError(t, err)
		assert.Equal(t, "ACME", origin.Name)
		assert.False(t, origin.Internal)
	})
}
