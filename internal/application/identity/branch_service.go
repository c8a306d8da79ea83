package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BranchService manages the company branches used to recognize internal transfers
type BranchService struct {
	branchRepo identity.BranchRepository
	logger     *zap.Logger
}

// NewBranchService creates a new branch service
func NewBranchService(branchRepo identity.BranchRepository, logger *zap.Logger) *BranchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchService{branchRepo: branchRepo, logger: logger}
}

// List returns branches ordered by name, optionally filtered by name or CNPJ
func (s *BranchService) List(ctx context.Context, search string) ([]BranchDTO, error) {
	branches, err := s.branchRepo.FindAll(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return ToBranchDTOs(branches), nil
}

// Create registers a branch; the CNPJ is stored as digits only and must be unique
func (s *BranchService) Create(ctx context.Context, actor *identity.User, req CreateBranchRequest) (*BranchDTO, error) {
	if err := identity.Evaluate(actor, identity.ActionManageBranches, identity.Target{}).Err(); err != nil {
		return nil, err
	}

	branch, err := identity.NewBranch(req.CNPJ, req.Name)
	if err != nil {
		return nil, err
	}

	_, err = s.branchRepo.FindByCNPJ(ctx, branch.CNPJ)
	switch {
	case err == nil:
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "A branch with this CNPJ already exists")
	case !errors.Is(err, shared.ErrNotFound):
		return nil, fmt.Errorf("failed to check branch CNPJ: %w", err)
	}

	if err := s.branchRepo.Create(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}

	s.logger.Info("Branch created",
		zap.String("branch_id", branch.ID.String()),
		zap.String("cnpj", branch.CNPJ),
		zap.String("name", branch.Name))

	dto := ToBranchDTO(branch)
	return &dto, nil
}

// Delete removes a branch
func (s *BranchService) Delete(ctx context.Context, actor *identity.User, id uuid.UUID) error {
	if err := identity.Evaluate(actor, identity.ActionManageBranches, identity.Target{}).Err(); err != nil {
		return err
	}

	if _, err := s.branchRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeNotFound, "Branch not found")
		}
		return fmt.Errorf("failed to find branch: %w", err)
	}
	if err := s.branchRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete branch: %w", err)
	}

	s.logger.Info("Branch deleted", zap.String("branch_id", id.String()))
	return nil
}

// ResolveOrigin names the origin of an invoice: the branch owning the vendor CNPJ, else the vendor name
func (s *BranchService) ResolveOrigin(ctx context.Context, q OriginQuery) (*OriginDTO, error) {
	cnpj := identity.NormalizeCNPJ(q.CNPJ)
	origin := &OriginDTO{CNPJ: cnpj, Name: q.VendorName}
	if cnpj == "" {
		return origin, nil
	}

	branch, err := s.branchRepo.FindByCNPJ(ctx, cnpj)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return origin, nil
		}
		return nil, fmt.Errorf("failed to resolve origin: %w", err)
	}
	origin.Name = branch.Name
	origin.Internal = true
	return origin, nil
}
