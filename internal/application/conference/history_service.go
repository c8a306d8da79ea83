package conference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HistoryService serves completed conferences, their reports and the dashboard statistics
type HistoryService struct {
	history  conference.HistoryRepository
	branches identity.BranchRepository
	logger   *zap.Logger
}

// NewHistoryService creates a new history service
func NewHistoryService(
	history conference.HistoryRepository,
	branches identity.BranchRepository,
	logger *zap.Logger,
) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		history:  history,
		branches: branches,
		logger:   logger,
	}
}

// List returns completed conferences, most recently finished first
func (s *HistoryService) List(ctx context.Context, filter HistoryFilter) ([]BatchSummaryResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.From = filter.StartDate
	f.To = endOfDay(filter.EndDate)

	batches, total, err := s.history.List(ctx, f)
	if err != nil {
		s.logger.Error("Failed to list conference history", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list conference history: %w", err)
	}
	return ToBatchSummaryResponses(batches), total, nil
}

// GetByID returns one completed conference with its items
func (s *HistoryService) GetByID(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	b, err := s.history.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToBatchResponse(b)
	return &response, nil
}

// Report builds the reconciliation report of a completed conference. The origin is the branch
// owning the first invoice's vendor CNPJ, or the vendor name.
func (s *HistoryService) Report(ctx context.Context, id uuid.UUID) (*ReportResponse, error) {
	b, err := s.history.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	origin := ""
	if len(b.Invoices) > 0 {
		first := b.Invoices[0]
		origin = first.VendorName
		branch, err := s.branches.FindByCNPJ(ctx, identity.NormalizeCNPJ(first.VendorTaxID))
		switch {
		case err == nil:
			origin = branch.Name
		case !errors.Is(err, shared.ErrNotFound):
			s.logger.Error("Failed to resolve report origin",
				zap.String("batch_id", id.String()),
				zap.String("vendor_tax_id", first.VendorTaxID),
				zap.Error(err))
			return nil, fmt.Errorf("failed to resolve report origin: %w", err)
		}
	}

	response := ToReportResponse(conference.BuildReport(b, origin))
	return &response, nil
}

// DashboardStats aggregates the conferences finished in the date range; nil bounds are open
func (s *HistoryService) DashboardStats(ctx context.Context, from, to *time.Time) (*DashboardStatsResponse, error) {
	batches, err := s.history.FindFinishedBetween(ctx, from, endOfDay(to))
	if err != nil {
		s.logger.Error("Failed to load dashboard conferences", zap.Error(err))
		return nil, fmt.Errorf("failed to load dashboard conferences: %w", err)
	}
	response := ToDashboardStatsResponse(conference.ComputeStats(batches))
	return &response, nil
}

// endOfDay moves a date-only upper bound to the last instant of that day
func endOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return t
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}
