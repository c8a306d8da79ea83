package conference

import (
	"context"
	"time"

	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// HistoryRepository reads completed (approved) conferences
type HistoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	// List returns approved batches, most recently finished first, filtered by finish date
	List(ctx context.Context, filter shared.Filter) ([]*Batch, int64, error)
	// FindFinishedBetween returns every approved batch finished in [from, to]; nil bounds are open
	FindFinishedBetween(ctx context.Context, from, to *time.Time) ([]*Batch, error)
	// HasInvoice reports whether an approved batch already covers the access key
	HasInvoice(ctx context.Context, accessKey string) (bool, error)
}

// WorkspaceStore persists the workspace as one snapshot, last write wins
type WorkspaceStore interface {
	// Load returns the last saved workspace, or an empty one if none was saved
	Load(ctx context.Context) (*Workspace, error)
	Save(ctx context.Context, ws *Workspace) error
	// SaveWithApproved appends approved to history and saves ws as one atomic step
	SaveWithApproved(ctx context.Context, ws *Workspace, approved *Batch) error
}
