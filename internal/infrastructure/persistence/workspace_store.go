package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWorkspaceStore implements conference.WorkspaceStore as one JSON row
type GormWorkspaceStore struct {
	db *gorm.DB
	id string
}

// NewGormWorkspaceStore creates a store for the shared workspace
func NewGormWorkspaceStore(db *gorm.DB) *GormWorkspaceStore {
	return &GormWorkspaceStore{db: db, id: models.DefaultWorkspaceID}
}

// Load returns the saved workspace, or an empty one before the first save
func (s *GormWorkspaceStore) Load(ctx context.Context) (*conference.Workspace, error) {
	var row models.WorkspaceSnapshotModel
	err := s.db.WithContext(ctx).First(&row, "id = ?", s.id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return conference.NewWorkspace(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	return models.DecodeWorkspace(row.Data)
}

// Save replaces the snapshot
func (s *GormWorkspaceStore) Save(ctx context.Context, ws *conference.Workspace) error {
	return s.saveSnapshot(s.db.WithContext(ctx), ws)
}

// SaveWithApproved appends approved to history and replaces the snapshot in one transaction
func (s *GormWorkspaceStore) SaveWithApproved(ctx context.Context, ws *conference.Workspace, approved *conference.Batch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := appendHistory(tx, models.BatchModelFromDomain(approved)); err != nil {
			return fmt.Errorf("failed to append batch to history: %w", translate(err))
		}
		return s.saveSnapshot(tx, ws)
	})
}

// appendHistory inserts children explicitly. Association saves use ON CONFLICT DO NOTHING,
// which would drop an invoice whose access key is already in history.
func appendHistory(tx *gorm.DB, m *models.BatchModel) error {
	if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
		return err
	}
	if len(m.Invoices) > 0 {
		if err := tx.Create(&m.Invoices).Error; err != nil {
			return err
		}
	}
	if len(m.Items) > 0 {
		if err := tx.Create(&m.Items).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *GormWorkspaceStore) saveSnapshot(db *gorm.DB, ws *conference.Workspace) error {
	data, err := models.EncodeWorkspace(ws)
	if err != nil {
		return fmt.Errorf("failed to encode workspace: %w", err)
	}
	row := models.WorkspaceSnapshotModel{
		ID:        s.id,
		Version:   1,
		Data:      data,
		UpdatedAt: time.Now(),
	}
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"data":       row.Data,
			"updated_at": row.UpdatedAt,
			"version":    gorm.Expr("workspace_snapshots.version + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	return nil
}

var _ conference.WorkspaceStore = (*GormWorkspaceStore)(nil)
