package persistence

import (
	"context"
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormHistoryRepository implements conference.HistoryRepository using GORM
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *GormHistoryRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Invoices", byPosition).
		Preload("Items", byPosition)
}

// FindByID loads one approved batch with its invoices and items
func (r *GormHistoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*conference.Batch, error) {
	var model models.BatchModel
	if err := r.withChildren(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// List returns a page of approved batches, most recently finished first
func (r *GormHistoryRepository) List(ctx context.Context, filter shared.Filter) ([]*conference.Batch, int64, error) {
	query := finishedBetween(r.db.WithContext(ctx).Model(&models.BatchModel{}), filter.From, filter.To)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.BatchModel
	if err := finishedBetween(r.withChildren(ctx), filter.From, filter.To).
		Order("end_time DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toBatches(rows), total, nil
}

// FindFinishedBetween returns every approved batch finished in [from, to]
func (r *GormHistoryRepository) FindFinishedBetween(ctx context.Context, from, to *time.Time) ([]*conference.Batch, error) {
	var rows []models.BatchModel
	if err := finishedBetween(r.withChildren(ctx), from, to).
		Order("end_time DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toBatches(rows), nil
}

// HasInvoice reports whether an approved batch already covers the access key
func (r *GormHistoryRepository) HasInvoice(ctx context.Context, accessKey string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("access_key = ?", accessKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func finishedBetween(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("end_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("end_time <= ?", *to)
	}
	return query
}

func toBatches(rows []models.BatchModel) []*conference.Batch {
	batches := make([]*conference.Batch, len(rows))
	for i := range rows {
		batches[i] = rows[i].ToDomain()
	}
	return batches
}

var _ conference.HistoryRepository = (*GormHistoryRepository)(nil)
