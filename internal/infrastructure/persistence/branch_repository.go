package persistence

import (
	"context"
	"strings"

	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBranchRepository implements identity.BranchRepository using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// Create creates a new branch
func (r *GormBranchRepository) Create(ctx context.Context, branch *identity.Branch) error {
	return translate(r.db.WithContext(ctx).Create(models.BranchModelFromDomain(branch)).Error)
}

// Delete deletes a branch by ID
func (r *GormBranchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BranchModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a branch by ID
func (r *GormBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Branch, error) {
	var model models.BranchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByCNPJ finds a branch by its digits-only CNPJ
func (r *GormBranchRepository) FindByCNPJ(ctx context.Context, cnpj string) (*identity.Branch, error) {
	var model models.BranchModel
	if err := r.db.WithContext(ctx).
		Where("cnpj = ?", identity.NormalizeCNPJ(cnpj)).
		First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns branches ordered by name; search matches the name or the CNPJ
func (r *GormBranchRepository) FindAll(ctx context.Context, search string) ([]*identity.Branch, error) {
	query := r.db.WithContext(ctx).Model(&models.BranchModel{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR cnpj LIKE ?", like, like)
	}

	var rows []models.BranchModel
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	branches := make([]*identity.Branch, len(rows))
	for i := range rows {
		branches[i] = rows[i].ToDomain()
	}
	return branches, nil
}

// Count returns the number of branches
func (r *GormBranchRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BranchModel{}).Count(&count).Error
	return count, err
}

var _ identity.BranchRepository = (*GormBranchRepository)(nil)
