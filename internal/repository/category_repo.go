package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"finance-ledger-backend/internal/models"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func normalizeCategoryName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// GetOrCreate finds the category whose normalized name matches, creating
// it when absent. Names are globally unique on their normalized form.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, name string) (models.Category, error) {
	var cat models.Category
	err := r.db.WithContext(ctx).
		Where(models.Category{NameNormalized: normalizeCategoryName(name)}).
		Attrs(models.Category{Name: strings.TrimSpace(name)}).
		FirstOrCreate(&cat).Error
	return cat, err
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&cats).Error
	return cats, err
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *CategoryRepository) Rename(ctx context.Context, id uint, name string) error {
	return r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":            strings.TrimSpace(name),
			"name_normalized": normalizeCategoryName(name),
		}).Error
}

// Delete removes a category. A foreign key violation from transactions
// or rules still referencing it propagates to the caller as-is.
func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}
