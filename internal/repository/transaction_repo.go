package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finance-ledger-backend/internal/models"
)

// TransactionFilters defines the list/count query filters.
type TransactionFilters struct {
	CategoryID    *uint
	Flagged       *bool
	Uncategorized bool
	Search        string
	DateFrom      *time.Time
	DateTo        *time.Time
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// CreateMany inserts rows, skipping any that collide with the
// (user_id, duplicate_key) unique index. Concurrent imports racing past
// the pre-filter land here as conflicts, not errors. Returns the number
// of rows actually written.
func (r *TransactionRepository) CreateMany(ctx context.Context, txs []models.Transaction) (int64, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "duplicate_key"}},
		DoNothing: true,
	}).Create(&txs)
	return result.RowsAffected, result.Error
}

// ExistingKeys reports which of the given duplicate keys are already
// stored for the user.
func (r *TransactionRepository) ExistingKeys(ctx context.Context, userID string, keys []string) (map[string]bool, error) {
	var found []string
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND duplicate_key IN ?", userID, keys).
		Pluck("duplicate_key", &found).Error
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(found))
	for _, k := range found {
		existing[k] = true
	}
	return existing, nil
}

// ListUncategorized fetches one keyset page of the user's transactions
// that still have no category, ordered by ascending id.
func (r *TransactionRepository) ListUncategorized(ctx context.Context, userID string, afterID uint, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND category_id IS NULL AND id > ?", userID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// UpdateCategory sets one transaction's category.
func (r *TransactionRepository) UpdateCategory(ctx context.Context, id uint, categoryID *uint) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("category_id", categoryID).Error
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *TransactionRepository) GetByID(ctx context.Context, userID string, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).First(&tx, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Update applies a field-by-field patch to one transaction.
func (r *TransactionRepository) Update(ctx context.Context, userID string, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields).Error
}

func (r *TransactionRepository) Delete(ctx context.Context, userID string, id uint) error {
	return r.db.WithContext(ctx).
		Delete(&models.Transaction{}, "id = ? AND user_id = ?", id, userID).Error
}

// BulkUpdateCategory reassigns the category of the given transactions.
func (r *TransactionRepository) BulkUpdateCategory(ctx context.Context, userID string, ids []uint, categoryID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id IN ? AND user_id = ?", ids, userID).
		Update("category_id", categoryID)
	return result.RowsAffected, result.Error
}

// List returns one page of the user's transactions, newest first, plus
// the total count matching the filters.
func (r *TransactionRepository) List(ctx context.Context, userID string, f TransactionFilters, page, pageSize int) ([]models.Transaction, int64, error) {
	query := r.filtered(ctx, userID, f)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []models.Transaction
	err := query.
		Order("date DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txs).Error
	return txs, total, err
}

func (r *TransactionRepository) Count(ctx context.Context, userID string, f TransactionFilters) (int64, error) {
	var total int64
	err := r.filtered(ctx, userID, f).Count(&total).Error
	return total, err
}

func (r *TransactionRepository) filtered(ctx context.Context, userID string, f TransactionFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.Uncategorized {
		query = query.Where("category_id IS NULL")
	}
	if f.Flagged != nil {
		query = query.Where("is_flagged = ?", *f.Flagged)
	}
	if f.Search != "" {
		query = query.Where("description ILIKE ?", "%"+f.Search+"%")
	}
	if f.DateFrom != nil {
		query = query.Where("date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		query = query.Where("date <= ?", *f.DateTo)
	}
	return query
}
