package repository

import (
	"context"

	"gorm.io/gorm"

	"finance-ledger-backend/internal/models"
)

type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// ListActive returns the user's active rules in priority order
// (ascending id, i.e. creation order). Callers hold the returned slice
// as an immutable snapshot for the duration of a run.
func (r *RuleRepository) ListActive(ctx context.Context, userID string) ([]models.Rule, error) {
	var rules []models.Rule
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *RuleRepository) List(ctx context.Context, userID string) ([]models.Rule, error) {
	var rules []models.Rule
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *RuleRepository) Create(ctx context.Context, rule *models.Rule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *RuleRepository) GetByID(ctx context.Context, userID string, id uint) (*models.Rule, error) {
	var rule models.Rule
	err := r.db.WithContext(ctx).First(&rule, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) Update(ctx context.Context, userID string, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Rule{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields).Error
}

func (r *RuleRepository) Delete(ctx context.Context, userID string, id uint) error {
	return r.db.WithContext(ctx).
		Delete(&models.Rule{}, "id = ? AND user_id = ?", id, userID).Error
}
