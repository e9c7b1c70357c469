package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"finance-ledger-backend/internal/models"
)

type ImportBatchRepository struct {
	db *gorm.DB
}

func NewImportBatchRepository(db *gorm.DB) *ImportBatchRepository {
	return &ImportBatchRepository{db: db}
}

// Start records a new batch in "processing" state.
func (r *ImportBatchRepository) Start(ctx context.Context, userID, filename string) (*models.ImportBatch, error) {
	batch := &models.ImportBatch{
		ID:        uuid.New(),
		UserID:    userID,
		Filename:  filename,
		Status:    "processing",
		StartedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// Finish stores the final counters. Status is "completed" on success,
// "failed" when ingestion aborted mid-batch; counters still reflect
// what was durably applied.
func (r *ImportBatchRepository) Finish(ctx context.Context, id uuid.UUID, status string, total, prepared, inserted, skipped, flagged int) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.ImportBatch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":             status,
			"total":              total,
			"prepared":           prepared,
			"inserted":           inserted,
			"skipped_duplicates": skipped,
			"flagged_count":      flagged,
			"completed_at":       now,
		}).Error
}

func (r *ImportBatchRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	err := r.db.WithContext(ctx).First(&batch, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}
