package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportBatch records one ingestion call and its final counters.
type ImportBatch struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID            string    `gorm:"index"`
	Filename          string
	Total             int
	Prepared          int
	Inserted          int
	SkippedDuplicates int
	FlaggedCount      int
	Status            string
	StartedAt         time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
}
