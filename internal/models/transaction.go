package models

import (
	"time"

	"gorm.io/datatypes"
)

// Flag reason codes a transaction can carry when marked for review.
const (
	FlagMissingDescription = "MISSING_DESCRIPTION"
	FlagUnusualAmount      = "UNUSUAL_AMOUNT"
)

type Transaction struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       string    `gorm:"index;uniqueIndex:idx_transactions_user_dupkey"`
	Date         time.Time `gorm:"index"`
	Description  string
	Amount       float64
	CategoryID   *uint `gorm:"index"`
	Category     *Category
	DuplicateKey string `gorm:"uniqueIndex:idx_transactions_user_dupkey"`
	IsFlagged    bool   `gorm:"index"`
	FlagReasons  datatypes.JSON
	CreatedAt    time.Time
}
